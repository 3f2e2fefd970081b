package service

import (
	"strings"

	"github.com/jask/finsync/internal/ledger"
)

// NormalizeName trims, collapses internal whitespace and lowercases.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// IsInternalTransfer reports whether tx moves money between two accounts of
// owned's holder: both the creditor and the debtor name must equal the
// holder name after normalization. A match tags tx in place.
//
// Transfers to a spouse or a joint account with another holder name are not
// detected.
func IsInternalTransfer(tx *ledger.Transaction, owned ledger.Account) bool {
	holder := NormalizeName(owned.HolderName)
	if holder == "" || tx == nil {
		return false
	}
	creditor := NormalizeName(tx.Raw[ledger.RawCreditorName])
	debtor := NormalizeName(tx.Raw[ledger.RawDebtorName])
	if creditor != holder || debtor != holder {
		return false
	}
	tx.Category = ledger.CategoryInternalTransfer
	tx.Raw[ledger.RawInternalTransfer] = "true"
	return true
}
