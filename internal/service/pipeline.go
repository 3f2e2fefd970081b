package service

import (
	"github.com/jask/finsync/internal/ledger"
)

// batch is the per-pass accumulator of ids already in the ledger or accepted
// earlier in the same pass. It is owned by one pass and never shared.
type batch struct {
	seen        ledger.IDSet
	categorizer *Categorizer
}

func newBatch(l ledger.Ledger, c *Categorizer) *batch {
	if c == nil {
		c = NewCategorizer()
	}
	return &batch{seen: l.TransactionIDs(), categorizer: c}
}

// admit tags txs for account and returns only those whose id is new. The
// returned ids are recorded as seen only after commit.
func (b *batch) admit(account ledger.Account, txs []ledger.Transaction) []ledger.Transaction {
	fresh := make([]ledger.Transaction, 0, len(txs))
	local := ledger.IDSet{}
	for _, tx := range txs {
		if tx.AccountID == "" {
			tx.AccountID = account.ID
		}
		if tx.Direction == "" {
			tx.Direction = ledger.DirectionFor(tx.Amount)
		}
		tx.AssignID()
		if b.seen.Has(tx.ID) || local.Has(tx.ID) {
			continue
		}
		if !IsInternalTransfer(&tx, account) && tx.Category == "" {
			tx.Category = b.categorizer.ClassifyTransaction(tx)
		}
		local.Add(tx.ID)
		fresh = append(fresh, tx)
	}
	return fresh
}

// commit records txs as persisted.
func (b *batch) commit(txs []ledger.Transaction) {
	for _, tx := range txs {
		b.seen.Add(tx.ID)
	}
}
