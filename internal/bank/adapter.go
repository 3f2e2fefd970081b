// Package bank defines the contract every institution adapter implements and
// the error taxonomy the sync orchestrator uses to classify failures.
package bank

import (
	"context"
	"time"

	"github.com/jask/finsync/internal/ledger"
)

// Credentials is an opaque blob handed through to the adapter. The engine
// never inspects, logs or persists it.
type Credentials struct {
	Data map[string]string `json:"data"`
}

// Get returns the credential value for key, or "".
func (c Credentials) Get(key string) string {
	if c.Data == nil {
		return ""
	}
	return c.Data[key]
}

// String hides the contents so credentials cannot leak into logs.
func (c Credentials) String() string { return "bank.Credentials{redacted}" }

// Adapter fetches accounts, transactions and balances from one institution and
// maps them to the unified schema. Accounts returned must carry ids built with
// ledger.AccountID, and transactions reference those ids.
type Adapter interface {
	// InstitutionID identifies the institution, e.g. "dkb".
	InstitutionID() string

	FetchAccounts(ctx context.Context, creds Credentials) ([]ledger.Account, error)

	// FetchTransactions lists an account's transactions. When since is non-nil,
	// only transactions dated on or after it are returned.
	FetchTransactions(ctx context.Context, accountID string, creds Credentials, since *time.Time) ([]ledger.Transaction, error)

	FetchBalance(ctx context.Context, accountID string, creds Credentials) (ledger.Balance, error)
}

// FilterSince keeps transactions whose date (or booking date) is on or after
// since. A nil since keeps everything.
func FilterSince(txs []ledger.Transaction, since *time.Time) []ledger.Transaction {
	if since == nil {
		return txs
	}
	cut := truncateDay(*since)
	out := txs[:0:0]
	for _, t := range txs {
		d := t.Date
		if t.BookingDate != nil {
			d = *t.BookingDate
		}
		if !truncateDay(d).Before(cut) {
			out = append(out, t)
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
