package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jask/finsync/internal/bank"
	"github.com/jask/finsync/internal/ledger"
)

// fakeAdapter serves a fixed dataset and can fail per account.
type fakeAdapter struct {
	mu           sync.Mutex
	accounts     []ledger.Account
	transactions map[string][]ledger.Transaction
	balances     map[string]float64

	accountsErr error
	txErr       map[string]error
	sinceSeen   []*time.Time
}

var _ bank.Adapter = (*fakeAdapter)(nil)

func (f *fakeAdapter) InstitutionID() string { return "dkb" }

func (f *fakeAdapter) FetchAccounts(ctx context.Context, creds bank.Credentials) ([]ledger.Account, error) {
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return append([]ledger.Account(nil), f.accounts...), nil
}

func (f *fakeAdapter) FetchTransactions(ctx context.Context, accountID string, creds bank.Credentials, since *time.Time) ([]ledger.Transaction, error) {
	f.mu.Lock()
	f.sinceSeen = append(f.sinceSeen, since)
	f.mu.Unlock()
	if err := f.txErr[accountID]; err != nil {
		return nil, err
	}
	out := make([]ledger.Transaction, 0, len(f.transactions[accountID]))
	for _, tx := range f.transactions[accountID] {
		c := tx
		if tx.Raw != nil {
			c.Raw = make(map[string]string, len(tx.Raw))
			for k, v := range tx.Raw {
				c.Raw[k] = v
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeAdapter) FetchBalance(ctx context.Context, accountID string, creds bank.Credentials) (ledger.Balance, error) {
	amount, ok := f.balances[accountID]
	if !ok {
		return ledger.Balance{}, bank.MalformedError("fake: fetch balance", errors.New("missing balance"))
	}
	return ledger.Balance{AccountID: accountID, Amount: amount, Currency: "EUR", FetchedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}, nil
}

// failingStore fails every write after the first n.
type failingStore struct {
	*MemoryStore
	allowed int
}

func (s *failingStore) Write(ctx context.Context, l ledger.Ledger) error {
	if s.allowed <= 0 {
		return errors.New("disk full")
	}
	s.allowed--
	return s.MemoryStore.Write(ctx, l)
}

func date(s string) time.Time {
	t, err := time.Parse(ledger.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func debit(accountID, day string, amount float64, desc, cp string) ledger.Transaction {
	return ledger.Transaction{
		AccountID:    accountID,
		Date:         date(day),
		Amount:       -amount,
		Currency:     "EUR",
		Description:  desc,
		Counterparty: cp,
		Direction:    ledger.Debit,
	}
}
