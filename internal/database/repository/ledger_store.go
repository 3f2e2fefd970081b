package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/finsync/internal/database"
	"github.com/jask/finsync/internal/ledger"
)

// LedgerStore persists whole ledger snapshots in sqlite.
type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore { return &LedgerStore{db: db} }

// Read loads the snapshot inside one read transaction.
func (s *LedgerStore) Read(ctx context.Context) (ledger.Ledger, error) {
	var l ledger.Ledger
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		if l.Accounts, err = NewAccountRepo(tx).List(ctx); err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		if l.Transactions, err = NewTransactionRepo(tx).All(ctx); err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		if l.Balances, err = NewBalanceRepo(tx).List(ctx); err != nil {
			return fmt.Errorf("list balances: %w", err)
		}
		if l.SyncHistory, err = NewSyncHistoryRepo(tx).List(ctx, ""); err != nil {
			return fmt.Errorf("list sync history: %w", err)
		}
		return nil
	})
	return l, err
}

// Write validates l and replaces the stored snapshot in one transaction.
func (s *LedgerStore) Write(ctx context.Context, l ledger.Ledger) error {
	if err := l.Validate(); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := clearAll(ctx, tx); err != nil {
			return err
		}
		accounts := NewAccountRepo(tx)
		for i, a := range l.Accounts {
			if err := accounts.Upsert(ctx, i, a); err != nil {
				return fmt.Errorf("write account %s: %w", a.ID, err)
			}
		}
		txs := NewTransactionRepo(tx)
		for i, t := range l.Transactions {
			if err := txs.Insert(ctx, i, t); err != nil {
				return fmt.Errorf("write transaction %s: %w", t.ID, err)
			}
		}
		balances := NewBalanceRepo(tx)
		for i, b := range l.Balances {
			if err := balances.Insert(ctx, i, b); err != nil {
				return fmt.Errorf("write balance of %s: %w", b.AccountID, err)
			}
		}
		history := NewSyncHistoryRepo(tx)
		for i, m := range l.SyncHistory {
			if err := history.Insert(ctx, i, m); err != nil {
				return fmt.Errorf("write sync history: %w", err)
			}
		}
		return nil
	})
}

// Reset wipes all user data. The schema stays intact.
func (s *LedgerStore) Reset(ctx context.Context) error {
	if err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return clearAll(ctx, tx)
	}); err != nil {
		return err
	}
	_, _ = s.db.ExecContext(ctx, "VACUUM")
	return nil
}

// clearAll deletes children before the accounts they reference.
func clearAll(ctx context.Context, tx DBTX) error {
	steps := []struct {
		table string
		del   func(context.Context) error
	}{
		{"sync_history", NewSyncHistoryRepo(tx).DeleteAll},
		{"balances", NewBalanceRepo(tx).DeleteAll},
		{"transactions", NewTransactionRepo(tx).DeleteAll},
		{"accounts", NewAccountRepo(tx).DeleteAll},
	}
	for _, s := range steps {
		if err := s.del(ctx); err != nil {
			return fmt.Errorf("reset table %s: %w", s.table, err)
		}
	}
	return nil
}
