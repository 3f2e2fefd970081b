package repository

import (
	"context"

	"github.com/jask/finsync/internal/database"
	"github.com/jask/finsync/internal/ledger"
)

// BalanceRepo handles the append-only balance series.
type BalanceRepo struct {
	db DBTX
}

func NewBalanceRepo(db DBTX) *BalanceRepo { return &BalanceRepo{db: db} }

func (r *BalanceRepo) Insert(ctx context.Context, position int, b ledger.Balance) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO balances(position, account_id, amount, currency, fetched_at) VALUES(?, ?, ?, ?, ?)`,
		position, b.AccountID, b.Amount, b.Currency, database.FormatTime(b.FetchedAt))
	return err
}

func (r *BalanceRepo) List(ctx context.Context) ([]ledger.Balance, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT account_id, amount, currency, fetched_at FROM balances ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.Balance
	for rows.Next() {
		var b ledger.Balance
		var fetched string
		if err := rows.Scan(&b.AccountID, &b.Amount, &b.Currency, &fetched); err != nil {
			return nil, err
		}
		if b.FetchedAt, err = database.ParseTime(fetched); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BalanceRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM balances`)
	return err
}
