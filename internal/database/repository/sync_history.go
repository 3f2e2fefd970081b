package repository

import (
	"context"

	"github.com/jask/finsync/internal/database"
	"github.com/jask/finsync/internal/ledger"
)

// SyncHistoryRepo handles the sync audit log.
type SyncHistoryRepo struct {
	db DBTX
}

func NewSyncHistoryRepo(db DBTX) *SyncHistoryRepo { return &SyncHistoryRepo{db: db} }

func (r *SyncHistoryRepo) Insert(ctx context.Context, position int, m ledger.SyncMetadata) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO sync_history(position, run_id, institution_id, last_sync_at, accounts_synced,
	 transactions_fetched, new_transactions, status, error, duration_ms)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		position, m.RunID, m.InstitutionID, database.FormatTime(m.LastSyncAt), m.AccountsSynced,
		m.TransactionsFetched, m.NewTransactions, string(m.Status), m.Error, m.DurationMs)
	return err
}

// List returns the audit log oldest first. A non-empty institution restricts it.
func (r *SyncHistoryRepo) List(ctx context.Context, institution string) ([]ledger.SyncMetadata, error) {
	query := `SELECT run_id, institution_id, last_sync_at, accounts_synced, transactions_fetched,
	 new_transactions, status, error, duration_ms FROM sync_history`
	var args []any
	if institution != "" {
		query += " WHERE institution_id = ?"
		args = append(args, institution)
	}
	query += " ORDER BY position"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.SyncMetadata
	for rows.Next() {
		var m ledger.SyncMetadata
		var last, status string
		if err := rows.Scan(&m.RunID, &m.InstitutionID, &last, &m.AccountsSynced, &m.TransactionsFetched,
			&m.NewTransactions, &status, &m.Error, &m.DurationMs); err != nil {
			return nil, err
		}
		m.Status = ledger.SyncStatus(status)
		if m.LastSyncAt, err = database.ParseTime(last); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SyncHistoryRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sync_history`)
	return err
}
