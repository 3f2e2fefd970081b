package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jask/finsync/internal/database"
	"github.com/jask/finsync/internal/ledger"
)

// TransactionFilters defines list filters.
type TransactionFilters struct {
	AccountID string
	Category  ledger.Category
	Month     time.Time // any day of the month; zero time = no month filter
	Search    string
	Limit     int
}

// TransactionRepo handles transactions.
type TransactionRepo struct {
	db DBTX
}

func NewTransactionRepo(db DBTX) *TransactionRepo { return &TransactionRepo{db: db} }

const transactionColumns = `id, account_id, date, booking_date, amount, currency, description, counterparty, category, direction, raw`

func (r *TransactionRepo) Insert(ctx context.Context, position int, t ledger.Transaction) error {
	var raw sql.NullString
	if len(t.Raw) > 0 {
		b, err := json.Marshal(t.Raw)
		if err != nil {
			return fmt.Errorf("encode raw of %s: %w", t.ID, err)
		}
		raw = sql.NullString{String: string(b), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(`+transactionColumns+`, position)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
		t.ID, t.AccountID, database.FormatTime(t.Date), database.NullTime(t.BookingDate), t.Amount, t.Currency,
		t.Description, t.Counterparty, string(t.Category), string(t.Direction), raw, position)
	return err
}

// All returns every transaction in ledger order.
func (r *TransactionRepo) All(ctx context.Context) ([]ledger.Transaction, error) {
	return r.query(ctx, "SELECT "+transactionColumns+" FROM transactions ORDER BY position")
}

// List returns matching transactions, newest first.
func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]ledger.Transaction, error) {
	var where []string
	var args []any

	if f.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if !f.Month.IsZero() {
		where = append(where, "substr(date, 1, 7) = ?")
		args = append(args, f.Month.Format("2006-01"))
	}
	if f.Search != "" {
		where = append(where, "(description LIKE ? OR counterparty LIKE ?)")
		args = append(args, "%"+f.Search+"%", "%"+f.Search+"%")
	}

	query := "SELECT " + transactionColumns + " FROM transactions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, position DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return r.query(ctx, query, args...)
}

func (r *TransactionRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n)
	return n, err
}

func (r *TransactionRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions`)
	return err
}

func (r *TransactionRepo) query(ctx context.Context, query string, args ...any) ([]ledger.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(rows *sql.Rows) (ledger.Transaction, error) {
	var t ledger.Transaction
	var date, category, direction string
	var booking, raw sql.NullString
	if err := rows.Scan(&t.ID, &t.AccountID, &date, &booking, &t.Amount, &t.Currency,
		&t.Description, &t.Counterparty, &category, &direction, &raw); err != nil {
		return t, err
	}
	var err error
	if t.Date, err = database.ParseTime(date); err != nil {
		return t, err
	}
	if t.BookingDate, err = database.ParseNullTime(booking); err != nil {
		return t, err
	}
	t.Category = ledger.Category(category)
	t.Direction = ledger.Direction(direction)
	if raw.Valid && raw.String != "" {
		if err := json.Unmarshal([]byte(raw.String), &t.Raw); err != nil {
			return t, fmt.Errorf("decode raw of %s: %w", t.ID, err)
		}
	}
	return t, nil
}
