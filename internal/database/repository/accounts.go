package repository

import (
	"context"
	"database/sql"

	"github.com/jask/finsync/internal/database"
	"github.com/jask/finsync/internal/ledger"
)

// AccountRepo handles accounts.
type AccountRepo struct {
	db DBTX
}

func NewAccountRepo(db DBTX) *AccountRepo {
	return &AccountRepo{db: db}
}

// Upsert stores a at position, the account's index in the ledger.
func (r *AccountRepo) Upsert(ctx context.Context, position int, a ledger.Account) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(id, position, external_id, institution_id, name, account_type, currency, iban, holder_name, last_synced_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 position=excluded.position,
	 external_id=excluded.external_id,
	 institution_id=excluded.institution_id,
	 name=excluded.name,
	 account_type=excluded.account_type,
	 currency=excluded.currency,
	 iban=excluded.iban,
	 holder_name=excluded.holder_name,
	 last_synced_at=excluded.last_synced_at;
	`, a.ID, position, a.ExternalID, a.InstitutionID, a.Name, string(a.Type), a.Currency, a.IBAN, a.HolderName,
		database.NullTime(a.LastSyncedAt))
	return err
}

func (r *AccountRepo) List(ctx context.Context) ([]ledger.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, external_id, institution_id, name, account_type, currency, iban, holder_name, last_synced_at
	FROM accounts ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.Account
	for rows.Next() {
		var a ledger.Account
		var typ string
		var synced sql.NullString
		if err := rows.Scan(&a.ID, &a.ExternalID, &a.InstitutionID, &a.Name, &typ, &a.Currency, &a.IBAN, &a.HolderName, &synced); err != nil {
			return nil, err
		}
		a.Type = ledger.AccountType(typ)
		if a.LastSyncedAt, err = database.ParseNullTime(synced); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AccountRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts`)
	return err
}
