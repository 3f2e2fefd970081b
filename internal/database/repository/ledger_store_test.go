package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/finsync/internal/database"
	"github.com/jask/finsync/internal/ledger"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "finsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = database.Migrate(db, "../migrations")
	require.NoError(t, err)
	return db
}

func day(s string) time.Time {
	t, err := time.Parse(ledger.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleLedger() ledger.Ledger {
	synced := time.Date(2025, 2, 1, 9, 30, 0, 123456789, time.UTC)
	booked := day("2025-01-02")
	rewe := ledger.Transaction{
		AccountID: "dkb_giro", Date: booked, BookingDate: &booked, Amount: -54.2, Currency: "EUR",
		Description: "Kartenzahlung", Counterparty: "REWE Markt GmbH", Category: ledger.CategoryGroceries,
		Direction: ledger.Debit, Raw: map[string]string{ledger.RawCreditorName: "REWE Markt GmbH", ledger.RawSource: "dkb-api"},
	}
	rewe.AssignID()
	salary := ledger.Transaction{
		AccountID: "dkb_giro", Date: day("2025-01-31"), Amount: 3100, Currency: "EUR",
		Description: "Gehalt", Counterparty: "ACME GmbH", Category: ledger.CategoryIncome, Direction: ledger.Credit,
	}
	salary.AssignID()
	return ledger.Ledger{
		Accounts: []ledger.Account{
			{ID: "dkb_giro", ExternalID: "giro", InstitutionID: "dkb", Name: "Girokonto", Type: ledger.AccountChecking,
				Currency: "EUR", IBAN: "DE02120300000000202051", HolderName: "Max Mustermann", LastSyncedAt: &synced},
			{ID: "dkb_tg", ExternalID: "tg", InstitutionID: "dkb", Name: "Tagesgeld", Type: ledger.AccountSavings, Currency: "EUR"},
		},
		Transactions: []ledger.Transaction{rewe, salary},
		Balances: []ledger.Balance{
			{AccountID: "dkb_giro", Amount: 1200.5, Currency: "EUR", FetchedAt: synced},
			{AccountID: "dkb_tg", Amount: 8000, Currency: "EUR", FetchedAt: synced},
		},
		SyncHistory: []ledger.SyncMetadata{
			{RunID: "01J0000000000000000000000", InstitutionID: "dkb", LastSyncAt: synced, AccountsSynced: 2,
				TransactionsFetched: 2, NewTransactions: 2, Status: ledger.SyncSuccess, DurationMs: 840},
			{RunID: "01J0000000000000000000001", InstitutionID: "dkb", LastSyncAt: synced.Add(time.Hour),
				Status: ledger.SyncError, Error: "dkb: fetch accounts: auth (status 401)"},
		},
	}
}

func TestLedgerStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(openTestDB(t))

	empty, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Accounts)
	assert.Empty(t, empty.Transactions)

	want := sampleLedger()
	require.NoError(t, store.Write(ctx, want))

	got, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	for _, tx := range got.Transactions {
		assert.Equal(t, tx.Identity(), tx.ID, "amounts survive storage exactly")
	}
}

func TestLedgerStore_WriteReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(openTestDB(t))
	l := sampleLedger()
	require.NoError(t, store.Write(ctx, l))

	l.Transactions = l.Transactions[:1]
	l.Accounts[1].Name = "Tagesgeld Plus"
	require.NoError(t, store.Write(ctx, l))

	got, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Transactions, 1)
	assert.Equal(t, "Tagesgeld Plus", got.Accounts[1].Name)
}

func TestLedgerStore_InvalidWriteKeepsPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(openTestDB(t))
	require.NoError(t, store.Write(ctx, sampleLedger()))

	bad := sampleLedger()
	bad.Transactions = append(bad.Transactions, bad.Transactions[0])
	require.Error(t, store.Write(ctx, bad))

	orphan := sampleLedger()
	orphan.Balances = append(orphan.Balances, ledger.Balance{AccountID: "dkb_gone", FetchedAt: day("2025-01-01")})
	require.Error(t, store.Write(ctx, orphan), "foreign keys reject balances of unknown accounts")

	got, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleLedger(), got)
}

func TestLedgerStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(openTestDB(t))
	require.NoError(t, store.Write(ctx, sampleLedger()))

	require.NoError(t, store.Reset(ctx))
	got, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.Ledger{}, got)
}

func TestTransactionRepo_List(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, NewLedgerStore(db).Write(ctx, sampleLedger()))
	repo := NewTransactionRepo(db)

	tests := []struct {
		name  string
		f     TransactionFilters
		descs []string
	}{
		{"all newest first", TransactionFilters{}, []string{"Gehalt", "Kartenzahlung"}},
		{"by category", TransactionFilters{Category: ledger.CategoryGroceries}, []string{"Kartenzahlung"}},
		{"by month", TransactionFilters{Month: day("2025-01-15")}, []string{"Gehalt", "Kartenzahlung"}},
		{"other month", TransactionFilters{Month: day("2025-02-01")}, nil},
		{"search counterparty", TransactionFilters{Search: "acme"}, []string{"Gehalt"}},
		{"by account", TransactionFilters{AccountID: "dkb_tg"}, nil},
		{"limit", TransactionFilters{Limit: 1}, []string{"Gehalt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.f)
			require.NoError(t, err)
			var descs []string
			for _, tx := range got {
				descs = append(descs, tx.Description)
			}
			assert.Equal(t, tt.descs, descs)
		})
	}

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSyncHistoryRepo_ListByInstitution(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	l := sampleLedger()
	l.SyncHistory = append(l.SyncHistory, ledger.SyncMetadata{RunID: "x", InstitutionID: "n26", LastSyncAt: day("2025-03-01"), Status: ledger.SyncSuccess})
	require.NoError(t, NewLedgerStore(db).Write(ctx, l))

	got, err := NewSyncHistoryRepo(db).List(ctx, "n26")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].RunID)
}
