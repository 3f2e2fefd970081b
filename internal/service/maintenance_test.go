package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/finsync/internal/ledger"
)

func TestMaintenance_Reclassify(t *testing.T) {
	acct := ledger.Account{ID: "dkb_giro"}
	shell := withID(debit("dkb_giro", "2025-01-03", 61, "Shell Tankstelle", "Shell"))
	shell.Category = ledger.CategoryOther
	transfer := withID(debit("dkb_giro", "2025-01-04", 500, "Umbuchung", "Max"))
	transfer.Category = ledger.CategoryInternalTransfer
	store := NewMemoryStore(ledger.Ledger{Accounts: []ledger.Account{acct}, Transactions: []ledger.Transaction{shell, transfer}})

	custom, err := NewCategorizerWithRules([]CategoryRule{{Category: ledger.CategoryShopping, Keywords: []string{"shell", "umbuchung"}}})
	require.NoError(t, err)
	svc := &MaintenanceService{Store: store, Categorizer: custom}

	writes := store.Writes()
	got, err := svc.Reclassify(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, shell.ID, got[0].TransactionID)
	assert.Equal(t, "2025-01-03", got[0].Date)
	assert.Equal(t, ledger.CategoryOther, got[0].Current)
	assert.Equal(t, ledger.CategoryShopping, got[0].Proposed)

	assert.Equal(t, writes, store.Writes(), "stored transactions are never rewritten")
	l, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ledger.CategoryOther, l.Transactions[0].Category)
	assert.Equal(t, ledger.CategoryInternalTransfer, l.Transactions[1].Category)

	svc.Categorizer = nil
	got, err = svc.Reclassify(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1, "default rules file Shell under Transport")
	assert.Equal(t, ledger.CategoryTransport, got[0].Proposed)

	_, err = (&MaintenanceService{}).Reclassify(context.Background())
	assert.Error(t, err)
}

func TestMaintenance_ResetFallsBackToEmptySnapshot(t *testing.T) {
	store := NewMemoryStore(ledger.Ledger{Accounts: []ledger.Account{{ID: "dkb_giro"}}})
	svc := &MaintenanceService{Store: store}

	require.NoError(t, svc.Reset(context.Background()))
	l, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, l.Accounts)

	assert.Error(t, (&MaintenanceService{}).Reset(context.Background()))
}
