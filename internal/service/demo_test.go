package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/finsync/internal/bank"
	"github.com/jask/finsync/internal/ledger"
	"github.com/jask/finsync/internal/stats"
	"github.com/jask/finsync/internal/samplebank"
)

func TestSampleBank_EndToEnd(t *testing.T) {
	ctx := context.Background()
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(ledger.Ledger{})
	svc := NewSyncService(store, nil, samplebank.NewBank(42, 6, end))
	svc.Now = func() time.Time { return end }

	meta := svc.Sync(ctx, samplebank.InstitutionID, bank.Credentials{})
	require.Equal(t, ledger.SyncSuccess, meta.Status, meta.Error)
	assert.Equal(t, 2, meta.AccountsSynced)
	assert.Equal(t, meta.TransactionsFetched, meta.NewTransactions)

	again := svc.Sync(ctx, samplebank.InstitutionID, bank.Credentials{})
	require.Equal(t, ledger.SyncSuccess, again.Status)
	assert.Zero(t, again.NewTransactions)

	l, err := store.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, l.Validate())

	var transfers int
	for _, tx := range l.Transactions {
		if tx.Category == ledger.CategoryInternalTransfer {
			transfers++
			assert.Contains(t, tx.Description, "Sparen")
		}
	}
	assert.Equal(t, 12, transfers, "both legs of six monthly transfers")

	groups := DetectRecurring(l.Transactions, nil)
	byName := map[string]RecurringGroup{}
	for _, g := range groups {
		byName[g.Counterparty] = g
	}
	require.Contains(t, byName, "Netflix International B.V.")
	netflix := byName["Netflix International B.V."]
	assert.Len(t, netflix.Transactions, 6)
	assert.Equal(t, 12.99, netflix.AverageAmount)
	assert.Equal(t, ledger.CategorySubscriptions, netflix.Category)
	assert.Contains(t, byName, "Hausverwaltung Schmidt")

	sum := stats.Summarize(l, nil, false)
	assert.Len(t, sum.CashFlow, 6)
	for _, m := range sum.CashFlow {
		assert.Equal(t, 3100.0, m.Income, m.Month)
	}
}
