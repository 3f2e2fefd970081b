package service

import (
	"context"
	"sync"

	"github.com/jask/finsync/internal/ledger"
)

// LedgerStore persists the whole ledger snapshot. Write must replace the
// stored snapshot atomically.
type LedgerStore interface {
	Read(ctx context.Context) (ledger.Ledger, error)
	Write(ctx context.Context, l ledger.Ledger) error
}

// MemoryStore keeps the ledger in memory. Reads and writes copy.
type MemoryStore struct {
	mu     sync.RWMutex
	ledger ledger.Ledger
	writes int
}

var _ LedgerStore = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with a copy of l.
func NewMemoryStore(l ledger.Ledger) *MemoryStore {
	return &MemoryStore{ledger: l.Clone()}
}

func (m *MemoryStore) Read(ctx context.Context) (ledger.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Ledger{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledger.Clone(), nil
}

func (m *MemoryStore) Write(ctx context.Context, l ledger.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger = l.Clone()
	m.writes++
	return nil
}

// Writes reports how many snapshots were written.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
