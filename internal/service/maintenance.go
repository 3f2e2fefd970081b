package service

import (
	"context"
	"fmt"

	"github.com/jask/finsync/internal/ledger"
)

// MaintenanceService houses destructive and bulk actions surfaced through the CLI.
type MaintenanceService struct {
	Store       LedgerStore
	Categorizer *Categorizer
}

type resetter interface {
	Reset(ctx context.Context) error
}

// Reset wipes all user data. It keeps the schema intact so the app can continue running.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.Store == nil {
		return fmt.Errorf("maintenance: store not configured")
	}
	if r, ok := s.Store.(resetter); ok {
		return r.Reset(ctx)
	}
	return s.Store.Write(ctx, ledger.Ledger{})
}

// Reclassification is a category the current rules would assign to a
// stored transaction.
type Reclassification struct {
	TransactionID string          `json:"transactionId"`
	Date          string          `json:"date"`
	Description   string          `json:"description"`
	Current       ledger.Category `json:"current"`
	Proposed      ledger.Category `json:"proposed"`
}

// Reclassify reruns the categorizer over every stored transaction, for
// example after the rule file changed, and reports where the result differs.
// Stored transactions are immutable, so nothing is written. Internal
// transfers are skipped.
func (s *MaintenanceService) Reclassify(ctx context.Context) ([]Reclassification, error) {
	if s.Store == nil {
		return nil, fmt.Errorf("maintenance: store not configured")
	}
	c := s.Categorizer
	if c == nil {
		c = NewCategorizer()
	}
	l, err := s.Store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	var out []Reclassification
	for _, tx := range l.Transactions {
		if tx.Category == ledger.CategoryInternalTransfer {
			continue
		}
		if cat := c.ClassifyTransaction(tx); cat != tx.Category {
			out = append(out, Reclassification{
				TransactionID: tx.ID,
				Date:          tx.DateKey(),
				Description:   tx.Description,
				Current:       tx.Category,
				Proposed:      cat,
			})
		}
	}
	return out, nil
}
