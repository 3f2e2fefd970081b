package ledger

import "fmt"

// Validate checks the ledger invariants: transaction ids are unique and every
// transaction references an account present in the same snapshot.
func (l Ledger) Validate() error {
	accounts := make(map[string]struct{}, len(l.Accounts))
	for _, a := range l.Accounts {
		if a.ID == "" {
			return fmt.Errorf("account with external id %q has empty id", a.ExternalID)
		}
		accounts[a.ID] = struct{}{}
	}
	seen := make(IDSet, len(l.Transactions))
	for _, t := range l.Transactions {
		if t.ID == "" {
			return fmt.Errorf("transaction on %s has empty id", t.DateKey())
		}
		if seen.Has(t.ID) {
			return fmt.Errorf("duplicate transaction id %s", t.ID)
		}
		seen.Add(t.ID)
		if _, ok := accounts[t.AccountID]; !ok {
			return fmt.Errorf("transaction %s references unknown account %q", t.ID, t.AccountID)
		}
	}
	return nil
}
