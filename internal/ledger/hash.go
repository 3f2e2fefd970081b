package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionID is the content-addressed identity of a transaction: a sha256
// over the pipe-joined account, day, amount, description and counterparty.
// Two transactions equal in these five fields are the same transaction.
func TransactionID(accountID string, date time.Time, amount float64, description, counterparty string) string {
	joined := strings.Join([]string{
		accountID,
		date.Format(DateLayout),
		canonicalAmount(amount),
		description,
		counterparty,
	}, "|")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

// canonicalAmount renders the shortest decimal form, e.g. 12.99, -5, 0.1.
func canonicalAmount(amount float64) string {
	return decimal.NewFromFloat(amount).String()
}

// Identity computes the id t would have from its identity fields.
func (t Transaction) Identity() string {
	return TransactionID(t.AccountID, t.Date, t.Amount, t.Description, t.Counterparty)
}

// AssignID sets t.ID from its identity fields when it is empty.
func (t *Transaction) AssignID() {
	if t.ID == "" {
		t.ID = t.Identity()
	}
}

// IDSet is the accumulator of transaction ids already present in a ledger.
type IDSet map[string]struct{}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id string) { s[id] = struct{}{} }
