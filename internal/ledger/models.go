// Package ledger holds the institution-agnostic schema every bank source is
// normalized into, plus the content-addressed transaction identity.
package ledger

import (
	"math"
	"sort"
	"time"
)

// AccountType is the closed set of account kinds.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCredit     AccountType = "credit"
	AccountInvestment AccountType = "investment"
)

// Direction of money movement relative to the account.
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

// SyncStatus is the outcome of one orchestrated sync attempt.
type SyncStatus string

const (
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
	SyncPartial SyncStatus = "partial"
)

// Raw payload keys adapters and the transfer detector agree on.
const (
	RawCreditorName     = "creditorName"
	RawDebtorName       = "debtorName"
	RawInternalTransfer = "internalTransfer"
	RawSource           = "source"
)

// DateLayout is the calendar-day form used for identity and grouping.
const DateLayout = "2006-01-02"

// Account is created on the first sync of an institution account and updated
// on every later one. The engine never deletes accounts.
type Account struct {
	ID            string      `json:"id"`
	ExternalID    string      `json:"externalId"`
	InstitutionID string      `json:"institutionId"`
	Name          string      `json:"name"`
	Type          AccountType `json:"type"`
	Currency      string      `json:"currency"`
	IBAN          string      `json:"iban,omitempty"`
	HolderName    string      `json:"holderName,omitempty"`
	LastSyncedAt  *time.Time  `json:"lastSyncedAt,omitempty"`
}

// Transaction amounts are signed: negative is a debit, positive a credit.
type Transaction struct {
	ID           string            `json:"id"`
	AccountID    string            `json:"accountId"`
	Date         time.Time         `json:"date"`
	BookingDate  *time.Time        `json:"bookingDate,omitempty"`
	Amount       float64           `json:"amount"`
	Currency     string            `json:"currency"`
	Description  string            `json:"description"`
	Counterparty string            `json:"counterparty"`
	Category     Category          `json:"category,omitempty"`
	Direction    Direction         `json:"direction"`
	Raw          map[string]string `json:"raw,omitempty"`
}

// Balance is one observation in an append-only per-account time series.
type Balance struct {
	AccountID string    `json:"accountId"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// SyncMetadata is the audit record appended for every sync attempt.
type SyncMetadata struct {
	RunID               string     `json:"runId"`
	InstitutionID       string     `json:"institutionId"`
	LastSyncAt          time.Time  `json:"lastSyncAt"`
	AccountsSynced      int        `json:"accountsSynced"`
	TransactionsFetched int        `json:"transactionsFetched"`
	NewTransactions     int        `json:"newTransactions"`
	Status              SyncStatus `json:"status"`
	Error               string     `json:"error,omitempty"`
	DurationMs          int64      `json:"durationMs"`
}

// Ledger is the aggregate persisted state.
type Ledger struct {
	Accounts     []Account      `json:"accounts"`
	Transactions []Transaction  `json:"transactions"`
	Balances     []Balance      `json:"balances"`
	SyncHistory  []SyncMetadata `json:"syncHistory"`
}

// AccountID builds the synthetic account key "<institution>_<externalId>".
func AccountID(institutionID, externalID string) string {
	return institutionID + "_" + externalID
}

// DirectionFor derives the direction from the sign of amount. Zero counts as a credit.
func DirectionFor(amount float64) Direction {
	if amount < 0 {
		return Debit
	}
	return Credit
}

// AbsAmount is the unsigned amount.
func (t Transaction) AbsAmount() float64 { return math.Abs(t.Amount) }

// DateKey renders Date as YYYY-MM-DD.
func (t Transaction) DateKey() string { return t.Date.Format(DateLayout) }

// MonthKey renders Date as YYYY-MM.
func (t Transaction) MonthKey() string { return t.Date.Format("2006-01") }

// IsDebit reports whether the transaction moves money out of the account.
func (t Transaction) IsDebit() bool {
	if t.Direction != "" {
		return t.Direction == Debit
	}
	return t.Amount < 0
}

// Clone returns a deep copy so callers can mutate freely.
func (l Ledger) Clone() Ledger {
	out := Ledger{
		Accounts:     make([]Account, len(l.Accounts)),
		Transactions: make([]Transaction, len(l.Transactions)),
		Balances:     append([]Balance(nil), l.Balances...),
		SyncHistory:  append([]SyncMetadata(nil), l.SyncHistory...),
	}
	for i, a := range l.Accounts {
		if a.LastSyncedAt != nil {
			ts := *a.LastSyncedAt
			a.LastSyncedAt = &ts
		}
		out.Accounts[i] = a
	}
	for i, t := range l.Transactions {
		out.Transactions[i] = t.clone()
	}
	return out
}

func (t Transaction) clone() Transaction {
	if t.BookingDate != nil {
		bd := *t.BookingDate
		t.BookingDate = &bd
	}
	if t.Raw != nil {
		raw := make(map[string]string, len(t.Raw))
		for k, v := range t.Raw {
			raw[k] = v
		}
		t.Raw = raw
	}
	return t
}

// AccountByID returns the account with id, if present.
func (l Ledger) AccountByID(id string) (Account, bool) {
	for _, a := range l.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

// UpsertAccount inserts a, or updates the stored record in place. Empty
// optional fields on a do not erase values already known.
func (l *Ledger) UpsertAccount(a Account) {
	for i := range l.Accounts {
		cur := &l.Accounts[i]
		if cur.ID != a.ID {
			continue
		}
		cur.ExternalID = a.ExternalID
		cur.InstitutionID = a.InstitutionID
		cur.Name = a.Name
		cur.Type = a.Type
		cur.Currency = a.Currency
		if a.IBAN != "" {
			cur.IBAN = a.IBAN
		}
		if a.HolderName != "" {
			cur.HolderName = a.HolderName
		}
		if a.LastSyncedAt != nil {
			cur.LastSyncedAt = a.LastSyncedAt
		}
		return
	}
	l.Accounts = append(l.Accounts, a)
}

// TransactionIDs returns the set of persisted transaction ids.
func (l Ledger) TransactionIDs() IDSet {
	set := make(IDSet, len(l.Transactions))
	for _, t := range l.Transactions {
		set.Add(t.ID)
	}
	return set
}

// LastSuccessfulSync returns the lastSyncAt of the most recent successful sync
// of institutionID, or nil if there was none.
func (l Ledger) LastSuccessfulSync(institutionID string) *time.Time {
	var last *time.Time
	for _, m := range l.SyncHistory {
		if m.InstitutionID != institutionID || m.Status != SyncSuccess {
			continue
		}
		if last == nil || m.LastSyncAt.After(*last) {
			ts := m.LastSyncAt
			last = &ts
		}
	}
	return last
}

// BalancesFor returns the balance series of accountID, oldest first.
func (l Ledger) BalancesFor(accountID string) []Balance {
	var out []Balance
	for _, b := range l.Balances {
		if b.AccountID == accountID {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FetchedAt.Before(out[j].FetchedAt) })
	return out
}

// LatestBalances returns the newest observation per account.
func (l Ledger) LatestBalances() []Balance {
	latest := map[string]Balance{}
	var order []string
	for _, b := range l.Balances {
		cur, ok := latest[b.AccountID]
		if !ok {
			order = append(order, b.AccountID)
		}
		if !ok || !b.FetchedAt.Before(cur.FetchedAt) {
			latest[b.AccountID] = b
		}
	}
	out := make([]Balance, 0, len(order))
	for _, id := range order {
		out = append(out, latest[id])
	}
	return out
}
