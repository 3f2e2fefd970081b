// Package samplebank generates a deterministic sample bank for demos and tests.
package samplebank

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jask/finsync/internal/bank"
	"github.com/jask/finsync/internal/ledger"
)

const (
	// InstitutionID of the sample bank.
	InstitutionID = "demo"
	// Holder owns every sample account.
	Holder = "Max Mustermann"
)

var (
	GiroID    = ledger.AccountID(InstitutionID, "giro")
	SavingsID = ledger.AccountID(InstitutionID, "tagesgeld")
)

// Bank is an in-memory adapter serving months of generated history.
type Bank struct {
	accounts     []ledger.Account
	transactions map[string][]ledger.Transaction
	balances     map[string]float64
	now          time.Time
}

var _ bank.Adapter = (*Bank)(nil)

type merchant struct {
	name, description string
	min, max          float64
}

var (
	groceries = []merchant{
		{"REWE Markt GmbH", "Kartenzahlung REWE", 15, 90},
		{"EDEKA Center", "Kartenzahlung EDEKA", 10, 70},
		{"Lidl Dienstleistung", "Kartenzahlung Lidl", 8, 45},
	}
	dining = []merchant{
		{"Lieferando.de", "Bestellung Lieferando", 18, 42},
		{"Cafe Mitte", "Kartenzahlung Cafe Mitte", 4, 12},
	}
	fuel = []merchant{
		{"Shell Deutschland Oil", "Shell Tankstelle", 45, 85},
		{"Aral AG", "Aral Tankstelle", 40, 80},
	}
)

// NewBank generates months of history ending at end. The same seed always
// yields the same data.
func NewBank(seed uint64, months int, end time.Time) *Bank {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	b := &Bank{
		accounts: []ledger.Account{
			{ID: GiroID, ExternalID: "giro", InstitutionID: InstitutionID, Name: "Girokonto", Type: ledger.AccountChecking,
				Currency: "EUR", IBAN: "DE02120300000000202051", HolderName: Holder},
			{ID: SavingsID, ExternalID: "tagesgeld", InstitutionID: InstitutionID, Name: "Tagesgeld", Type: ledger.AccountSavings,
				Currency: "EUR", IBAN: "DE02120300000000202099", HolderName: Holder},
		},
		transactions: map[string][]ledger.Transaction{},
		balances:     map[string]float64{},
		now:          end,
	}

	first := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	giro, savings := 1500.0, 5000.0
	for m := 0; m < months; m++ {
		month := first.AddDate(0, m, 0)
		add := func(accountID string, day int, amount float64, desc, creditor, debtor string) {
			date := month.AddDate(0, 0, day-1)
			if date.After(end) || date.Month() != month.Month() {
				return
			}
			amount = cents(amount)
			b.transactions[accountID] = append(b.transactions[accountID], transaction(accountID, date, amount, desc, creditor, debtor))
			if accountID == GiroID {
				giro += amount
			} else {
				savings += amount
			}
		}
		label := month.Format("01/2006")

		add(GiroID, 1, 3100, "Gehalt "+label, Holder, "ACME GmbH")
		add(GiroID, 2, -500, "Sparen "+label, Holder, Holder)
		add(SavingsID, 2, 500, "Sparen "+label, Holder, Holder)
		add(GiroID, 3, -950, "Miete "+label, "Hausverwaltung Schmidt", Holder)
		add(GiroID, 15, -12.99, "Netflix Monatsabo", "Netflix International B.V.", Holder)
		add(GiroID, 20, -10.99, "Spotify Premium", "Spotify AB", Holder)
		add(GiroID, 25, -float64(55+rng.IntN(40)), "Abschlag Strom "+label, "Stadtwerke Berlin", Holder)

		for _, set := range []struct {
			merchants []merchant
			min, max  int
		}{{groceries, 6, 10}, {dining, 2, 5}, {fuel, 1, 2}} {
			n := set.min + rng.IntN(set.max-set.min+1)
			for i := 0; i < n; i++ {
				mc := set.merchants[rng.IntN(len(set.merchants))]
				amount := mc.min + rng.Float64()*(mc.max-mc.min)
				add(GiroID, 4+rng.IntN(24), -amount, mc.description, mc.name, Holder)
			}
		}
	}
	b.balances[GiroID] = cents(giro)
	b.balances[SavingsID] = cents(savings)
	return b
}

func transaction(accountID string, date time.Time, amount float64, desc, creditor, debtor string) ledger.Transaction {
	direction := ledger.DirectionFor(amount)
	counterparty := debtor
	if direction == ledger.Debit {
		counterparty = creditor
	}
	booking := date
	return ledger.Transaction{
		AccountID:    accountID,
		Date:         date,
		BookingDate:  &booking,
		Amount:       amount,
		Currency:     "EUR",
		Description:  desc,
		Counterparty: counterparty,
		Direction:    direction,
		Raw: map[string]string{
			ledger.RawSource:       InstitutionID,
			ledger.RawCreditorName: creditor,
			ledger.RawDebtorName:   debtor,
		},
	}
}

func cents(v float64) float64 { return math.Round(v*100) / 100 }

func (b *Bank) InstitutionID() string { return InstitutionID }

func (b *Bank) FetchAccounts(ctx context.Context, creds bank.Credentials) ([]ledger.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, bank.NetworkError("demo: fetch accounts", err)
	}
	return append([]ledger.Account(nil), b.accounts...), nil
}

func (b *Bank) FetchTransactions(ctx context.Context, accountID string, creds bank.Credentials, since *time.Time) ([]ledger.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, bank.NetworkError("demo: fetch transactions", err)
	}
	txs, ok := b.transactions[accountID]
	if !ok {
		return nil, bank.MalformedError("demo: fetch transactions", fmt.Errorf("unknown account %q", accountID))
	}
	out := make([]ledger.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = tx
		out[i].Raw = make(map[string]string, len(tx.Raw))
		for k, v := range tx.Raw {
			out[i].Raw[k] = v
		}
	}
	return bank.FilterSince(out, since), nil
}

func (b *Bank) FetchBalance(ctx context.Context, accountID string, creds bank.Credentials) (ledger.Balance, error) {
	amount, ok := b.balances[accountID]
	if !ok {
		return ledger.Balance{}, bank.MalformedError("demo: fetch balance", fmt.Errorf("unknown account %q", accountID))
	}
	return ledger.Balance{AccountID: accountID, Amount: amount, Currency: "EUR", FetchedAt: b.now}, nil
}
