package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestTransactionIDDeterministic(t *testing.T) {
	t.Parallel()
	a := TransactionID("dkb_1", day("2025-01-01"), -12.99, "NETFLIX.COM", "Netflix International")
	b := TransactionID("dkb_1", day("2025-01-01"), -12.99, "NETFLIX.COM", "Netflix International")
	require.Equal(t, a, b)
	require.Len(t, a, 64)
}

func TestTransactionIDChangesWithEachField(t *testing.T) {
	t.Parallel()
	base := TransactionID("dkb_1", day("2025-01-01"), -12.99, "NETFLIX.COM", "Netflix International")
	variants := map[string]string{
		"account":      TransactionID("dkb_2", day("2025-01-01"), -12.99, "NETFLIX.COM", "Netflix International"),
		"date":         TransactionID("dkb_1", day("2025-01-02"), -12.99, "NETFLIX.COM", "Netflix International"),
		"amount":       TransactionID("dkb_1", day("2025-01-01"), -12.98, "NETFLIX.COM", "Netflix International"),
		"description":  TransactionID("dkb_1", day("2025-01-01"), -12.99, "NETFLIX.DE", "Netflix International"),
		"counterparty": TransactionID("dkb_1", day("2025-01-01"), -12.99, "NETFLIX.COM", "Netflix"),
	}
	seen := map[string]string{base: "base"}
	for name, h := range variants {
		prev, dup := seen[h]
		require.False(t, dup, "%s collides with %s", name, prev)
		seen[h] = name
	}
}

func TestTransactionIdentityIgnoresRawAndCategory(t *testing.T) {
	t.Parallel()
	a := Transaction{AccountID: "dkb_1", Date: day("2025-03-01"), Amount: -50, Description: "Miete", Counterparty: "Hausverwaltung",
		Raw: map[string]string{RawSource: "api"}}
	b := a
	b.Raw = map[string]string{RawSource: "csv", "extra": "x"}
	b.Category = CategoryRent
	a.AssignID()
	b.AssignID()
	require.Equal(t, a.ID, b.ID)

	c := a
	c.ID = ""
	c.Amount = -50.01
	c.AssignID()
	require.NotEqual(t, a.ID, c.ID)
}

func TestAssignIDKeepsExisting(t *testing.T) {
	t.Parallel()
	tx := Transaction{ID: "given", AccountID: "a", Date: day("2025-01-01")}
	tx.AssignID()
	require.Equal(t, "given", tx.ID)
}

func TestCanonicalAmount(t *testing.T) {
	t.Parallel()
	cases := map[float64]string{
		12.99: "12.99",
		-5:    "-5",
		0.1:   "0.1",
		1000:  "1000",
		-0.5:  "-0.5",
	}
	for in, want := range cases {
		require.Equal(t, want, canonicalAmount(in))
	}
}
