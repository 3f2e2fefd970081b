package service

import (
	"math"
	"sort"

	"github.com/jask/finsync/internal/ledger"
	"github.com/jask/finsync/internal/stats"
)

const (
	minRecurring      = 3
	amountTolerance   = 0.10
	minMonthlyDays    = 28
	maxMonthlyDays    = 32
	minRegularCadence = 2
)

// RecurringGroup is a cluster of similar-amount transactions from one
// counterparty repeating on a roughly monthly cadence.
type RecurringGroup struct {
	Counterparty    string               `json:"counterparty"`
	Transactions    []ledger.Transaction `json:"transactions"`
	AverageAmount   float64              `json:"averageAmount"`
	AverageInterval float64              `json:"averageInterval"`
	Category        ledger.Category      `json:"category"`
}

type amountCluster struct {
	txs []ledger.Transaction
	sum float64
}

func (c *amountCluster) mean() float64 { return c.sum / float64(len(c.txs)) }

func (c *amountCluster) accepts(amount float64) bool {
	m := c.mean()
	if m == 0 {
		return amount == 0
	}
	return math.Abs(amount-m)/m <= amountTolerance
}

// DetectRecurring finds monthly recurring charges. Only 28 to 32 day
// cadences are recognized; weekly or yearly patterns are never reported.
// A nil categorizer uses the built-in rules.
func DetectRecurring(txs []ledger.Transaction, c *Categorizer) []RecurringGroup {
	if c == nil {
		c = NewCategorizer()
	}
	groups := make(map[string][]ledger.Transaction)
	var order []string
	for _, tx := range txs {
		key := NormalizeName(tx.Counterparty)
		if key == "" {
			continue
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], tx)
	}

	var out []RecurringGroup
	for _, key := range order {
		members := groups[key]
		if len(members) < minRecurring {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool { return members[i].Date.Before(members[j].Date) })

		var clusters []*amountCluster
		for _, tx := range members {
			amount := tx.AbsAmount()
			var target *amountCluster
			for _, cl := range clusters {
				if cl.accepts(amount) {
					target = cl
					break
				}
			}
			if target == nil {
				target = &amountCluster{}
				clusters = append(clusters, target)
			}
			target.txs = append(target.txs, tx)
			target.sum += amount
		}

		for _, cl := range clusters {
			if g, ok := recurringGroup(cl, c); ok {
				out = append(out, g)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Transactions) > len(out[j].Transactions) })
	return out
}

func recurringGroup(cl *amountCluster, c *Categorizer) (RecurringGroup, bool) {
	if len(cl.txs) < minRecurring {
		return RecurringGroup{}, false
	}
	var regular []float64
	for i := 1; i < len(cl.txs); i++ {
		days := math.Round(cl.txs[i].Date.Sub(cl.txs[i-1].Date).Hours() / 24)
		if days >= minMonthlyDays && days <= maxMonthlyDays {
			regular = append(regular, days)
		}
	}
	if len(regular) < minRegularCadence {
		return RecurringGroup{}, false
	}
	interval := 0.0
	for _, d := range regular {
		interval += d
	}
	first := cl.txs[0]
	return RecurringGroup{
		Counterparty:    first.Counterparty,
		Transactions:    cl.txs,
		AverageAmount:   stats.Round2(cl.mean()),
		AverageInterval: stats.Round2(interval / float64(len(regular))),
		Category:        c.ClassifyTransaction(first),
	}, true
}
