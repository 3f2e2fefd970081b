// Package stats computes read-only aggregates over a ledger's transactions.
// Every function is pure and safe for concurrent use over immutable input.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/jask/finsync/internal/ledger"
)

// MonthlyFlow is one calendar month's income and expenses.
type MonthlyFlow struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

// CategoryShare is one category's part of total spending.
type CategoryShare struct {
	Category   ledger.Category `json:"category"`
	Amount     float64         `json:"amount"`
	Percentage float64         `json:"percentage"`
}

// DateRange is an inclusive day range. A zero Start or End leaves that side
// open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Round2 rounds to 2 decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MonthlyCashFlow groups transactions by calendar month, ascending.
func MonthlyCashFlow(txs []ledger.Transaction) []MonthlyFlow {
	byMonth := make(map[string]*MonthlyFlow)
	for _, tx := range txs {
		key := tx.MonthKey()
		m, ok := byMonth[key]
		if !ok {
			m = &MonthlyFlow{Month: key}
			byMonth[key] = m
		}
		if tx.IsDebit() {
			m.Expenses += tx.AbsAmount()
		} else {
			m.Income += tx.AbsAmount()
		}
	}
	out := make([]MonthlyFlow, 0, len(byMonth))
	for _, m := range byMonth {
		m.Net = m.Income - m.Expenses
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// CategoryBreakdown sums debit amounts per category, largest first.
// Uncategorized debits count as Other.
func CategoryBreakdown(txs []ledger.Transaction) []CategoryShare {
	byCat := make(map[ledger.Category]float64)
	total := 0.0
	for _, tx := range txs {
		if !tx.IsDebit() {
			continue
		}
		cat := tx.Category
		if cat == "" {
			cat = ledger.CategoryOther
		}
		byCat[cat] += tx.AbsAmount()
		total += tx.AbsAmount()
	}
	out := make([]CategoryShare, 0, len(byCat))
	for cat, amount := range byCat {
		pct := 0.0
		if total > 0 {
			pct = Round2(amount / total * 100)
		}
		out = append(out, CategoryShare{Category: cat, Amount: amount, Percentage: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// DailyAverageSpend divides total debits by the number of days in r. A nil
// range, or an open side of r, falls back to the oldest or newest debit.
// Ranges shorter than a day count as one day.
func DailyAverageSpend(txs []ledger.Transaction, r *DateRange) float64 {
	total := 0.0
	var oldest, newest time.Time
	debits := 0
	for _, tx := range txs {
		if !tx.IsDebit() {
			continue
		}
		total += tx.AbsAmount()
		if debits == 0 || tx.Date.Before(oldest) {
			oldest = tx.Date
		}
		if debits == 0 || tx.Date.After(newest) {
			newest = tx.Date
		}
		debits++
	}
	if debits == 0 {
		return 0
	}
	if r != nil {
		if !r.Start.IsZero() {
			oldest = r.Start
		}
		if !r.End.IsZero() {
			newest = r.End
		}
	}
	days := math.Round(newest.Sub(oldest).Hours() / 24)
	return Round2(total / math.Max(days, 1))
}

// ExpenseVolatility is the population standard deviation of monthly
// expenses. Fewer than two months yield 0.
func ExpenseVolatility(months []MonthlyFlow) float64 {
	if len(months) < 2 {
		return 0
	}
	mean := 0.0
	for _, m := range months {
		mean += m.Expenses
	}
	mean /= float64(len(months))
	variance := 0.0
	for _, m := range months {
		d := m.Expenses - mean
		variance += d * d
	}
	variance /= float64(len(months))
	return Round2(math.Sqrt(variance))
}

// MonthOverMonthTrend is the percentage change of the last month's expenses
// over the month before it.
func MonthOverMonthTrend(months []MonthlyFlow) float64 {
	if len(months) < 2 {
		return 0
	}
	prev := months[len(months)-2].Expenses
	cur := months[len(months)-1].Expenses
	if prev == 0 {
		return 0
	}
	return Round2((cur - prev) / prev * 100)
}

// EmergencyFundCoverage is how many months of average expenses totalBalance
// would cover.
func EmergencyFundCoverage(totalBalance float64, months []MonthlyFlow) float64 {
	if len(months) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range months {
		sum += m.Expenses
	}
	avg := sum / float64(len(months))
	if avg == 0 {
		return 0
	}
	return Round2(totalBalance / avg)
}

// TotalBalance sums the latest balance of every account.
func TotalBalance(l ledger.Ledger) float64 {
	total := 0.0
	for _, b := range l.LatestBalances() {
		total += b.Amount
	}
	return total
}

// Summary bundles every aggregate for one ledger snapshot.
type Summary struct {
	CashFlow              []MonthlyFlow   `json:"cashFlow"`
	Categories            []CategoryShare `json:"categories"`
	DailyAverageSpend     float64         `json:"dailyAverageSpend"`
	ExpenseVolatility     float64         `json:"expenseVolatility"`
	MonthOverMonthTrend   float64         `json:"monthOverMonthTrend"`
	TotalBalance          float64         `json:"totalBalance"`
	EmergencyFundCoverage float64         `json:"emergencyFundCoverage"`
}

// Summarize computes the full Summary. Internal transfers are excluded
// unless includeTransfers is set.
func Summarize(l ledger.Ledger, r *DateRange, includeTransfers bool) Summary {
	txs := l.Transactions
	if !includeTransfers {
		txs = ExcludeTransfers(txs)
	}
	if r != nil {
		txs = InRange(txs, *r)
	}
	flow := MonthlyCashFlow(txs)
	balance := TotalBalance(l)
	return Summary{
		CashFlow:              flow,
		Categories:            CategoryBreakdown(txs),
		DailyAverageSpend:     DailyAverageSpend(txs, r),
		ExpenseVolatility:     ExpenseVolatility(flow),
		MonthOverMonthTrend:   MonthOverMonthTrend(flow),
		TotalBalance:          Round2(balance),
		EmergencyFundCoverage: EmergencyFundCoverage(balance, flow),
	}
}

// ExcludeTransfers drops transactions tagged as internal transfers.
func ExcludeTransfers(txs []ledger.Transaction) []ledger.Transaction {
	out := make([]ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Category == ledger.CategoryInternalTransfer {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// InRange keeps transactions whose date falls within r, compared by day.
func InRange(txs []ledger.Transaction, r DateRange) []ledger.Transaction {
	var start, end string
	if !r.Start.IsZero() {
		start = r.Start.UTC().Format(ledger.DateLayout)
	}
	if !r.End.IsZero() {
		end = r.End.UTC().Format(ledger.DateLayout)
	}
	out := make([]ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		key := tx.Date.UTC().Format(ledger.DateLayout)
		if key < start || (end != "" && key > end) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
