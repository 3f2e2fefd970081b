package service

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/jask/finsync/internal/ledger"
)

const (
	duplicateWindowDays = 7
	duplicateMaxRatio   = 0.4
)

// PossibleDuplicate pairs two distinct transactions that look like the same
// booking seen twice, e.g. through the API and a CSV import.
type PossibleDuplicate struct {
	A          ledger.Transaction `json:"a"`
	B          ledger.Transaction `json:"b"`
	DaysApart  int                `json:"daysApart"`
	Similarity float64            `json:"similarity"`
}

// FindPossibleDuplicates reports pairs with equal amounts at most a week
// apart whose descriptions are close by edit distance. Nothing is merged;
// identity-equal transactions never reach the ledger twice in the first place.
func FindPossibleDuplicates(txs []ledger.Transaction) []PossibleDuplicate {
	sorted := append([]ledger.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var out []PossibleDuplicate
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			days := daysApart(a.Date, b.Date)
			if days > duplicateWindowDays {
				break
			}
			if a.ID == b.ID || cents(a.Amount) != cents(b.Amount) {
				continue
			}
			ratio := descriptionDistance(a.Description, b.Description)
			if ratio >= duplicateMaxRatio {
				continue
			}
			out = append(out, PossibleDuplicate{A: a, B: b, DaysApart: days, Similarity: 1 - ratio})
		}
	}
	return out
}

func cents(amount float64) int64 { return int64(math.Round(amount * 100)) }

func descriptionDistance(a, b string) float64 {
	a, b = strings.ToUpper(strings.TrimSpace(a)), strings.ToUpper(strings.TrimSpace(b))
	maxlen := max(len(a), len(b))
	if maxlen == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(maxlen)
}

func daysApart(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}
