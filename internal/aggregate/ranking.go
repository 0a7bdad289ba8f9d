package aggregate

import (
	"fmt"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// OtherLabel names the bucket FoldTail folds the tail into.
const OtherLabel = "Other"

// FoldTail keeps the first n entries of a sorted breakdown and merges the rest
// into one entry named label. Percentages of the merged entries are added up.
// The result is unchanged when it already has n+1 entries or fewer.
func FoldTail(aggs []core.CategoryAggregate, n int, label string) ([]core.CategoryAggregate, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	if len(aggs) <= n+1 {
		out := make([]core.CategoryAggregate, len(aggs))
		copy(out, aggs)
		return out, nil
	}

	out := make([]core.CategoryAggregate, n, n+1)
	copy(out, aggs[:n])
	rest := core.CategoryAggregate{Category: label, Total: decimal.Zero}
	for _, a := range aggs[n:] {
		rest.Total = rest.Total.Add(a.Total)
		rest.Percent += a.Percent
		rest.Count += a.Count
	}
	return append(out, rest), nil
}

// Legend renders one label per entry, e.g. "Food: $50.00 (40.0%)".
func Legend(aggs []core.CategoryAggregate) []string {
	labels := make([]string, len(aggs))
	for i, a := range aggs {
		labels[i] = fmt.Sprintf("%s: %s (%s)", a.Category, core.FormatUSD(a.Total), core.FormatPercent(a.Percent))
	}
	return labels
}
