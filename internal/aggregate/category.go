// Package aggregate groups transactions by category and by calendar month.
//
// Every function here is pure: the result depends only on the multiset of
// input transactions, never on their order.
package aggregate

import (
	"errors"
	"sort"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// ErrInvalidLimit is returned by TopCategories when n is not positive.
var ErrInvalidLimit = errors.New("limit must be positive")

// CategoryBreakdown groups txns by exact category string. Each entry carries
// the category total, its share of the grand total (0 when the grand total is
// zero) and the number of records. Entries are ordered by total descending,
// ties broken by category name ascending.
func CategoryBreakdown(txns []core.Transaction) []core.CategoryAggregate {
	byCategory := make(map[string]*core.CategoryAggregate)
	grand := decimal.Zero

	for _, t := range txns {
		agg, ok := byCategory[t.Category]
		if !ok {
			agg = &core.CategoryAggregate{Category: t.Category, Total: decimal.Zero}
			byCategory[t.Category] = agg
		}
		agg.Total = agg.Total.Add(t.Amount)
		agg.Count++
		grand = grand.Add(t.Amount)
	}

	out := make([]core.CategoryAggregate, 0, len(byCategory))
	for _, agg := range byCategory {
		if !grand.IsZero() {
			agg.Percent = agg.Total.Div(grand).InexactFloat64()
		}
		out = append(out, *agg)
	}
	sortByTotal(out)
	return out
}

// TopCategories returns the first min(n, len) entries of CategoryBreakdown.
func TopCategories(txns []core.Transaction, n int) ([]core.CategoryAggregate, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	all := CategoryBreakdown(txns)
	if n < len(all) {
		all = all[:n]
	}
	return all, nil
}

func sortByTotal(aggs []core.CategoryAggregate) {
	sort.Slice(aggs, func(i, j int) bool {
		if c := aggs[i].Total.Cmp(aggs[j].Total); c != 0 {
			return c > 0
		}
		return aggs[i].Category < aggs[j].Category
	})
}
