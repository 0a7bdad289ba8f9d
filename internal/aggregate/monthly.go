package aggregate

import (
	"sort"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// TransferPolicy decides which expense categories are internal transfers
// rather than spending.
type TransferPolicy interface {
	IsTransfer(category string) bool
}

// MonthlyBreakdown sums txns per calendar month. Periods are the first day of
// the month, in ascending order. Months without records are not emitted.
func MonthlyBreakdown(txns []core.Transaction) []core.MonthlyTotal {
	byMonth := make(map[core.Date]decimal.Decimal)
	for _, t := range txns {
		p := t.Date.MonthStart()
		total, ok := byMonth[p]
		if !ok {
			total = decimal.Zero
		}
		byMonth[p] = total.Add(t.Amount)
	}

	out := make([]core.MonthlyTotal, 0, len(byMonth))
	for p, total := range byMonth {
		out = append(out, core.MonthlyTotal{Period: p, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period.Time) })
	return out
}

// CashFlow combines both collections per month. Expenses the policy marks as
// transfers are reported apart from ExpenseTotal, and
// Net = IncomeTotal - ExpenseTotal + SavingsTransfers, so the monthly nets add
// up to the summary's NetSavings over the same records.
func CashFlow(expenses, income []core.Transaction, policy TransferPolicy) []core.MonthlyAggregate {
	byMonth := make(map[core.Date]*core.MonthlyAggregate)
	bucket := func(d core.Date) *core.MonthlyAggregate {
		p := d.MonthStart()
		m, ok := byMonth[p]
		if !ok {
			m = &core.MonthlyAggregate{
				Period:           p,
				ExpenseTotal:     decimal.Zero,
				IncomeTotal:      decimal.Zero,
				SavingsTransfers: decimal.Zero,
			}
			byMonth[p] = m
		}
		return m
	}

	for _, t := range expenses {
		m := bucket(t.Date)
		if policy != nil && policy.IsTransfer(t.Category) {
			m.SavingsTransfers = m.SavingsTransfers.Add(t.Amount)
		} else {
			m.ExpenseTotal = m.ExpenseTotal.Add(t.Amount)
		}
	}
	for _, t := range income {
		m := bucket(t.Date)
		m.IncomeTotal = m.IncomeTotal.Add(t.Amount)
	}

	out := make([]core.MonthlyAggregate, 0, len(byMonth))
	for _, m := range byMonth {
		m.Net = m.IncomeTotal.Sub(m.ExpenseTotal).Add(m.SavingsTransfers)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period.Time) })
	return out
}
