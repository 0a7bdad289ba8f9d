// Package export writes budget reports to external sinks as plain tables.
package export

import (
	"sort"
	"strconv"

	"fintrack/internal/aggregate"
	"fintrack/internal/budget"
	"fintrack/internal/core"
)

// Table names, in the order Tables returns them.
const (
	TableSummary           = "summary"
	TableExpenseCategories = "expense_categories"
	TableIncomeCategories  = "income_categories"
	TableTopExpenses       = "top_expenses"
	TableMonthly           = "monthly"
	TableCashFlow          = "cash_flow"
	TableTransactions      = "transactions"
	TableSkipped           = "skipped"
)

// TopSlices is how many expense categories top_expenses keeps before folding
// the rest into aggregate.OtherLabel.
const TopSlices = 5

// Table is a named grid of text cells.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Tables lays a report out as tables. Amounts are plain decimals with two
// places and shares are fractions, so the output stays machine readable.
func Tables(r budget.Report) []Table {
	return []Table{
		summaryTable(r.Summary),
		categoryTable(TableExpenseCategories, r.ExpenseCategories),
		categoryTable(TableIncomeCategories, r.IncomeCategories),
		topTable(r.ExpenseCategories),
		monthlyTable(r.ExpenseMonths, r.IncomeMonths),
		cashFlowTable(r.CashFlow),
		transactionTable(r.Expenses, r.Income),
		skippedTable(r.Skipped),
	}
}

func summaryTable(s core.BudgetSummary) Table {
	return Table{
		Name:   TableSummary,
		Header: []string{"metric", "amount"},
		Rows: [][]string{
			{"total_income", s.TotalIncome.StringFixed(2)},
			{"total_expenses", s.TotalExpenses.StringFixed(2)},
			{"savings_transfers", s.SavingsTransfers.StringFixed(2)},
			{"net_savings", s.NetSavings.StringFixed(2)},
		},
	}
}

func categoryTable(name string, aggs []core.CategoryAggregate) Table {
	t := Table{Name: name, Header: []string{"category", "total", "percent", "count", "label"}}
	labels := aggregate.Legend(aggs)
	for i, a := range aggs {
		t.Rows = append(t.Rows, []string{
			a.Category,
			a.Total.StringFixed(2),
			strconv.FormatFloat(a.Percent, 'f', 4, 64),
			strconv.Itoa(a.Count),
			labels[i],
		})
	}
	return t
}

func topTable(aggs []core.CategoryAggregate) Table {
	folded, err := aggregate.FoldTail(aggs, TopSlices, aggregate.OtherLabel)
	if err != nil {
		folded = aggs
	}
	return categoryTable(TableTopExpenses, folded)
}

// monthlyTable joins both monthly breakdowns on their period.
func monthlyTable(expenses, income []core.MonthlyTotal) Table {
	type pair struct{ exp, inc string }
	byPeriod := map[core.Date]*pair{}
	get := func(p core.Date) *pair {
		if v, ok := byPeriod[p]; ok {
			return v
		}
		v := &pair{exp: "0.00", inc: "0.00"}
		byPeriod[p] = v
		return v
	}
	for _, m := range expenses {
		get(m.Period).exp = m.Total.StringFixed(2)
	}
	for _, m := range income {
		get(m.Period).inc = m.Total.StringFixed(2)
	}

	periods := make([]core.Date, 0, len(byPeriod))
	for p := range byPeriod {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Compare(periods[j]) < 0 })

	t := Table{Name: TableMonthly, Header: []string{"period", "expenses", "income"}}
	for _, p := range periods {
		v := byPeriod[p]
		t.Rows = append(t.Rows, []string{p.String(), v.exp, v.inc})
	}
	return t
}

func cashFlowTable(months []core.MonthlyAggregate) Table {
	t := Table{Name: TableCashFlow, Header: []string{"period", "income", "expenses", "savings_transfers", "net"}}
	for _, m := range months {
		t.Rows = append(t.Rows, []string{
			m.Period.String(),
			m.IncomeTotal.StringFixed(2),
			m.ExpenseTotal.StringFixed(2),
			m.SavingsTransfers.StringFixed(2),
			m.Net.StringFixed(2),
		})
	}
	return t
}

// transactionTable lists both collections, newest first. Ties keep expenses
// before income and then ascending id.
func transactionTable(expenses, income []core.Transaction) Table {
	all := make([]core.Transaction, 0, len(expenses)+len(income))
	all = append(all, expenses...)
	all = append(all, income...)
	sort.SliceStable(all, func(i, j int) bool {
		if c := all[i].Date.Compare(all[j].Date); c != 0 {
			return c > 0
		}
		if all[i].Kind != all[j].Kind {
			return all[i].Kind == core.Expense
		}
		return all[i].ID < all[j].ID
	})

	t := Table{Name: TableTransactions, Header: []string{"date", "kind", "category", "amount", "description"}}
	for _, tx := range all {
		t.Rows = append(t.Rows, []string{tx.Date.String(), tx.Kind.String(), tx.Category, tx.Amount.StringFixed(2), tx.Description})
	}
	return t
}

func skippedTable(skipped []core.SkippedRecord) Table {
	t := Table{Name: TableSkipped, Header: []string{"kind", "record_id", "field", "value"}}
	for _, s := range skipped {
		t.Rows = append(t.Rows, []string{s.Kind.String(), strconv.FormatInt(s.RecordID, 10), s.Field, s.Value})
	}
	return t
}
