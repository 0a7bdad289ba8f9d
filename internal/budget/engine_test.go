package budget

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rowsReader struct {
	rows core.RowSet
	err  error
}

func (r rowsReader) ReadWindow(context.Context, string, core.Window) (core.RowSet, error) {
	return r.rows, r.err
}

func newEngine(rows core.RowSet, err error) *Engine {
	return NewEngine(ledger.NewStore(rowsReader{rows: rows, err: err}, nil), DefaultSavingsPolicy, nil)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSavingsPolicy(t *testing.T) {
	p := DefaultSavingsPolicy
	for _, c := range []string{"savings", "Savings", "SAVINGS"} {
		assert.True(t, p.IsTransfer(c), c)
	}
	for _, c := range []string{"saving", "Savings Account", "", "Food"} {
		assert.False(t, p.IsTransfer(c), c)
	}
	assert.Equal(t, DefaultSavingsPolicy, NewSavingsPolicy("  "))
	assert.True(t, NewSavingsPolicy("Investments").IsTransfer("investments"))
}

func TestSummarizeSavingsExample(t *testing.T) {
	e := newEngine(core.RowSet{
		Expenses: []core.Row{
			{ID: 1, Date: "2024-01-03", Category: "Food", Amount: "50"},
			{ID: 2, Date: "2024-01-04", Category: "food", Amount: "25"},
			{ID: 3, Date: "2024-01-05", Category: "Savings", Amount: "100"},
		},
		Income: []core.Row{
			{ID: 1, Date: "2024-01-01", Category: "Salary", Amount: "500"},
		},
	}, nil)

	got, err := e.Summarize(context.Background(), "alice", core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	require.NoError(t, err)
	assert.True(t, got.TotalExpenses.Equal(dec("75")), got.TotalExpenses.String())
	assert.True(t, got.SavingsTransfers.Equal(dec("100")))
	assert.True(t, got.TotalIncome.Equal(dec("500")))
	assert.True(t, got.NetSavings.Equal(dec("525")), got.NetSavings.String())
}

func TestSummarizeEmptyAndReversed(t *testing.T) {
	e := newEngine(core.RowSet{}, nil)
	got, err := e.Summarize(context.Background(), "alice", core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	require.NoError(t, err)
	assert.True(t, got.TotalExpenses.IsZero())
	assert.True(t, got.TotalIncome.IsZero())
	assert.True(t, got.NetSavings.IsZero())
	assert.True(t, got.SavingsTransfers.IsZero())

	failing := newEngine(core.RowSet{}, errors.New("should not be read"))
	got, err = failing.Summarize(context.Background(), "alice", core.NewDate(2024, 2, 1), core.NewDate(2024, 1, 1))
	require.NoError(t, err)
	assert.True(t, got.NetSavings.IsZero())
}

func TestSummarizeErrors(t *testing.T) {
	_, err := newEngine(core.RowSet{}, errors.New("db down")).
		Summarize(context.Background(), "alice", core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	var dataErr *core.DataAccessError
	assert.ErrorAs(t, err, &dataErr)

	_, err = newEngine(core.RowSet{
		Expenses: []core.Row{{ID: 4, Date: "2024-01-02", Category: "Food", Amount: "12,50"}},
	}, nil).Summarize(context.Background(), "alice", core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	var integrity *core.IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, int64(4), integrity.RecordID)
}

func TestComputeSavingsIdentity(t *testing.T) {
	expenses := []core.Transaction{
		{Category: "Food", Amount: dec("12.34")},
		{Category: "savings", Amount: dec("40")},
		{Category: "Rent", Amount: dec("800")},
		{Category: "SAVINGS", Amount: dec("10.01")},
	}
	income := []core.Transaction{{Category: "Salary", Amount: dec("1500")}}

	s := Compute(expenses, income, DefaultSavingsPolicy)
	assert.True(t, s.TotalExpenses.Add(s.SavingsTransfers).Equal(core.Sum(expenses)))
	assert.True(t, s.NetSavings.Equal(s.TotalIncome.Sub(s.TotalExpenses).Add(s.SavingsTransfers)))
	assert.True(t, s.SavingsTransfers.Equal(dec("50.01")))
}

func TestReport(t *testing.T) {
	e := newEngine(core.RowSet{
		Expenses: []core.Row{
			{ID: 1, Date: "2024-01-05", Category: "Food", Amount: "50"},
			{ID: 2, Date: "2024-02-03", Category: "Food", Amount: "5"},
			{ID: 3, Date: "31/01/2024", Category: "Food", Amount: "7"},
		},
		Income: []core.Row{
			{ID: 1, Date: "2024-01-01", Category: "Salary", Amount: "500"},
		},
	}, nil)

	w := core.NewWindow(core.NewDate(2024, 1, 1), core.NewDate(2024, 3, 31))
	r, err := e.Report(context.Background(), "alice", w)
	require.NoError(t, err)

	require.Len(t, r.ExpenseMonths, 2)
	assert.Equal(t, core.NewDate(2024, 1, 1), r.ExpenseMonths[0].Period)
	assert.True(t, r.ExpenseMonths[0].Total.Equal(dec("50")))
	assert.True(t, r.ExpenseMonths[1].Total.Equal(dec("5")))

	require.Len(t, r.ExpenseCategories, 1)
	assert.Equal(t, 2, r.ExpenseCategories[0].Count)
	require.Len(t, r.Skipped, 1)
	assert.Equal(t, "31/01/2024", r.Skipped[0].Value)
	assert.True(t, r.Summary.NetSavings.Equal(dec("445")))
	require.Len(t, r.CashFlow, 2)
}
