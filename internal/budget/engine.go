package budget

import (
	"context"
	"fmt"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"

	"github.com/shopspring/decimal"
)

// Compute derives the summary from already fetched records.
//
//	SavingsTransfers = sum of expenses the policy marks as transfers
//	TotalExpenses    = sum of all other expenses
//	TotalIncome      = sum of income
//	NetSavings       = TotalIncome - TotalExpenses + SavingsTransfers
func Compute(expenses, income []core.Transaction, policy SavingsPolicy) core.BudgetSummary {
	spent, transfers := decimal.Zero, decimal.Zero
	for _, t := range expenses {
		if policy.IsTransfer(t.Category) {
			transfers = transfers.Add(t.Amount)
			continue
		}
		spent = spent.Add(t.Amount)
	}
	earned := core.Sum(income)

	return core.BudgetSummary{
		TotalExpenses:    spent,
		TotalIncome:      earned,
		NetSavings:       earned.Sub(spent).Add(transfers),
		SavingsTransfers: transfers,
	}
}

// Report is everything derived from one fetch of a user's window.
type Report struct {
	Username          string                   `json:"username"`
	Window            core.Window              `json:"-"`
	Start             core.Date                `json:"start"`
	End               core.Date                `json:"end"`
	Summary           core.BudgetSummary       `json:"summary"`
	ExpenseCategories []core.CategoryAggregate `json:"expense_categories"`
	IncomeCategories  []core.CategoryAggregate `json:"income_categories"`
	ExpenseMonths     []core.MonthlyTotal      `json:"expense_months"`
	IncomeMonths      []core.MonthlyTotal      `json:"income_months"`
	CashFlow          []core.MonthlyAggregate  `json:"cash_flow"`
	Skipped           []core.SkippedRecord     `json:"skipped"`
	Expenses          []core.Transaction       `json:"-"`
	Income            []core.Transaction       `json:"-"`
}

// Engine answers summary queries against a store.
type Engine struct {
	store  ledger.Fetcher
	policy SavingsPolicy
	logger *log.Logger
}

func NewEngine(store ledger.Fetcher, policy SavingsPolicy, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if policy.Category == "" {
		policy = DefaultSavingsPolicy
	}
	return &Engine{store: store, policy: policy, logger: logger.WithComponent(log.ComponentBudget)}
}

// Policy returns the savings policy the engine applies.
func (e *Engine) Policy() SavingsPolicy {
	return e.policy
}

// Snapshot fetches the records of username in the inclusive window.
func (e *Engine) Snapshot(ctx context.Context, username string, w core.Window) (core.Snapshot, error) {
	snap, err := e.store.Fetch(ctx, username, w)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("fetch window: %w", err)
	}
	return snap, nil
}

// Summarize fetches the window [start, end] and computes its summary. A
// window with no records, or with start after end, yields an all-zero summary.
func (e *Engine) Summarize(ctx context.Context, username string, start, end core.Date) (core.BudgetSummary, error) {
	snap, err := e.Snapshot(ctx, username, core.NewWindow(start, end))
	if err != nil {
		return core.BudgetSummary{}, err
	}
	summary := Compute(snap.Expenses, snap.Income, e.policy)

	e.logger.InfoContext(ctx, "Budget summarized",
		log.FieldUsername, username,
		log.FieldWindow, core.NewWindow(start, end).String(),
		"total_expenses", summary.TotalExpenses.StringFixed(2),
		"total_income", summary.TotalIncome.StringFixed(2),
		"net_savings", summary.NetSavings.StringFixed(2))

	return summary, nil
}

// Report builds the summary together with the category, monthly and cash
// flow tables from a single fetch.
func (e *Engine) Report(ctx context.Context, username string, w core.Window) (Report, error) {
	snap, err := e.Snapshot(ctx, username, w)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Username:          username,
		Window:            w,
		Start:             w.Start,
		End:               w.End,
		Summary:           Compute(snap.Expenses, snap.Income, e.policy),
		ExpenseCategories: aggregate.CategoryBreakdown(snap.Expenses),
		IncomeCategories:  aggregate.CategoryBreakdown(snap.Income),
		ExpenseMonths:     aggregate.MonthlyBreakdown(snap.Expenses),
		IncomeMonths:      aggregate.MonthlyBreakdown(snap.Income),
		CashFlow:          aggregate.CashFlow(snap.Expenses, snap.Income, e.policy),
		Skipped:           nonNil(snap.Skipped),
		Expenses:          snap.Expenses,
		Income:            snap.Income,
	}, nil
}

func nonNil(s []core.SkippedRecord) []core.SkippedRecord {
	if s == nil {
		return []core.SkippedRecord{}
	}
	return s
}
