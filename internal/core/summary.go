package core

import "github.com/shopspring/decimal"

// CategoryAggregate is the total of one category within a transaction set.
type CategoryAggregate struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Percent  float64         `json:"percent"` // share of the group total, 0..1
	Count    int             `json:"count"`
}

// MonthlyTotal is the sum of one collection for a calendar month.
type MonthlyTotal struct {
	Period Date            `json:"period"` // first day of the month
	Total  decimal.Decimal `json:"total"`
}

// MonthlyAggregate combines both collections for a calendar month.
type MonthlyAggregate struct {
	Period           Date            `json:"period"`
	ExpenseTotal     decimal.Decimal `json:"expense_total"`
	IncomeTotal      decimal.Decimal `json:"income_total"`
	Net              decimal.Decimal `json:"net"`
	SavingsTransfers decimal.Decimal `json:"savings_transfers"`
}

// BudgetSummary is the headline result for one user and window.
type BudgetSummary struct {
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	TotalIncome      decimal.Decimal `json:"total_income"`
	NetSavings       decimal.Decimal `json:"net_savings"`
	SavingsTransfers decimal.Decimal `json:"savings_transfers"`
}

// SkippedRecord is a stored record left out of a snapshot because its date
// could not be interpreted.
type SkippedRecord struct {
	Kind     Kind   `json:"kind"`
	RecordID int64  `json:"record_id"`
	Field    string `json:"field"`
	Value    string `json:"value"`
}

// Snapshot is the decoded content of one user's window.
type Snapshot struct {
	Expenses []Transaction
	Income   []Transaction
	Skipped  []SkippedRecord
}

// Of returns the transactions of one collection.
func (s Snapshot) Of(k Kind) []Transaction {
	if k == Income {
		return s.Income
	}
	return s.Expenses
}

// Sum adds up the amounts of txns.
func Sum(txns []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Amount)
	}
	return total
}
