// Package budget computes the budget summary of a user over a window.
package budget

import "strings"

// SavingsCategory is the expense category that marks a transfer into savings.
// Such expenses are not spending: they are excluded from TotalExpenses and
// added back into NetSavings. The match ignores case.
const SavingsCategory = "savings"

// SavingsPolicy identifies savings transfers among expenses.
type SavingsPolicy struct {
	Category string
}

// DefaultSavingsPolicy matches SavingsCategory.
var DefaultSavingsPolicy = SavingsPolicy{Category: SavingsCategory}

// NewSavingsPolicy returns a policy for category, or the default one when
// category is blank.
func NewSavingsPolicy(category string) SavingsPolicy {
	if strings.TrimSpace(category) == "" {
		return DefaultSavingsPolicy
	}
	return SavingsPolicy{Category: strings.TrimSpace(category)}
}

func (p SavingsPolicy) IsTransfer(category string) bool {
	return strings.EqualFold(category, p.Category)
}
