package domain

import "github.com/shopspring/decimal"

// BudgetType is the planning granularity of a budget line.
type BudgetType string

const (
	AnnualBudget    BudgetType = "ANNUAL"
	QuarterlyBudget BudgetType = "QUARTERLY"
	MonthlyBudget   BudgetType = "MONTHLY"
)

// Budget is pure planning data layered on top of account balance queries.
// It never affects ledger balances.
type Budget struct {
	BudgetID   string          `json:"budgetID"`
	EntityID   string          `json:"entityID"`
	AccountID  string          `json:"accountID"`
	PeriodID   string          `json:"periodID"`
	Amount     decimal.Decimal `json:"amount"`
	Name       string          `json:"name,omitempty"`
	BudgetType BudgetType      `json:"budgetType"`
	AuditFields
	Recyclable
}

// Variance compares planned against actual: planned - actual for expense
// accounts (positive means under budget), actual - planned for revenue
// accounts (positive means target exceeded).
func (b *Budget) Variance(accountType AccountType, actual decimal.Decimal) decimal.Decimal {
	if accountType.IsExpense() {
		return b.Amount.Sub(actual)
	}
	return actual.Sub(b.Amount)
}

// VariancePercent expresses the variance as a percentage of the planned
// amount. A zero budget yields zero to avoid division blowups.
func (b *Budget) VariancePercent(accountType AccountType, actual decimal.Decimal) decimal.Decimal {
	if b.Amount.IsZero() {
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	return b.Variance(accountType, actual).Div(b.Amount.Abs()).Mul(hundred)
}
