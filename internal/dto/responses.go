package dto

import (
	"github.com/shopspring/decimal"

	"github.com/corebooks/corebooks/internal/core/domain"
)

// AccountBalance is one account's derived balance as of a date.
type AccountBalance struct {
	AccountID   string             `json:"accountID"`
	Name        string             `json:"name"`
	AccountType domain.AccountType `json:"accountType"`
	Balance     decimal.Decimal    `json:"balance"`
}

// SectionBalances groups derived balances by account type for report
// collaborators.
type SectionBalances map[domain.AccountType][]AccountBalance

// BudgetLine is the planned-vs-actual detail for one budget.
type BudgetLine struct {
	BudgetID        string          `json:"budgetID"`
	AccountID       string          `json:"accountID"`
	AccountName     string          `json:"accountName"`
	Planned         decimal.Decimal `json:"planned"`
	Actual          decimal.Decimal `json:"actual"`
	Variance        decimal.Decimal `json:"variance"`
	VariancePercent decimal.Decimal `json:"variancePercent"`
}

// BudgetSummary totals all budget lines for a reporting period.
type BudgetSummary struct {
	PeriodID      string          `json:"periodID"`
	TotalPlanned  decimal.Decimal `json:"totalPlanned"`
	TotalActual   decimal.Decimal `json:"totalActual"`
	TotalVariance decimal.Decimal `json:"totalVariance"`
	Lines         []BudgetLine    `json:"lines"`
}

// IntegrityReport is the outcome of a ledger integrity sweep.
type IntegrityReport struct {
	EntityID     string `json:"entityID"`
	RowsVerified int64  `json:"rowsVerified"`
	Intact       bool   `json:"intact"`
	// FirstBrokenLedgerID identifies the first row whose stored hash does
	// not match the recomputed chain, when Intact is false.
	FirstBrokenLedgerID string `json:"firstBrokenLedgerID,omitempty"`
}
