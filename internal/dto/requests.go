// Package dto defines the request and response shapes exchanged between the
// core services and their callers.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebooks/corebooks/internal/core/domain"
)

// CreateCurrencyRequest registers a currency for an entity.
type CreateCurrencyRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CreateExchangeRateRequest records a dated conversion rate.
type CreateExchangeRateRequest struct {
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	EffectiveDate    time.Time       `json:"effectiveDate"`
}

// CreateAccountRequest adds a chart-of-accounts node.
type CreateAccountRequest struct {
	Name         string             `json:"name"`
	AccountType  domain.AccountType `json:"accountType"`
	CurrencyCode string             `json:"currencyCode"`
	Code         string             `json:"code,omitempty"`
	Category     string             `json:"category,omitempty"`
	Description  string             `json:"description,omitempty"`
}

// CreateLineItemRequest is one counter-account leg of a new transaction.
// Credited defaults to the opposite of the transaction's main side.
type CreateLineItemRequest struct {
	AccountID string           `json:"accountID"`
	Amount    decimal.Decimal  `json:"amount"`
	Quantity  *decimal.Decimal `json:"quantity,omitempty"`
	Narration string           `json:"narration,omitempty"`
	Credited  *bool            `json:"credited,omitempty"`
	TaxID     string           `json:"taxID,omitempty"`
}

// CreateTransactionRequest builds a draft transaction. Credited overrides
// the main-account side for types that permit it (journal entries).
type CreateTransactionRequest struct {
	TransactionType domain.TransactionType  `json:"transactionType"`
	MainAccountID   string                  `json:"mainAccountID"`
	TransactionDate time.Time               `json:"transactionDate"`
	Narration       string                  `json:"narration"`
	Reference       string                  `json:"reference,omitempty"`
	Credited        *bool                   `json:"credited,omitempty"`
	LineItems       []CreateLineItemRequest `json:"lineItems"`
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	From            *time.Time              `json:"from,omitempty"`
	To              *time.Time              `json:"to,omitempty"`
	TransactionType *domain.TransactionType `json:"transactionType,omitempty"`
	IncludeDeleted  bool                    `json:"includeDeleted"`
}

// CreatePeriodRequest opens a new reporting period.
type CreatePeriodRequest struct {
	Year        int       `json:"year"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
}

// CreateBudgetRequest adds a planning line for an account and period.
type CreateBudgetRequest struct {
	AccountID  string            `json:"accountID"`
	PeriodID   string            `json:"periodID"`
	Amount     decimal.Decimal   `json:"amount"`
	Name       string            `json:"name,omitempty"`
	BudgetType domain.BudgetType `json:"budgetType,omitempty"`
}
