package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate represents a dated conversion rate between two currencies:
// 1 unit of FromCurrencyCode = Rate units of ToCurrencyCode, effective from
// EffectiveDate until superseded by a later rate for the same pair.
// Identity rates (A to A) are implied and never stored.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"`
	EntityID         string          `json:"entityID"`
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	EffectiveDate    time.Time       `json:"effectiveDate"`
	AuditFields
	Recyclable
}
