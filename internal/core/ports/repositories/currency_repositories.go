package repositories

import (
	"context"
	"time"

	"github.com/corebooks/corebooks/internal/core/domain"
)

// CurrencyRepository persists the per-entity currency registry.
type CurrencyRepository interface {
	SaveCurrency(ctx context.Context, currency domain.Currency) error
	FindCurrencyByCode(ctx context.Context, entityID, code string) (*domain.Currency, error)
	ListCurrencies(ctx context.Context, entityID string) ([]domain.Currency, error)
}

// ExchangeRateRepository persists dated conversion rates.
type ExchangeRateRepository interface {
	SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error
	// FindRateAsOf returns the most recent non-deleted rate for the pair with
	// effective date <= asOf, or apperrors.ErrNotFound.
	FindRateAsOf(ctx context.Context, entityID, fromCode, toCode string, asOf time.Time) (*domain.ExchangeRate, error)
	ListRates(ctx context.Context, entityID, fromCode, toCode string) ([]domain.ExchangeRate, error)
}
