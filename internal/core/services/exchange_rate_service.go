package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	portsrepo "github.com/corebooks/corebooks/internal/core/ports/repositories"
	"github.com/corebooks/corebooks/internal/dto"
)

// ExchangeRateService resolves time-dated conversion rates between currency
// pairs, deriving the reciprocal of the reverse pair when no direct rate
// exists.
type ExchangeRateService struct {
	BaseService
	rateRepo    portsrepo.ExchangeRateRepository
	currencySvc *CurrencyService
}

// NewExchangeRateService creates a new ExchangeRateService.
func NewExchangeRateService(rateRepo portsrepo.ExchangeRateRepository, currencySvc *CurrencyService) *ExchangeRateService {
	return &ExchangeRateService{rateRepo: rateRepo, currencySvc: currencySvc}
}

// CreateExchangeRate records a dated rate for a currency pair. Identity
// pairs are implied and never stored.
func (s *ExchangeRateService) CreateExchangeRate(ctx context.Context, entityID string, req dto.CreateExchangeRateRequest, userID string) (*domain.ExchangeRate, error) {
	from := strings.ToUpper(req.FromCurrencyCode)
	to := strings.ToUpper(req.ToCurrencyCode)

	if req.Rate.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.ErrValidation.WithContext("rate", req.Rate.String(), "reason", "exchange rate must be positive")
	}
	if from == to {
		return nil, apperrors.ErrValidation.WithContext("code", from, "reason", "identity rates are implied, not stored")
	}

	for _, code := range []string{from, to} {
		if _, err := s.currencySvc.GetCurrencyByCode(ctx, entityID, code); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.ErrValidation.WithContext("code", code, "reason", "currency is not registered")
			}
			return nil, fmt.Errorf("failed to validate currency %s: %w", code, err)
		}
	}

	now := time.Now().UTC()
	rate := domain.ExchangeRate{
		ExchangeRateID:   uuid.NewString(),
		EntityID:         entityID,
		FromCurrencyCode: from,
		ToCurrencyCode:   to,
		Rate:             req.Rate,
		EffectiveDate:    req.EffectiveDate,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.rateRepo.SaveExchangeRate(ctx, rate); err != nil {
		s.LogError(ctx, err, "Failed to save exchange rate",
			slog.String("from", from), slog.String("to", to))
		return nil, fmt.Errorf("failed to save exchange rate: %w", err)
	}

	s.LogInfo(ctx, "Exchange rate created",
		slog.String("from", from), slog.String("to", to), slog.String("rate", req.Rate.String()))
	return &rate, nil
}

// GetRate resolves the rate for converting from one currency to another as
// of a date: identity for equal codes, else the most recent direct rate,
// else the reciprocal of the reverse pair. Fails with
// apperrors.ErrInvalidExchangeRate when neither resolves.
func (s *ExchangeRateService) GetRate(ctx context.Context, entityID, fromCode, toCode string, asOf time.Time) (decimal.Decimal, error) {
	from := strings.ToUpper(fromCode)
	to := strings.ToUpper(toCode)

	if from == to {
		return decimal.NewFromInt(1), nil
	}

	direct, err := s.rateRepo.FindRateAsOf(ctx, entityID, from, to, asOf)
	if err == nil {
		return direct.Rate, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("failed to look up rate %s/%s: %w", from, to, err)
	}

	reverse, err := s.rateRepo.FindRateAsOf(ctx, entityID, to, from, asOf)
	if err == nil {
		return decimal.NewFromInt(1).Div(reverse.Rate), nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("failed to look up reverse rate %s/%s: %w", to, from, err)
	}

	return decimal.Zero, apperrors.ErrInvalidExchangeRate.WithContext(
		"from", from, "to", to, "as_of", asOf.Format(time.DateOnly))
}

// Convert converts an amount between currencies at the rate effective as of
// the given date, propagating apperrors.ErrInvalidExchangeRate when no rate
// (direct or reciprocal) resolves.
func (s *ExchangeRateService) Convert(ctx context.Context, entityID string, amount decimal.Decimal, fromCode, toCode string, asOf time.Time) (decimal.Decimal, error) {
	rate, err := s.GetRate(ctx, entityID, fromCode, toCode, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}
