package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	portsrepo "github.com/corebooks/corebooks/internal/core/ports/repositories"
	"github.com/corebooks/corebooks/internal/dto"
)

// CurrencyService manages the per-entity currency registry.
type CurrencyService struct {
	BaseService
	currencyRepo portsrepo.CurrencyRepository
}

// NewCurrencyService creates a new CurrencyService.
func NewCurrencyService(currencyRepo portsrepo.CurrencyRepository) *CurrencyService {
	return &CurrencyService{currencyRepo: currencyRepo}
}

// CreateCurrency registers a currency for an entity. Codes are unique per
// entity.
func (s *CurrencyService) CreateCurrency(ctx context.Context, entityID string, req dto.CreateCurrencyRequest, userID string) (*domain.Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if len(code) != 3 {
		return nil, apperrors.ErrValidation.WithContext("code", req.Code, "reason", "currency codes must be 3 letters")
	}
	if req.Name == "" {
		return nil, apperrors.ErrValidation.WithContext("reason", "currency name is required")
	}

	if existing, err := s.currencyRepo.FindCurrencyByCode(ctx, entityID, code); err == nil && existing != nil {
		return nil, apperrors.ErrDuplicate.WithContext("code", code, "entity_id", entityID)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check currency code %s: %w", code, err)
	}

	now := time.Now().UTC()
	currency := domain.Currency{
		CurrencyID: uuid.NewString(),
		EntityID:   entityID,
		Code:       code,
		Name:       req.Name,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.currencyRepo.SaveCurrency(ctx, currency); err != nil {
		s.LogError(ctx, err, "Failed to save currency", slog.String("code", code))
		return nil, fmt.Errorf("failed to save currency: %w", err)
	}

	s.LogInfo(ctx, "Currency created", slog.String("code", code), slog.String("entity_id", entityID))
	return &currency, nil
}

// GetCurrencyByCode retrieves a registered currency.
func (s *CurrencyService) GetCurrencyByCode(ctx context.Context, entityID, code string) (*domain.Currency, error) {
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, entityID, strings.ToUpper(code))
	if err != nil {
		return nil, fmt.Errorf("failed to find currency %s: %w", code, err)
	}
	return currency, nil
}

// ListCurrencies returns all currencies registered for the entity.
func (s *CurrencyService) ListCurrencies(ctx context.Context, entityID string) ([]domain.Currency, error) {
	currencies, err := s.currencyRepo.ListCurrencies(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	return currencies, nil
}
