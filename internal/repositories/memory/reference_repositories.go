package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
)

type entityRepository struct{ store *Store }

func (r *entityRepository) SaveEntity(ctx context.Context, entity domain.Entity) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.entities[entity.EntityID]; ok {
		return apperrors.ErrDuplicate.WithContext("entity_id", entity.EntityID)
	}
	r.store.entities[entity.EntityID] = entity
	return nil
}

func (r *entityRepository) FindEntityByID(ctx context.Context, entityID string) (*domain.Entity, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	entity, ok := r.store.entities[entityID]
	if !ok {
		return nil, apperrors.ErrNotFound.WithContext("entity_id", entityID)
	}
	return &entity, nil
}

func (r *entityRepository) ListEntities(ctx context.Context) ([]domain.Entity, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	entities := make([]domain.Entity, 0, len(r.store.entities))
	for _, entity := range r.store.entities {
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })
	return entities, nil
}

type currencyRepository struct{ store *Store }

func (r *currencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	byID := r.store.currencies[currency.EntityID]
	if byID == nil {
		byID = make(map[string]domain.Currency)
		r.store.currencies[currency.EntityID] = byID
	}
	for _, existing := range byID {
		if existing.Code == currency.Code && !existing.IsDeleted() {
			return apperrors.ErrDuplicate.WithContext("code", currency.Code)
		}
	}
	byID[currency.CurrencyID] = currency
	return nil
}

func (r *currencyRepository) FindCurrencyByCode(ctx context.Context, entityID, code string) (*domain.Currency, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	code = strings.ToUpper(code)
	for _, currency := range r.store.currencies[entityID] {
		if currency.Code == code && !currency.IsDeleted() {
			c := currency
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound.WithContext("code", code)
}

func (r *currencyRepository) ListCurrencies(ctx context.Context, entityID string) ([]domain.Currency, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	currencies := make([]domain.Currency, 0, len(r.store.currencies[entityID]))
	for _, currency := range r.store.currencies[entityID] {
		if !currency.IsDeleted() {
			currencies = append(currencies, currency)
		}
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i].Code < currencies[j].Code })
	return currencies, nil
}

type exchangeRateRepository struct{ store *Store }

func (r *exchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.rates[rate.EntityID] = append(r.store.rates[rate.EntityID], rate)
	return nil
}

func (r *exchangeRateRepository) FindRateAsOf(ctx context.Context, entityID, fromCode, toCode string, asOf time.Time) (*domain.ExchangeRate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var best *domain.ExchangeRate
	for i := range r.store.rates[entityID] {
		rate := r.store.rates[entityID][i]
		if rate.IsDeleted() || rate.FromCurrencyCode != fromCode || rate.ToCurrencyCode != toCode {
			continue
		}
		if rate.EffectiveDate.After(asOf) {
			continue
		}
		if best == nil || rate.EffectiveDate.After(best.EffectiveDate) {
			candidate := rate
			best = &candidate
		}
	}
	if best == nil {
		return nil, apperrors.ErrNotFound.WithContext("from", fromCode, "to", toCode)
	}
	return best, nil
}

func (r *exchangeRateRepository) ListRates(ctx context.Context, entityID, fromCode, toCode string) ([]domain.ExchangeRate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rates := make([]domain.ExchangeRate, 0)
	for _, rate := range r.store.rates[entityID] {
		if rate.IsDeleted() || rate.FromCurrencyCode != fromCode || rate.ToCurrencyCode != toCode {
			continue
		}
		rates = append(rates, rate)
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].EffectiveDate.Before(rates[j].EffectiveDate) })
	return rates, nil
}
