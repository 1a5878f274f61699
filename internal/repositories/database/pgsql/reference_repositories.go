package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	portsrepo "github.com/corebooks/corebooks/internal/core/ports/repositories"
)

type PgxEntityRepository struct {
	BaseRepository
}

func newPgxEntityRepository(pool *pgxpool.Pool) portsrepo.EntityRepository {
	return &PgxEntityRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.EntityRepository = (*PgxEntityRepository)(nil)

func (r *PgxEntityRepository) SaveEntity(ctx context.Context, entity domain.Entity) error {
	query := `
		INSERT INTO entities (entity_id, name, reporting_currency_code, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.Pool.Exec(ctx, query,
		entity.EntityID,
		entity.Name,
		entity.ReportingCurrencyCode,
		entity.CreatedAt,
		entity.CreatedBy,
		entity.LastUpdatedAt,
		entity.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save entity %s: %w", entity.EntityID, err)
	}
	return nil
}

func (r *PgxEntityRepository) FindEntityByID(ctx context.Context, entityID string) (*domain.Entity, error) {
	query := `
		SELECT entity_id, name, reporting_currency_code, created_at, created_by, last_updated_at, last_updated_by, deleted_at
		FROM entities
		WHERE entity_id = $1;
	`
	var entity domain.Entity
	err := r.Pool.QueryRow(ctx, query, entityID).Scan(
		&entity.EntityID,
		&entity.Name,
		&entity.ReportingCurrencyCode,
		&entity.CreatedAt,
		&entity.CreatedBy,
		&entity.LastUpdatedAt,
		&entity.LastUpdatedBy,
		&entity.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound.WithContext("entity_id", entityID)
		}
		return nil, fmt.Errorf("failed to find entity %s: %w", entityID, err)
	}
	return &entity, nil
}

func (r *PgxEntityRepository) ListEntities(ctx context.Context) ([]domain.Entity, error) {
	query := `
		SELECT entity_id, name, reporting_currency_code, created_at, created_by, last_updated_at, last_updated_by, deleted_at
		FROM entities
		WHERE deleted_at IS NULL
		ORDER BY name;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Entity, error) {
		var entity domain.Entity
		err := row.Scan(
			&entity.EntityID,
			&entity.Name,
			&entity.ReportingCurrencyCode,
			&entity.CreatedAt,
			&entity.CreatedBy,
			&entity.LastUpdatedAt,
			&entity.LastUpdatedBy,
			&entity.DeletedAt,
		)
		return entity, err
	})
}

type PgxCurrencyRepository struct {
	BaseRepository
}

func newPgxCurrencyRepository(pool *pgxpool.Pool) portsrepo.CurrencyRepository {
	return &PgxCurrencyRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CurrencyRepository = (*PgxCurrencyRepository)(nil)

func (r *PgxCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	query := `
		INSERT INTO currencies (currency_id, entity_id, code, name, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.Pool.Exec(ctx, query,
		currency.CurrencyID,
		currency.EntityID,
		currency.Code,
		currency.Name,
		currency.CreatedAt,
		currency.CreatedBy,
		currency.LastUpdatedAt,
		currency.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate.WithContext("code", currency.Code)
		}
		return fmt.Errorf("failed to save currency %s: %w", currency.Code, err)
	}
	return nil
}

func (r *PgxCurrencyRepository) FindCurrencyByCode(ctx context.Context, entityID, code string) (*domain.Currency, error) {
	query := `
		SELECT currency_id, entity_id, code, name, created_at, created_by, last_updated_at, last_updated_by, deleted_at
		FROM currencies
		WHERE entity_id = $1 AND code = $2 AND deleted_at IS NULL;
	`
	var currency domain.Currency
	err := r.Pool.QueryRow(ctx, query, entityID, code).Scan(
		&currency.CurrencyID,
		&currency.EntityID,
		&currency.Code,
		&currency.Name,
		&currency.CreatedAt,
		&currency.CreatedBy,
		&currency.LastUpdatedAt,
		&currency.LastUpdatedBy,
		&currency.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound.WithContext("code", code)
		}
		return nil, fmt.Errorf("failed to find currency %s: %w", code, err)
	}
	return &currency, nil
}

func (r *PgxCurrencyRepository) ListCurrencies(ctx context.Context, entityID string) ([]domain.Currency, error) {
	query := `
		SELECT currency_id, entity_id, code, name, created_at, created_by, last_updated_at, last_updated_by, deleted_at
		FROM currencies
		WHERE entity_id = $1 AND deleted_at IS NULL
		ORDER BY code;
	`
	rows, err := r.Pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Currency, error) {
		var currency domain.Currency
		err := row.Scan(
			&currency.CurrencyID,
			&currency.EntityID,
			&currency.Code,
			&currency.Name,
			&currency.CreatedAt,
			&currency.CreatedBy,
			&currency.LastUpdatedAt,
			&currency.LastUpdatedBy,
			&currency.DeletedAt,
		)
		return currency, err
	})
}

type PgxExchangeRateRepository struct {
	BaseRepository
}

func newPgxExchangeRateRepository(pool *pgxpool.Pool) portsrepo.ExchangeRateRepository {
	return &PgxExchangeRateRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ExchangeRateRepository = (*PgxExchangeRateRepository)(nil)

func (r *PgxExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	query := `
		INSERT INTO exchange_rates (exchange_rate_id, entity_id, from_currency_code, to_currency_code, rate, effective_date, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		rate.ExchangeRateID,
		rate.EntityID,
		rate.FromCurrencyCode,
		rate.ToCurrencyCode,
		rate.Rate,
		rate.EffectiveDate,
		rate.CreatedAt,
		rate.CreatedBy,
		rate.LastUpdatedAt,
		rate.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save exchange rate %s/%s: %w", rate.FromCurrencyCode, rate.ToCurrencyCode, err)
	}
	return nil
}

func (r *PgxExchangeRateRepository) FindRateAsOf(ctx context.Context, entityID, fromCode, toCode string, asOf time.Time) (*domain.ExchangeRate, error) {
	query := `
		SELECT exchange_rate_id, entity_id, from_currency_code, to_currency_code, rate, effective_date, created_at, created_by, last_updated_at, last_updated_by, deleted_at
		FROM exchange_rates
		WHERE entity_id = $1 AND from_currency_code = $2 AND to_currency_code = $3
		  AND effective_date <= $4 AND deleted_at IS NULL
		ORDER BY effective_date DESC
		LIMIT 1;
	`
	var rate domain.ExchangeRate
	err := r.Pool.QueryRow(ctx, query, entityID, fromCode, toCode, asOf).Scan(
		&rate.ExchangeRateID,
		&rate.EntityID,
		&rate.FromCurrencyCode,
		&rate.ToCurrencyCode,
		&rate.Rate,
		&rate.EffectiveDate,
		&rate.CreatedAt,
		&rate.CreatedBy,
		&rate.LastUpdatedAt,
		&rate.LastUpdatedBy,
		&rate.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound.WithContext("from", fromCode, "to", toCode)
		}
		return nil, fmt.Errorf("failed to find rate %s/%s: %w", fromCode, toCode, err)
	}
	return &rate, nil
}

func (r *PgxExchangeRateRepository) ListRates(ctx context.Context, entityID, fromCode, toCode string) ([]domain.ExchangeRate, error) {
	query := `
		SELECT exchange_rate_id, entity_id, from_currency_code, to_currency_code, rate, effective_date, created_at, created_by, last_updated_at, last_updated_by, deleted_at
		FROM exchange_rates
		WHERE entity_id = $1 AND from_currency_code = $2 AND to_currency_code = $3 AND deleted_at IS NULL
		ORDER BY effective_date;
	`
	rows, err := r.Pool.Query(ctx, query, entityID, fromCode, toCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchange rates: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ExchangeRate, error) {
		var rate domain.ExchangeRate
		err := row.Scan(
			&rate.ExchangeRateID,
			&rate.EntityID,
			&rate.FromCurrencyCode,
			&rate.ToCurrencyCode,
			&rate.Rate,
			&rate.EffectiveDate,
			&rate.CreatedAt,
			&rate.CreatedBy,
			&rate.LastUpdatedAt,
			&rate.LastUpdatedBy,
			&rate.DeletedAt,
		)
		return rate, err
	})
}
