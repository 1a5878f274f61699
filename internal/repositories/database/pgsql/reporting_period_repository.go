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

const periodColumns = `period_id, entity_id, year, period_start, period_end, status, created_at, created_by, last_updated_at, last_updated_by, deleted_at`

type PgxReportingPeriodRepository struct {
	BaseRepository
}

func newPgxReportingPeriodRepository(pool *pgxpool.Pool) portsrepo.ReportingPeriodRepository {
	return &PgxReportingPeriodRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReportingPeriodRepository = (*PgxReportingPeriodRepository)(nil)

func scanPeriod(row pgx.Row) (domain.ReportingPeriod, error) {
	var period domain.ReportingPeriod
	err := row.Scan(
		&period.PeriodID,
		&period.EntityID,
		&period.Year,
		&period.PeriodStart,
		&period.PeriodEnd,
		&period.Status,
		&period.CreatedAt,
		&period.CreatedBy,
		&period.LastUpdatedAt,
		&period.LastUpdatedBy,
		&period.DeletedAt,
	)
	return period, err
}

func (r *PgxReportingPeriodRepository) SavePeriod(ctx context.Context, period domain.ReportingPeriod) error {
	query := `
		INSERT INTO reporting_periods (` + periodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		period.PeriodID,
		period.EntityID,
		period.Year,
		period.PeriodStart,
		period.PeriodEnd,
		period.Status,
		period.CreatedAt,
		period.CreatedBy,
		period.LastUpdatedAt,
		period.LastUpdatedBy,
		period.DeletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate.WithContext("period_id", period.PeriodID)
		}
		return fmt.Errorf("failed to save period %s: %w", period.PeriodID, err)
	}
	return nil
}

func (r *PgxReportingPeriodRepository) FindPeriodByID(ctx context.Context, entityID, periodID string) (*domain.ReportingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM reporting_periods WHERE entity_id = $1 AND period_id = $2;`
	period, err := scanPeriod(r.Pool.QueryRow(ctx, query, entityID, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound.WithContext("period_id", periodID)
		}
		return nil, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}
	return &period, nil
}

func (r *PgxReportingPeriodRepository) FindCurrentPeriod(ctx context.Context, entityID string) (*domain.ReportingPeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM reporting_periods
		WHERE entity_id = $1 AND status IN ($2, $3) AND deleted_at IS NULL
		ORDER BY period_start DESC
		LIMIT 1;
	`
	period, err := scanPeriod(r.Pool.QueryRow(ctx, query, entityID, domain.PeriodOpen, domain.PeriodAdjusting))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound.WithContext("entity_id", entityID)
		}
		return nil, fmt.Errorf("failed to find current period: %w", err)
	}
	return &period, nil
}

func (r *PgxReportingPeriodRepository) FindPeriodForDate(ctx context.Context, entityID string, date time.Time) (*domain.ReportingPeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM reporting_periods
		WHERE entity_id = $1 AND period_start <= $2 AND period_end >= $2 AND deleted_at IS NULL
		LIMIT 1;
	`
	period, err := scanPeriod(r.Pool.QueryRow(ctx, query, entityID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound.WithContext("date", date.Format(time.DateOnly))
		}
		return nil, fmt.Errorf("failed to find period for date: %w", err)
	}
	return &period, nil
}

func (r *PgxReportingPeriodRepository) ListPeriods(ctx context.Context, entityID string) ([]domain.ReportingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM reporting_periods WHERE entity_id = $1 ORDER BY period_start;`
	rows, err := r.Pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ReportingPeriod, error) {
		return scanPeriod(row)
	})
}

// TransitionPeriodStatus takes an exclusive lock on the period row before
// flipping its status. Posting share-locks the same row, so a transition
// waits for in-flight posts to commit and vice versa.
func (r *PgxReportingPeriodRepository) TransitionPeriodStatus(ctx context.Context, entityID, periodID string, from, to domain.PeriodStatus, userID string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck

	var stored domain.PeriodStatus
	err = tx.QueryRow(ctx,
		`SELECT status FROM reporting_periods WHERE entity_id = $1 AND period_id = $2 FOR UPDATE;`,
		entityID, periodID,
	).Scan(&stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound.WithContext("period_id", periodID)
		}
		return fmt.Errorf("failed to lock period %s: %w", periodID, err)
	}
	if stored != from {
		return apperrors.ErrInvalidReportingPeriod.WithContext(
			"period_id", periodID,
			"expected_status", string(from),
			"stored_status", string(stored),
		)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE reporting_periods SET status = $3, last_updated_by = $4, last_updated_at = $5
		 WHERE entity_id = $1 AND period_id = $2;`,
		entityID, periodID, to, userID, now,
	); err != nil {
		return fmt.Errorf("failed to transition period %s: %w", periodID, err)
	}
	return r.Commit(ctx, tx)
}

type PgxBudgetRepository struct {
	BaseRepository
}

func newPgxBudgetRepository(pool *pgxpool.Pool) portsrepo.BudgetRepository {
	return &PgxBudgetRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BudgetRepository = (*PgxBudgetRepository)(nil)

const budgetColumns = `budget_id, entity_id, account_id, period_id, amount, name, budget_type, created_at, created_by, last_updated_at, last_updated_by, deleted_at`

func scanBudget(row pgx.Row) (domain.Budget, error) {
	var budget domain.Budget
	err := row.Scan(
		&budget.BudgetID,
		&budget.EntityID,
		&budget.AccountID,
		&budget.PeriodID,
		&budget.Amount,
		&budget.Name,
		&budget.BudgetType,
		&budget.CreatedAt,
		&budget.CreatedBy,
		&budget.LastUpdatedAt,
		&budget.LastUpdatedBy,
		&budget.DeletedAt,
	)
	return budget, err
}

func (r *PgxBudgetRepository) SaveBudget(ctx context.Context, budget domain.Budget) error {
	query := `
		INSERT INTO budgets (` + budgetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		budget.BudgetID,
		budget.EntityID,
		budget.AccountID,
		budget.PeriodID,
		budget.Amount,
		budget.Name,
		budget.BudgetType,
		budget.CreatedAt,
		budget.CreatedBy,
		budget.LastUpdatedAt,
		budget.LastUpdatedBy,
		budget.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save budget %s: %w", budget.BudgetID, err)
	}
	return nil
}

func (r *PgxBudgetRepository) FindBudgetByID(ctx context.Context, entityID, budgetID string) (*domain.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE entity_id = $1 AND budget_id = $2;`
	budget, err := scanBudget(r.Pool.QueryRow(ctx, query, entityID, budgetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound.WithContext("budget_id", budgetID)
		}
		return nil, fmt.Errorf("failed to find budget %s: %w", budgetID, err)
	}
	return &budget, nil
}

func (r *PgxBudgetRepository) ListBudgetsByPeriod(ctx context.Context, entityID, periodID string) ([]domain.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE entity_id = $1 AND period_id = $2 AND deleted_at IS NULL ORDER BY budget_id;`
	rows, err := r.Pool.Query(ctx, query, entityID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Budget, error) {
		return scanBudget(row)
	})
}
