package repositories

import (
	"context"
	"time"

	"github.com/corebooks/corebooks/internal/core/domain"
)

// ReportingPeriodRepository persists reporting periods.
type ReportingPeriodRepository interface {
	SavePeriod(ctx context.Context, period domain.ReportingPeriod) error
	FindPeriodByID(ctx context.Context, entityID, periodID string) (*domain.ReportingPeriod, error)
	// FindCurrentPeriod returns the entity's OPEN or ADJUSTING period, or
	// apperrors.ErrNotFound.
	FindCurrentPeriod(ctx context.Context, entityID string) (*domain.ReportingPeriod, error)
	// FindPeriodForDate returns the period whose range contains the date.
	FindPeriodForDate(ctx context.Context, entityID string, date time.Time) (*domain.ReportingPeriod, error)
	ListPeriods(ctx context.Context, entityID string) ([]domain.ReportingPeriod, error)
	// TransitionPeriodStatus moves the period from one status to another
	// under an exclusive row lock, failing if the stored status no longer
	// matches from. This serializes transitions against in-flight posts.
	TransitionPeriodStatus(ctx context.Context, entityID, periodID string, from, to domain.PeriodStatus, userID string, now time.Time) error
}

// BudgetRepository persists planning data.
type BudgetRepository interface {
	SaveBudget(ctx context.Context, budget domain.Budget) error
	FindBudgetByID(ctx context.Context, entityID, budgetID string) (*domain.Budget, error)
	ListBudgetsByPeriod(ctx context.Context, entityID, periodID string) ([]domain.Budget, error)
}
