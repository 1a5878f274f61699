package memory

import (
	"context"
	"sort"
	"time"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
)

type reportingPeriodRepository struct{ store *Store }

func (r *reportingPeriodRepository) SavePeriod(ctx context.Context, period domain.ReportingPeriod) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	byID := r.store.periods[period.EntityID]
	if byID == nil {
		byID = make(map[string]domain.ReportingPeriod)
		r.store.periods[period.EntityID] = byID
	}
	if _, ok := byID[period.PeriodID]; ok {
		return apperrors.ErrDuplicate.WithContext("period_id", period.PeriodID)
	}
	byID[period.PeriodID] = period
	return nil
}

func (r *reportingPeriodRepository) FindPeriodByID(ctx context.Context, entityID, periodID string) (*domain.ReportingPeriod, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	period, ok := r.store.periods[entityID][periodID]
	if !ok {
		return nil, apperrors.ErrNotFound.WithContext("period_id", periodID)
	}
	return &period, nil
}

func (r *reportingPeriodRepository) FindCurrentPeriod(ctx context.Context, entityID string) (*domain.ReportingPeriod, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, period := range r.store.periods[entityID] {
		if period.IsDeleted() {
			continue
		}
		if period.Status == domain.PeriodOpen || period.Status == domain.PeriodAdjusting {
			p := period
			return &p, nil
		}
	}
	return nil, apperrors.ErrNotFound.WithContext("entity_id", entityID)
}

func (r *reportingPeriodRepository) FindPeriodForDate(ctx context.Context, entityID string, date time.Time) (*domain.ReportingPeriod, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, period := range r.store.periods[entityID] {
		if period.IsDeleted() {
			continue
		}
		if period.ContainsDate(date) {
			p := period
			return &p, nil
		}
	}
	return nil, apperrors.ErrNotFound.WithContext("date", date.Format(time.DateOnly))
}

func (r *reportingPeriodRepository) ListPeriods(ctx context.Context, entityID string) ([]domain.ReportingPeriod, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	periods := make([]domain.ReportingPeriod, 0, len(r.store.periods[entityID]))
	for _, period := range r.store.periods[entityID] {
		periods = append(periods, period)
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].PeriodStart.Before(periods[j].PeriodStart)
	})
	return periods, nil
}

func (r *reportingPeriodRepository) TransitionPeriodStatus(ctx context.Context, entityID, periodID string, from, to domain.PeriodStatus, userID string, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	period, ok := r.store.periods[entityID][periodID]
	if !ok {
		return apperrors.ErrNotFound.WithContext("period_id", periodID)
	}
	if period.Status != from {
		return apperrors.ErrInvalidReportingPeriod.WithContext(
			"period_id", periodID,
			"expected_status", string(from),
			"stored_status", string(period.Status),
		)
	}
	period.Status = to
	period.Touch(userID, now)
	r.store.periods[entityID][periodID] = period
	return nil
}

type budgetRepository struct{ store *Store }

func (r *budgetRepository) SaveBudget(ctx context.Context, budget domain.Budget) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	byID := r.store.budgets[budget.EntityID]
	if byID == nil {
		byID = make(map[string]domain.Budget)
		r.store.budgets[budget.EntityID] = byID
	}
	byID[budget.BudgetID] = budget
	return nil
}

func (r *budgetRepository) FindBudgetByID(ctx context.Context, entityID, budgetID string) (*domain.Budget, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	budget, ok := r.store.budgets[entityID][budgetID]
	if !ok {
		return nil, apperrors.ErrNotFound.WithContext("budget_id", budgetID)
	}
	return &budget, nil
}

func (r *budgetRepository) ListBudgetsByPeriod(ctx context.Context, entityID, periodID string) ([]domain.Budget, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	budgets := make([]domain.Budget, 0)
	for _, budget := range r.store.budgets[entityID] {
		if budget.PeriodID == periodID {
			budgets = append(budgets, budget)
		}
	}
	sort.Slice(budgets, func(i, j int) bool { return budgets[i].BudgetID < budgets[j].BudgetID })
	return budgets, nil
}
