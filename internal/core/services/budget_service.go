package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	portsrepo "github.com/corebooks/corebooks/internal/core/ports/repositories"
	"github.com/corebooks/corebooks/internal/dto"
)

// BudgetService layers planning data over derived balances. Budgets never
// touch the ledger; actuals are always recomputed from it.
type BudgetService struct {
	BaseService
	budgetRepo portsrepo.BudgetRepository
	accountSvc *AccountService
	periodSvc  *ReportingPeriodService
}

// NewBudgetService creates a new BudgetService.
func NewBudgetService(budgetRepo portsrepo.BudgetRepository, accountSvc *AccountService, periodSvc *ReportingPeriodService) *BudgetService {
	return &BudgetService{budgetRepo: budgetRepo, accountSvc: accountSvc, periodSvc: periodSvc}
}

// CreateBudget records a planned amount for an account within a period.
func (s *BudgetService) CreateBudget(ctx context.Context, entityID string, req dto.CreateBudgetRequest, userID string) (*domain.Budget, error) {
	if req.Amount.LessThan(decimal.Zero) {
		return nil, apperrors.ErrNegativeAmount.WithContext("amount", req.Amount.String())
	}

	if _, err := s.accountSvc.GetAccountByID(ctx, entityID, req.AccountID); err != nil {
		return nil, err
	}
	if _, err := s.periodSvc.periodRepo.FindPeriodByID(ctx, entityID, req.PeriodID); err != nil {
		return nil, fmt.Errorf("failed to find period %s: %w", req.PeriodID, err)
	}

	budgetType := req.BudgetType
	if budgetType == "" {
		budgetType = domain.AnnualBudget
	}

	now := time.Now().UTC()
	budget := domain.Budget{
		BudgetID:   uuid.NewString(),
		EntityID:   entityID,
		AccountID:  req.AccountID,
		PeriodID:   req.PeriodID,
		Amount:     req.Amount,
		Name:       req.Name,
		BudgetType: budgetType,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.budgetRepo.SaveBudget(ctx, budget); err != nil {
		s.LogError(ctx, err, "Failed to save budget", slog.String("account_id", req.AccountID))
		return nil, fmt.Errorf("failed to save budget: %w", err)
	}

	s.LogInfo(ctx, "Budget created",
		slog.String("budget_id", budget.BudgetID),
		slog.String("account_id", budget.AccountID))
	return &budget, nil
}

// ActualAmount computes the account's in-period movement: the closing
// balance at the period end minus the balance brought forward at the period
// start.
func (s *BudgetService) ActualAmount(ctx context.Context, entityID, accountID, periodID string) (decimal.Decimal, error) {
	period, err := s.periodSvc.periodRepo.FindPeriodByID(ctx, entityID, periodID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}

	closing, err := s.accountSvc.ClosingBalance(ctx, entityID, accountID, period.PeriodEnd)
	if err != nil {
		return decimal.Zero, err
	}
	opening, err := s.accountSvc.OpeningBalance(ctx, entityID, accountID, period.Year)
	if err != nil {
		return decimal.Zero, err
	}
	return closing.Sub(opening), nil
}

// Line computes one budget's planned-vs-actual detail.
func (s *BudgetService) Line(ctx context.Context, entityID, budgetID string) (*dto.BudgetLine, error) {
	budget, err := s.budgetRepo.FindBudgetByID(ctx, entityID, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to find budget %s: %w", budgetID, err)
	}
	account, err := s.accountSvc.GetAccountByID(ctx, entityID, budget.AccountID)
	if err != nil {
		return nil, err
	}

	actual, err := s.ActualAmount(ctx, entityID, budget.AccountID, budget.PeriodID)
	if err != nil {
		return nil, err
	}
	return &dto.BudgetLine{
		BudgetID:        budget.BudgetID,
		AccountID:       budget.AccountID,
		AccountName:     account.Name,
		Planned:         budget.Amount,
		Actual:          actual,
		Variance:        budget.Variance(account.AccountType, actual),
		VariancePercent: budget.VariancePercent(account.AccountType, actual),
	}, nil
}

// Summary totals every budget line recorded for the period.
func (s *BudgetService) Summary(ctx context.Context, entityID, periodID string) (*dto.BudgetSummary, error) {
	budgets, err := s.budgetRepo.ListBudgetsByPeriod(ctx, entityID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets for period %s: %w", periodID, err)
	}

	summary := &dto.BudgetSummary{
		PeriodID:      periodID,
		TotalPlanned:  decimal.Zero,
		TotalActual:   decimal.Zero,
		TotalVariance: decimal.Zero,
	}
	for _, budget := range budgets {
		if budget.IsDeleted() {
			continue
		}
		line, err := s.Line(ctx, entityID, budget.BudgetID)
		if err != nil {
			return nil, err
		}
		summary.Lines = append(summary.Lines, *line)
		summary.TotalPlanned = summary.TotalPlanned.Add(line.Planned)
		summary.TotalActual = summary.TotalActual.Add(line.Actual)
		summary.TotalVariance = summary.TotalVariance.Add(line.Variance)
	}
	return summary, nil
}
