package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	"github.com/corebooks/corebooks/internal/dto"
)

type BudgetServiceTestSuite struct {
	ledgerSuite
}

func TestBudgetService(t *testing.T) {
	suite.Run(t, new(BudgetServiceTestSuite))
}

func (s *BudgetServiceTestSuite) createBudget(accountID string, amount int64) *domain.Budget {
	budget, err := s.container.Budgets.CreateBudget(s.ctx, testEntityID, dto.CreateBudgetRequest{
		AccountID: accountID,
		PeriodID:  s.period.PeriodID,
		Amount:    decimal.NewFromInt(amount),
	}, testUserID)
	s.Require().NoError(err)
	return budget
}

func (s *BudgetServiceTestSuite) TestCreateBudgetValidation() {
	_, err := s.container.Budgets.CreateBudget(s.ctx, testEntityID, dto.CreateBudgetRequest{
		AccountID: s.expense.AccountID,
		PeriodID:  s.period.PeriodID,
		Amount:    decimal.NewFromInt(-5),
	}, testUserID)
	s.ErrorIs(err, apperrors.ErrNegativeAmount)

	_, err = s.container.Budgets.CreateBudget(s.ctx, testEntityID, dto.CreateBudgetRequest{
		AccountID: "missing",
		PeriodID:  s.period.PeriodID,
		Amount:    decimal.NewFromInt(100),
	}, testUserID)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *BudgetServiceTestSuite) TestExpenseVarianceIsPlannedMinusActual() {
	budget := s.createBudget(s.expense.AccountID, 500)
	s.postedTransaction(domain.CashPurchase, s.bank.AccountID, s.expense.AccountID, 350, 10)

	line, err := s.container.Budgets.Line(s.ctx, testEntityID, budget.BudgetID)
	s.Require().NoError(err)

	s.True(line.Actual.Equal(decimal.NewFromInt(350)))
	s.True(line.Variance.Equal(decimal.NewFromInt(150)), "under budget is positive for expenses")
	s.True(line.VariancePercent.Equal(decimal.NewFromInt(30)))
}

func (s *BudgetServiceTestSuite) TestRevenueVarianceIsActualMinusPlanned() {
	budget := s.createBudget(s.revenue.AccountID, 400)
	s.postedTransaction(domain.CashSale, s.bank.AccountID, s.revenue.AccountID, 500, 10)

	line, err := s.container.Budgets.Line(s.ctx, testEntityID, budget.BudgetID)
	s.Require().NoError(err)

	s.True(line.Actual.Equal(decimal.NewFromInt(500)))
	s.True(line.Variance.Equal(decimal.NewFromInt(100)), "exceeding target is positive for revenue")
	s.True(line.VariancePercent.Equal(decimal.NewFromInt(25)))
}

func (s *BudgetServiceTestSuite) TestZeroPlannedAmountYieldsZeroPercent() {
	budget := s.createBudget(s.expense.AccountID, 0)
	s.postedTransaction(domain.CashPurchase, s.bank.AccountID, s.expense.AccountID, 50, 10)

	line, err := s.container.Budgets.Line(s.ctx, testEntityID, budget.BudgetID)
	s.Require().NoError(err)
	s.True(line.VariancePercent.IsZero())
}

func (s *BudgetServiceTestSuite) TestSummaryTotalsLines() {
	s.createBudget(s.expense.AccountID, 500)
	s.createBudget(s.revenue.AccountID, 400)
	s.postedTransaction(domain.CashPurchase, s.bank.AccountID, s.expense.AccountID, 350, 10)
	s.postedTransaction(domain.CashSale, s.bank.AccountID, s.revenue.AccountID, 500, 11)

	summary, err := s.container.Budgets.Summary(s.ctx, testEntityID, s.period.PeriodID)
	s.Require().NoError(err)

	s.Len(summary.Lines, 2)
	s.True(summary.TotalPlanned.Equal(decimal.NewFromInt(900)))
	s.True(summary.TotalActual.Equal(decimal.NewFromInt(850)))
	s.True(summary.TotalVariance.Equal(decimal.NewFromInt(250)))
}
