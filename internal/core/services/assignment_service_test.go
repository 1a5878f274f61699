package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	"github.com/corebooks/corebooks/internal/core/events"
	portsrepo "github.com/corebooks/corebooks/internal/core/ports/repositories"
	"github.com/corebooks/corebooks/internal/core/services"
	"github.com/corebooks/corebooks/internal/dto"
)

// failingPeriodRepo simulates a storage outage on the period-for-date
// lookup while leaving the rest of the repository intact.
type failingPeriodRepo struct {
	portsrepo.ReportingPeriodRepository
}

func (r failingPeriodRepo) FindPeriodForDate(ctx context.Context, entityID string, date time.Time) (*domain.ReportingPeriod, error) {
	return nil, errors.New("period lookup unavailable")
}

type AssignmentServiceTestSuite struct {
	ledgerSuite
	invoice *domain.Transaction
	receipt *domain.Transaction
}

func TestAssignmentService(t *testing.T) {
	suite.Run(t, new(AssignmentServiceTestSuite))
}

func (s *AssignmentServiceTestSuite) SetupTest() {
	s.ledgerSuite.SetupTest()
	s.invoice = s.postedTransaction(domain.ClientInvoice, s.receivable.AccountID, s.revenue.AccountID, 100, 5)
	s.receipt = s.postedTransaction(domain.ClientReceipt, s.receivable.AccountID, s.bank.AccountID, 80, 12)
}

func (s *AssignmentServiceTestSuite) TestAssignReceiptToInvoice() {
	assignment, err := s.container.Assignments.Assign(
		s.ctx, testEntityID, s.receipt.TransactionID, s.invoice.TransactionID, decimal.NewFromInt(60), testUserID)
	s.Require().NoError(err)
	s.True(assignment.Amount.Equal(decimal.NewFromInt(60)))

	unallocated, err := s.container.Assignments.Unallocated(s.ctx, testEntityID, s.receipt)
	s.Require().NoError(err)
	s.True(unallocated.Equal(decimal.NewFromInt(20)))

	outstanding, err := s.container.Assignments.Outstanding(s.ctx, testEntityID, s.invoice)
	s.Require().NoError(err)
	s.True(outstanding.Equal(decimal.NewFromInt(40)))
}

func (s *AssignmentServiceTestSuite) TestAssignRejectsOverAllocation() {
	// More than the receipt has available.
	_, err := s.container.Assignments.Assign(
		s.ctx, testEntityID, s.receipt.TransactionID, s.invoice.TransactionID, decimal.NewFromInt(90), testUserID)
	s.ErrorIs(err, apperrors.ErrOverAssignment)

	// More than the invoice has outstanding, spread over two assignments.
	small := s.postedTransaction(domain.ClientInvoice, s.receivable.AccountID, s.revenue.AccountID, 30, 6)
	_, err = s.container.Assignments.Assign(
		s.ctx, testEntityID, s.receipt.TransactionID, small.TransactionID, decimal.NewFromInt(25), testUserID)
	s.Require().NoError(err)
	_, err = s.container.Assignments.Assign(
		s.ctx, testEntityID, s.receipt.TransactionID, small.TransactionID, decimal.NewFromInt(10), testUserID)
	s.ErrorIs(err, apperrors.ErrOverAssignment)
}

func (s *AssignmentServiceTestSuite) TestAssignValidation() {
	_, err := s.container.Assignments.Assign(
		s.ctx, testEntityID, s.receipt.TransactionID, s.receipt.TransactionID, decimal.NewFromInt(10), testUserID)
	s.ErrorIs(err, apperrors.ErrSelfAssignment)

	_, err = s.container.Assignments.Assign(
		s.ctx, testEntityID, s.receipt.TransactionID, s.invoice.TransactionID, decimal.Zero, testUserID)
	s.ErrorIs(err, apperrors.ErrNegativeAmount)

	// A receipt cannot clear another receipt.
	other := s.postedTransaction(domain.ClientReceipt, s.receivable.AccountID, s.bank.AccountID, 10, 13)
	_, err = s.container.Assignments.Assign(
		s.ctx, testEntityID, s.receipt.TransactionID, other.TransactionID, decimal.NewFromInt(5), testUserID)
	s.ErrorIs(err, apperrors.ErrInvalidAssignment)

	// Drafts cannot participate.
	draft, err := s.container.Transaction.CreateTransaction(s.ctx, testEntityID, dto.CreateTransactionRequest{
		TransactionType: domain.ClientInvoice,
		MainAccountID:   s.receivable.AccountID,
		TransactionDate: s.date(2026, 3, 14),
		LineItems: []dto.CreateLineItemRequest{
			{AccountID: s.revenue.AccountID, Amount: decimal.NewFromInt(50)},
		},
	}, testUserID)
	s.Require().NoError(err)
	_, err = s.container.Assignments.Assign(
		s.ctx, testEntityID, s.receipt.TransactionID, draft.TransactionID, decimal.NewFromInt(5), testUserID)
	s.ErrorIs(err, apperrors.ErrInvalidAssignment)
}

func (s *AssignmentServiceTestSuite) TestUnassignReleasesBothSides() {
	assignment, err := s.container.Assignments.Assign(
		s.ctx, testEntityID, s.receipt.TransactionID, s.invoice.TransactionID, decimal.NewFromInt(80), testUserID)
	s.Require().NoError(err)

	var removed events.Event
	s.container.Events.Subscribe(events.AssignmentRemoved, func(e events.Event) { removed = e })

	s.Require().NoError(s.container.Assignments.Unassign(s.ctx, testEntityID, assignment.AssignmentID, testUserID))
	s.Equal(events.AssignmentRemoved, removed.Type)

	unallocated, err := s.container.Assignments.Unallocated(s.ctx, testEntityID, s.receipt)
	s.Require().NoError(err)
	s.True(unallocated.Equal(decimal.NewFromInt(80)))
}

func (s *AssignmentServiceTestSuite) TestUnassignBlockedInClosedPeriod() {
	assignment, err := s.container.Assignments.Assign(
		s.ctx, testEntityID, s.receipt.TransactionID, s.invoice.TransactionID, decimal.NewFromInt(40), testUserID)
	s.Require().NoError(err)

	_, err = s.container.Periods.Transition(s.ctx, testEntityID, s.period.PeriodID, domain.PeriodClosed, testUserID)
	s.Require().NoError(err)

	err = s.container.Assignments.Unassign(s.ctx, testEntityID, assignment.AssignmentID, testUserID)
	s.ErrorIs(err, apperrors.ErrClosedReportingPeriod)
}

func (s *AssignmentServiceTestSuite) TestUnassignFailsClosedOnPeriodLookupError() {
	assignment, err := s.container.Assignments.Assign(
		s.ctx, testEntityID, s.receipt.TransactionID, s.invoice.TransactionID, decimal.NewFromInt(40), testUserID)
	s.Require().NoError(err)

	// The closed-period guard must not treat a storage failure as "no
	// period on file" and let the removal through.
	guarded := services.NewAssignmentService(
		s.repos.Assignments, s.repos.Transactions,
		failingPeriodRepo{s.repos.Periods}, events.NewRegistry(), true)

	err = guarded.Unassign(s.ctx, testEntityID, assignment.AssignmentID, testUserID)
	s.Require().Error(err)
	s.NotErrorIs(err, apperrors.ErrNotFound)

	remaining, err := s.container.Assignments.ListBySource(s.ctx, testEntityID, s.receipt.TransactionID)
	s.Require().NoError(err)
	s.Len(remaining, 1, "the assignment survives the failed removal")
}

func (s *AssignmentServiceTestSuite) TestAssignAllSpreadsOldestFirst() {
	older := s.invoice // dated day 5
	newer := s.postedTransaction(domain.ClientInvoice, s.receivable.AccountID, s.revenue.AccountID, 50, 20)

	created, err := s.container.Assignments.AssignAll(
		s.ctx, testEntityID, s.receipt.TransactionID,
		[]string{newer.TransactionID, older.TransactionID}, testUserID)
	s.Require().NoError(err)
	s.Require().Len(created, 1, "the older invoice absorbs the whole receipt")
	s.Equal(older.TransactionID, created[0].TargetTransactionID)
	s.True(created[0].Amount.Equal(decimal.NewFromInt(80)))
}

func (s *AssignmentServiceTestSuite) TestAssignAllFailsOnSpentSource() {
	_, err := s.container.Assignments.Assign(
		s.ctx, testEntityID, s.receipt.TransactionID, s.invoice.TransactionID, decimal.NewFromInt(80), testUserID)
	s.Require().NoError(err)

	_, err = s.container.Assignments.AssignAll(
		s.ctx, testEntityID, s.receipt.TransactionID, []string{s.invoice.TransactionID}, testUserID)
	s.ErrorIs(err, apperrors.ErrInsufficientBalance)
}
