package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	"github.com/corebooks/corebooks/internal/core/events"
	portsrepo "github.com/corebooks/corebooks/internal/core/ports/repositories"
)

// AssignmentService allocates amounts from transactions with funds
// available (receipts, payments, credit journals) against the clearable
// transactions they settle. Both sides' totals are capped: a source can
// never hand out more than its settled amount, a target can never absorb
// more than its outstanding amount.
type AssignmentService struct {
	BaseService
	assignmentRepo portsrepo.AssignmentRepository
	txnRepo        portsrepo.TransactionRepository
	periodRepo     portsrepo.ReportingPeriodRepository
	registry       *events.Registry
	// blockUnassignInClosedPeriods refuses to remove assignments whose
	// endpoint transactions fall in a CLOSED period, keeping closed-period
	// clearing state frozen.
	blockUnassignInClosedPeriods bool
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	assignmentRepo portsrepo.AssignmentRepository,
	txnRepo portsrepo.TransactionRepository,
	periodRepo portsrepo.ReportingPeriodRepository,
	registry *events.Registry,
	blockUnassignInClosedPeriods bool,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo:               assignmentRepo,
		txnRepo:                      txnRepo,
		periodRepo:                   periodRepo,
		registry:                     registry,
		blockUnassignInClosedPeriods: blockUnassignInClosedPeriods,
	}
}

// Assign allocates amount from the source transaction against the target.
// The service-level check reads current sums; the repository repeats it
// under row locks on both transactions so concurrent assignments cannot
// jointly overshoot.
func (s *AssignmentService) Assign(ctx context.Context, entityID, sourceID, targetID string, amount decimal.Decimal, userID string) (*domain.Assignment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.ErrNegativeAmount.WithContext("amount", amount.String())
	}
	if sourceID == targetID {
		return nil, apperrors.ErrSelfAssignment.WithContext("transaction_id", sourceID)
	}

	source, target, err := s.loadEndpoints(ctx, entityID, sourceID, targetID)
	if err != nil {
		return nil, err
	}

	unassigned, err := s.Unallocated(ctx, entityID, source)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(unassigned) {
		return nil, apperrors.ErrOverAssignment.WithContext(
			"source_transaction_id", sourceID,
			"requested", amount.String(),
			"unassigned", unassigned.String(),
		)
	}

	outstanding, err := s.Outstanding(ctx, entityID, target)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(outstanding) {
		return nil, apperrors.ErrOverAssignment.WithContext(
			"target_transaction_id", targetID,
			"requested", amount.String(),
			"outstanding", outstanding.String(),
		)
	}

	now := time.Now().UTC()
	assignment := domain.Assignment{
		AssignmentID:        uuid.NewString(),
		EntityID:            entityID,
		SourceTransactionID: sourceID,
		TargetTransactionID: targetID,
		Amount:              amount,
		AssignedAt:          now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.assignmentRepo.CreateAssignment(ctx, assignment); err != nil {
		s.LogError(ctx, err, "Failed to create assignment",
			slog.String("source_transaction_id", sourceID),
			slog.String("target_transaction_id", targetID))
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.registry.Emit(ctx, events.AssignmentCreated, entityID, map[string]any{
		"assignment_id":         assignment.AssignmentID,
		"source_transaction_id": sourceID,
		"target_transaction_id": targetID,
		"amount":                amount.String(),
	})
	s.LogInfo(ctx, "Assignment created",
		slog.String("assignment_id", assignment.AssignmentID),
		slog.String("amount", amount.String()))
	return &assignment, nil
}

// loadEndpoints loads and validates both transactions of a prospective
// assignment: posted, not deleted, and a type pairing the behavior table
// permits.
func (s *AssignmentService) loadEndpoints(ctx context.Context, entityID, sourceID, targetID string) (*domain.Transaction, *domain.Transaction, error) {
	source, err := s.txnRepo.FindTransactionByID(ctx, entityID, sourceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find source transaction %s: %w", sourceID, err)
	}
	target, err := s.txnRepo.FindTransactionByID(ctx, entityID, targetID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find target transaction %s: %w", targetID, err)
	}

	for _, txn := range []*domain.Transaction{source, target} {
		if !txn.IsPosted() {
			return nil, nil, apperrors.ErrInvalidAssignment.WithContext(
				"transaction_id", txn.TransactionID, "reason", "transaction is not posted")
		}
		if txn.IsDeleted() {
			return nil, nil, apperrors.ErrInvalidAssignment.WithContext(
				"transaction_id", txn.TransactionID, "reason", "transaction is deleted")
		}
	}
	if !source.TransactionType.CanAssignTo(target.TransactionType) {
		return nil, nil, apperrors.ErrInvalidAssignment.WithContext(
			"source_type", string(source.TransactionType),
			"target_type", string(target.TransactionType),
		)
	}
	return source, target, nil
}

// Unallocated returns how much of the source's settled amount has not yet
// been assigned out.
func (s *AssignmentService) Unallocated(ctx context.Context, entityID string, source *domain.Transaction) (decimal.Decimal, error) {
	outgoing, err := s.assignmentRepo.SumOutgoing(ctx, entityID, source.TransactionID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum outgoing assignments: %w", err)
	}
	return source.Amount.Sub(outgoing), nil
}

// Outstanding returns how much of the target's settled amount remains
// uncleared.
func (s *AssignmentService) Outstanding(ctx context.Context, entityID string, target *domain.Transaction) (decimal.Decimal, error) {
	incoming, err := s.assignmentRepo.SumIncoming(ctx, entityID, target.TransactionID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum incoming assignments: %w", err)
	}
	return target.Amount.Sub(incoming), nil
}

// AssignAll spreads the source's unassigned balance over the given targets
// oldest-first until either the balance or the targets run out. Returns the
// assignments created. A source with nothing left to allocate fails with
// InsufficientBalance rather than silently creating nothing.
func (s *AssignmentService) AssignAll(ctx context.Context, entityID, sourceID string, targetIDs []string, userID string) ([]domain.Assignment, error) {
	source, err := s.txnRepo.FindTransactionByID(ctx, entityID, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find source transaction %s: %w", sourceID, err)
	}

	targets := make([]*domain.Transaction, 0, len(targetIDs))
	for _, id := range targetIDs {
		target, err := s.txnRepo.FindTransactionByID(ctx, entityID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to find target transaction %s: %w", id, err)
		}
		targets = append(targets, target)
	}
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].TransactionDate.Before(targets[j].TransactionDate)
	})

	remaining, err := s.Unallocated(ctx, entityID, source)
	if err != nil {
		return nil, err
	}
	if remaining.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.ErrInsufficientBalance.WithContext(
			"source_transaction_id", sourceID, "unassigned", remaining.String())
	}

	var created []domain.Assignment
	for _, target := range targets {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		outstanding, err := s.Outstanding(ctx, entityID, target)
		if err != nil {
			return nil, err
		}
		if outstanding.LessThanOrEqual(decimal.Zero) {
			continue
		}
		amount := decimal.Min(remaining, outstanding)
		assignment, err := s.Assign(ctx, entityID, sourceID, target.TransactionID, amount, userID)
		if err != nil {
			return created, err
		}
		created = append(created, *assignment)
		remaining = remaining.Sub(amount)
	}
	return created, nil
}

// Unassign removes an assignment, releasing its amount on both sides. When
// closed-period protection is on, assignments whose endpoints are dated in
// a CLOSED period cannot be removed.
func (s *AssignmentService) Unassign(ctx context.Context, entityID, assignmentID, userID string) error {
	assignment, err := s.assignmentRepo.FindAssignmentByID(ctx, entityID, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to find assignment %s: %w", assignmentID, err)
	}

	if s.blockUnassignInClosedPeriods {
		for _, txnID := range []string{assignment.SourceTransactionID, assignment.TargetTransactionID} {
			txn, err := s.txnRepo.FindTransactionByID(ctx, entityID, txnID)
			if err != nil {
				return fmt.Errorf("failed to find transaction %s: %w", txnID, err)
			}
			period, err := s.periodRepo.FindPeriodForDate(ctx, entityID, txn.TransactionDate)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					continue // no period on file means nothing to protect
				}
				return fmt.Errorf("failed to find period for transaction %s: %w", txnID, err)
			}
			if period.Status == domain.PeriodClosed {
				return apperrors.ErrClosedReportingPeriod.WithContext(
					"assignment_id", assignmentID,
					"transaction_id", txnID,
					"period_id", period.PeriodID,
				)
			}
		}
	}

	if err := s.assignmentRepo.DeleteAssignment(ctx, entityID, assignmentID); err != nil {
		return fmt.Errorf("failed to delete assignment %s: %w", assignmentID, err)
	}

	s.registry.Emit(ctx, events.AssignmentRemoved, entityID, map[string]any{
		"assignment_id":         assignmentID,
		"source_transaction_id": assignment.SourceTransactionID,
		"target_transaction_id": assignment.TargetTransactionID,
		"amount":                assignment.Amount.String(),
	})
	s.LogInfo(ctx, "Assignment removed", slog.String("assignment_id", assignmentID))
	return nil
}

// ListBySource returns the live assignments where the transaction hands
// funds out.
func (s *AssignmentService) ListBySource(ctx context.Context, entityID, transactionID string) ([]domain.Assignment, error) {
	assignments, err := s.assignmentRepo.ListAssignmentsBySource(ctx, entityID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments by source: %w", err)
	}
	return assignments, nil
}

// ListByTarget returns the live assignments clearing the transaction.
func (s *AssignmentService) ListByTarget(ctx context.Context, entityID, transactionID string) ([]domain.Assignment, error) {
	assignments, err := s.assignmentRepo.ListAssignmentsByTarget(ctx, entityID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments by target: %w", err)
	}
	return assignments, nil
}
