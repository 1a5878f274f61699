package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/corebooks/corebooks/internal/core/domain"
)

// AssignmentRepository persists cross-transaction allocations.
type AssignmentRepository interface {
	// CreateAssignment persists the assignment after re-checking, under row
	// locks on both endpoint transactions (taken in ID order), that it does
	// not over-allocate either side. Returns apperrors.ErrOverAssignment
	// when the locked re-check fails.
	CreateAssignment(ctx context.Context, assignment domain.Assignment) error
	FindAssignmentByID(ctx context.Context, entityID, assignmentID string) (*domain.Assignment, error)
	DeleteAssignment(ctx context.Context, entityID, assignmentID string) error
	ListAssignmentsBySource(ctx context.Context, entityID, transactionID string) ([]domain.Assignment, error)
	ListAssignmentsByTarget(ctx context.Context, entityID, transactionID string) ([]domain.Assignment, error)
	// SumOutgoing and SumIncoming total the live assignments where the
	// transaction is the source / the target respectively.
	SumOutgoing(ctx context.Context, entityID, transactionID string) (decimal.Decimal, error)
	SumIncoming(ctx context.Context, entityID, transactionID string) (decimal.Decimal, error)
}
