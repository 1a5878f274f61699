package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
)

type assignmentRepository struct{ store *Store }

// CreateAssignment repeats the over-allocation check under the store lock,
// matching the row-locked re-check the pgsql implementation performs.
func (r *assignmentRepository) CreateAssignment(ctx context.Context, assignment domain.Assignment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	source, ok := r.store.txns[assignment.EntityID][assignment.SourceTransactionID]
	if !ok {
		return apperrors.ErrNotFound.WithContext("transaction_id", assignment.SourceTransactionID)
	}
	target, ok := r.store.txns[assignment.EntityID][assignment.TargetTransactionID]
	if !ok {
		return apperrors.ErrNotFound.WithContext("transaction_id", assignment.TargetTransactionID)
	}

	outgoing := r.sumLocked(assignment.EntityID, assignment.SourceTransactionID, true)
	if outgoing.Add(assignment.Amount).GreaterThan(source.Amount) {
		return apperrors.ErrOverAssignment.WithContext(
			"source_transaction_id", assignment.SourceTransactionID,
			"requested", assignment.Amount.String(),
			"unassigned", source.Amount.Sub(outgoing).String(),
		)
	}
	incoming := r.sumLocked(assignment.EntityID, assignment.TargetTransactionID, false)
	if incoming.Add(assignment.Amount).GreaterThan(target.Amount) {
		return apperrors.ErrOverAssignment.WithContext(
			"target_transaction_id", assignment.TargetTransactionID,
			"requested", assignment.Amount.String(),
			"outstanding", target.Amount.Sub(incoming).String(),
		)
	}

	byID := r.store.assignments[assignment.EntityID]
	if byID == nil {
		byID = make(map[string]domain.Assignment)
		r.store.assignments[assignment.EntityID] = byID
	}
	byID[assignment.AssignmentID] = assignment
	return nil
}

func (r *assignmentRepository) FindAssignmentByID(ctx context.Context, entityID, assignmentID string) (*domain.Assignment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	assignment, ok := r.store.assignments[entityID][assignmentID]
	if !ok || assignment.IsDeleted() {
		return nil, apperrors.ErrNotFound.WithContext("assignment_id", assignmentID)
	}
	return &assignment, nil
}

func (r *assignmentRepository) DeleteAssignment(ctx context.Context, entityID, assignmentID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	assignment, ok := r.store.assignments[entityID][assignmentID]
	if !ok || assignment.IsDeleted() {
		return apperrors.ErrNotFound.WithContext("assignment_id", assignmentID)
	}
	delete(r.store.assignments[entityID], assignmentID)
	return nil
}

func (r *assignmentRepository) ListAssignmentsBySource(ctx context.Context, entityID, transactionID string) ([]domain.Assignment, error) {
	return r.list(entityID, transactionID, true), nil
}

func (r *assignmentRepository) ListAssignmentsByTarget(ctx context.Context, entityID, transactionID string) ([]domain.Assignment, error) {
	return r.list(entityID, transactionID, false), nil
}

func (r *assignmentRepository) list(entityID, transactionID string, bySource bool) []domain.Assignment {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	assignments := make([]domain.Assignment, 0)
	for _, assignment := range r.store.assignments[entityID] {
		if assignment.IsDeleted() {
			continue
		}
		key := assignment.TargetTransactionID
		if bySource {
			key = assignment.SourceTransactionID
		}
		if key == transactionID {
			assignments = append(assignments, assignment)
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].AssignedAt.Before(assignments[j].AssignedAt)
	})
	return assignments
}

func (r *assignmentRepository) SumOutgoing(ctx context.Context, entityID, transactionID string) (decimal.Decimal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.sumLocked(entityID, transactionID, true), nil
}

func (r *assignmentRepository) SumIncoming(ctx context.Context, entityID, transactionID string) (decimal.Decimal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.sumLocked(entityID, transactionID, false), nil
}

// sumLocked requires the caller to hold the store lock (read or write).
func (r *assignmentRepository) sumLocked(entityID, transactionID string, outgoing bool) decimal.Decimal {
	total := decimal.Zero
	for _, assignment := range r.store.assignments[entityID] {
		if assignment.IsDeleted() {
			continue
		}
		key := assignment.TargetTransactionID
		if outgoing {
			key = assignment.SourceTransactionID
		}
		if key == transactionID {
			total = total.Add(assignment.Amount)
		}
	}
	return total
}
