package pgsql

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	portsrepo "github.com/corebooks/corebooks/internal/core/ports/repositories"
)

const assignmentColumns = `assignment_id, entity_id, source_transaction_id, target_transaction_id, amount, assigned_at, created_at, created_by, last_updated_at, last_updated_by, deleted_at`

type PgxAssignmentRepository struct {
	BaseRepository
}

func newPgxAssignmentRepository(pool *pgxpool.Pool) portsrepo.AssignmentRepository {
	return &PgxAssignmentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AssignmentRepository = (*PgxAssignmentRepository)(nil)

func scanAssignment(row pgx.Row) (domain.Assignment, error) {
	var assignment domain.Assignment
	err := row.Scan(
		&assignment.AssignmentID,
		&assignment.EntityID,
		&assignment.SourceTransactionID,
		&assignment.TargetTransactionID,
		&assignment.Amount,
		&assignment.AssignedAt,
		&assignment.CreatedAt,
		&assignment.CreatedBy,
		&assignment.LastUpdatedAt,
		&assignment.LastUpdatedBy,
		&assignment.DeletedAt,
	)
	return assignment, err
}

// CreateAssignment re-checks both allocation caps under FOR UPDATE locks on
// the endpoint transaction rows, taken in ID order to avoid deadlocks
// between concurrent assignments touching the same pair.
func (r *PgxAssignmentRepository) CreateAssignment(ctx context.Context, assignment domain.Assignment) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck

	lockOrder := []string{assignment.SourceTransactionID, assignment.TargetTransactionID}
	sort.Strings(lockOrder)
	amounts := make(map[string]decimal.Decimal, 2)
	for _, txnID := range lockOrder {
		var amount decimal.Decimal
		err := tx.QueryRow(ctx,
			`SELECT amount FROM transactions WHERE entity_id = $1 AND transaction_id = $2 FOR UPDATE;`,
			assignment.EntityID, txnID,
		).Scan(&amount)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrNotFound.WithContext("transaction_id", txnID)
			}
			return fmt.Errorf("failed to lock transaction %s: %w", txnID, err)
		}
		amounts[txnID] = amount
	}

	var outgoing decimal.Decimal
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM assignments
		 WHERE entity_id = $1 AND source_transaction_id = $2 AND deleted_at IS NULL;`,
		assignment.EntityID, assignment.SourceTransactionID,
	).Scan(&outgoing)
	if err != nil {
		return fmt.Errorf("failed to sum outgoing assignments: %w", err)
	}
	if outgoing.Add(assignment.Amount).GreaterThan(amounts[assignment.SourceTransactionID]) {
		return apperrors.ErrOverAssignment.WithContext(
			"source_transaction_id", assignment.SourceTransactionID,
			"requested", assignment.Amount.String(),
			"unassigned", amounts[assignment.SourceTransactionID].Sub(outgoing).String(),
		)
	}

	var incoming decimal.Decimal
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM assignments
		 WHERE entity_id = $1 AND target_transaction_id = $2 AND deleted_at IS NULL;`,
		assignment.EntityID, assignment.TargetTransactionID,
	).Scan(&incoming)
	if err != nil {
		return fmt.Errorf("failed to sum incoming assignments: %w", err)
	}
	if incoming.Add(assignment.Amount).GreaterThan(amounts[assignment.TargetTransactionID]) {
		return apperrors.ErrOverAssignment.WithContext(
			"target_transaction_id", assignment.TargetTransactionID,
			"requested", assignment.Amount.String(),
			"outstanding", amounts[assignment.TargetTransactionID].Sub(incoming).String(),
		)
	}

	insertQuery := `
		INSERT INTO assignments (` + assignmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	if _, err := tx.Exec(ctx, insertQuery,
		assignment.AssignmentID,
		assignment.EntityID,
		assignment.SourceTransactionID,
		assignment.TargetTransactionID,
		assignment.Amount,
		assignment.AssignedAt,
		assignment.CreatedAt,
		assignment.CreatedBy,
		assignment.LastUpdatedAt,
		assignment.LastUpdatedBy,
		assignment.DeletedAt,
	); err != nil {
		return fmt.Errorf("failed to insert assignment %s: %w", assignment.AssignmentID, err)
	}
	return r.Commit(ctx, tx)
}

func (r *PgxAssignmentRepository) FindAssignmentByID(ctx context.Context, entityID, assignmentID string) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE entity_id = $1 AND assignment_id = $2 AND deleted_at IS NULL;`
	assignment, err := scanAssignment(r.Pool.QueryRow(ctx, query, entityID, assignmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound.WithContext("assignment_id", assignmentID)
		}
		return nil, fmt.Errorf("failed to find assignment %s: %w", assignmentID, err)
	}
	return &assignment, nil
}

func (r *PgxAssignmentRepository) DeleteAssignment(ctx context.Context, entityID, assignmentID string) error {
	tag, err := r.Pool.Exec(ctx,
		`DELETE FROM assignments WHERE entity_id = $1 AND assignment_id = $2;`,
		entityID, assignmentID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete assignment %s: %w", assignmentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound.WithContext("assignment_id", assignmentID)
	}
	return nil
}

func (r *PgxAssignmentRepository) ListAssignmentsBySource(ctx context.Context, entityID, transactionID string) ([]domain.Assignment, error) {
	return r.list(ctx, entityID, transactionID, "source_transaction_id")
}

func (r *PgxAssignmentRepository) ListAssignmentsByTarget(ctx context.Context, entityID, transactionID string) ([]domain.Assignment, error) {
	return r.list(ctx, entityID, transactionID, "target_transaction_id")
}

func (r *PgxAssignmentRepository) list(ctx context.Context, entityID, transactionID, column string) ([]domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE entity_id = $1 AND ` + column + ` = $2 AND deleted_at IS NULL ORDER BY assigned_at;`
	rows, err := r.Pool.Query(ctx, query, entityID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Assignment, error) {
		return scanAssignment(row)
	})
}

func (r *PgxAssignmentRepository) SumOutgoing(ctx context.Context, entityID, transactionID string) (decimal.Decimal, error) {
	return r.sum(ctx, entityID, transactionID, "source_transaction_id")
}

func (r *PgxAssignmentRepository) SumIncoming(ctx context.Context, entityID, transactionID string) (decimal.Decimal, error) {
	return r.sum(ctx, entityID, transactionID, "target_transaction_id")
}

func (r *PgxAssignmentRepository) sum(ctx context.Context, entityID, transactionID, column string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM assignments WHERE entity_id = $1 AND ` + column + ` = $2 AND deleted_at IS NULL;`
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, entityID, transactionID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum assignments: %w", err)
	}
	return total, nil
}
