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
	"github.com/corebooks/corebooks/internal/dto"
)

const transactionColumns = `transaction_id, entity_id, transaction_type, main_account_id, transaction_date, narration, reference, currency_code, credited, status, amount, created_at, created_by, last_updated_at, last_updated_by, deleted_at`

const lineItemColumns = `line_item_id, transaction_id, account_id, amount, quantity, narration, credited, tax_id, created_at, created_by, last_updated_at, last_updated_by, deleted_at`

type PgxTransactionRepository struct {
	BaseRepository
}

func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepository {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepository = (*PgxTransactionRepository)(nil)

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var txn domain.Transaction
	err := row.Scan(
		&txn.TransactionID,
		&txn.EntityID,
		&txn.TransactionType,
		&txn.MainAccountID,
		&txn.TransactionDate,
		&txn.Narration,
		&txn.Reference,
		&txn.CurrencyCode,
		&txn.Credited,
		&txn.Status,
		&txn.Amount,
		&txn.CreatedAt,
		&txn.CreatedBy,
		&txn.LastUpdatedAt,
		&txn.LastUpdatedBy,
		&txn.DeletedAt,
	)
	return txn, err
}

func scanLineItem(row pgx.Row) (domain.LineItem, error) {
	var item domain.LineItem
	err := row.Scan(
		&item.LineItemID,
		&item.TransactionID,
		&item.AccountID,
		&item.Amount,
		&item.Quantity,
		&item.Narration,
		&item.Credited,
		&item.TaxID,
		&item.CreatedAt,
		&item.CreatedBy,
		&item.LastUpdatedAt,
		&item.LastUpdatedBy,
		&item.DeletedAt,
	)
	return item, err
}

func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck

	if err := insertTransactionHeader(ctx, tx, txn); err != nil {
		return err
	}
	if err := insertLineItems(ctx, tx, txn.LineItems); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func insertTransactionHeader(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := tx.Exec(ctx, query,
		txn.TransactionID,
		txn.EntityID,
		txn.TransactionType,
		txn.MainAccountID,
		txn.TransactionDate,
		txn.Narration,
		txn.Reference,
		txn.CurrencyCode,
		txn.Credited,
		txn.Status,
		txn.Amount,
		txn.CreatedAt,
		txn.CreatedBy,
		txn.LastUpdatedAt,
		txn.LastUpdatedBy,
		txn.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}

func insertLineItems(ctx context.Context, tx pgx.Tx, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
		INSERT INTO line_items (` + lineItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	for _, item := range items {
		batch.Queue(query,
			item.LineItemID,
			item.TransactionID,
			item.AccountID,
			item.Amount,
			item.Quantity,
			item.Narration,
			item.Credited,
			item.TaxID,
			item.CreatedAt,
			item.CreatedBy,
			item.LastUpdatedAt,
			item.LastUpdatedBy,
			item.DeletedAt,
		)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for range items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert line item: %w", err)
		}
	}
	return nil
}

func (r *PgxTransactionRepository) UpdateDraftTransaction(ctx context.Context, txn domain.Transaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck

	// Lock and re-check the status inside the transaction so a concurrent
	// post cannot race the edit.
	var status domain.TransactionStatus
	err = tx.QueryRow(ctx,
		`SELECT status FROM transactions WHERE entity_id = $1 AND transaction_id = $2 FOR UPDATE;`,
		txn.EntityID, txn.TransactionID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound.WithContext("transaction_id", txn.TransactionID)
		}
		return fmt.Errorf("failed to lock transaction %s: %w", txn.TransactionID, err)
	}
	if status == domain.Posted {
		return apperrors.ErrPostedTransaction.WithContext("transaction_id", txn.TransactionID)
	}

	updateQuery := `
		UPDATE transactions
		SET narration = $3, reference = $4, transaction_date = $5, credited = $6,
			last_updated_at = $7, last_updated_by = $8
		WHERE entity_id = $1 AND transaction_id = $2;
	`
	if _, err := tx.Exec(ctx, updateQuery,
		txn.EntityID, txn.TransactionID,
		txn.Narration, txn.Reference, txn.TransactionDate, txn.Credited,
		txn.LastUpdatedAt, txn.LastUpdatedBy,
	); err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", txn.TransactionID, err)
	}

	// Line items are replaced wholesale; drafts are small.
	if _, err := tx.Exec(ctx,
		`DELETE FROM line_items WHERE transaction_id = $1;`, txn.TransactionID,
	); err != nil {
		return fmt.Errorf("failed to clear line items for %s: %w", txn.TransactionID, err)
	}
	if err := insertLineItems(ctx, tx, txn.LineItems); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, entityID, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE entity_id = $1 AND transaction_id = $2;`
	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, entityID, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound.WithContext("transaction_id", transactionID)
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}

	items, err := r.loadLineItems(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	txn.LineItems = items
	return &txn, nil
}

func (r *PgxTransactionRepository) loadLineItems(ctx context.Context, transactionID string) ([]domain.LineItem, error) {
	query := `SELECT ` + lineItemColumns + ` FROM line_items WHERE transaction_id = $1 ORDER BY created_at, line_item_id;`
	rows, err := r.Pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items for %s: %w", transactionID, err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LineItem, error) {
		return scanLineItem(row)
	})
}

func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, entityID string, filter dto.TransactionFilter) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE entity_id = $1`
	args := []any{entityID}
	if !filter.IncludeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	if filter.TransactionType != nil {
		args = append(args, *filter.TransactionType)
		query += fmt.Sprintf(` AND transaction_type = $%d`, len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(` AND transaction_date >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(` AND transaction_date <= $%d`, len(args))
	}
	query += ` ORDER BY transaction_date, transaction_id;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Transaction, error) {
		return scanTransaction(row)
	})
	if err != nil {
		return nil, err
	}

	for i := range txns {
		items, err := r.loadLineItems(ctx, txns[i].TransactionID)
		if err != nil {
			return nil, err
		}
		txns[i].LineItems = items
	}
	return txns, nil
}

// PostTransaction is the atomic posting unit of work. Within one database
// transaction it:
//  1. share-locks the reporting period row and re-checks it is not CLOSED,
//     so a period transition serializes against the post;
//  2. locks the transaction row and re-checks it is still DRAFT;
//  3. reads the entity's ledger head (last sequence and hash) under an
//     exclusive advisory position given by the unique sequence index;
//  4. chains and inserts the ledger rows and flips the document to POSTED.
func (r *PgxTransactionRepository) PostTransaction(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry, periodID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck

	var periodStatus domain.PeriodStatus
	err = tx.QueryRow(ctx,
		`SELECT status FROM reporting_periods WHERE entity_id = $1 AND period_id = $2 FOR SHARE;`,
		txn.EntityID, periodID,
	).Scan(&periodStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound.WithContext("period_id", periodID)
		}
		return fmt.Errorf("failed to lock period %s: %w", periodID, err)
	}
	if periodStatus == domain.PeriodClosed {
		return apperrors.ErrClosedReportingPeriod.WithContext("period_id", periodID)
	}

	var status domain.TransactionStatus
	err = tx.QueryRow(ctx,
		`SELECT status FROM transactions WHERE entity_id = $1 AND transaction_id = $2 FOR UPDATE;`,
		txn.EntityID, txn.TransactionID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound.WithContext("transaction_id", txn.TransactionID)
		}
		return fmt.Errorf("failed to lock transaction %s: %w", txn.TransactionID, err)
	}
	if status == domain.Posted {
		return apperrors.ErrPostedTransaction.WithContext("transaction_id", txn.TransactionID)
	}

	var lastSeq int64
	var lastHash string
	err = tx.QueryRow(ctx,
		`SELECT sequence_no, hash FROM ledger_entries WHERE entity_id = $1 ORDER BY sequence_no DESC LIMIT 1 FOR UPDATE;`,
		txn.EntityID,
	).Scan(&lastSeq, &lastHash)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to read ledger head: %w", err)
	}

	prevHash := lastHash
	for i := range entries {
		lastSeq++
		entries[i].SequenceNo = lastSeq
		entries[i].Hash = domain.ChainHash(prevHash, entries[i])
		prevHash = entries[i].Hash
	}

	batch := &pgx.Batch{}
	insertQuery := `
		INSERT INTO ledger_entries (ledger_id, entity_id, transaction_id, line_item_id, account_id, entry_type, amount, currency_code, posted_date, sequence_no, hash, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	for _, entry := range entries {
		batch.Queue(insertQuery,
			entry.LedgerID,
			entry.EntityID,
			entry.TransactionID,
			entry.LineItemID,
			entry.AccountID,
			entry.EntryType,
			entry.Amount,
			entry.CurrencyCode,
			entry.PostedDate,
			entry.SequenceNo,
			entry.Hash,
			entry.CreatedAt,
			entry.CreatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for range entries {
		if _, err := br.Exec(); err != nil {
			br.Close()
			// The unique (entity_id, sequence_no) index turns a lost race
			// into a retryable conflict rather than a forked chain.
			if isUniqueViolation(err) {
				return apperrors.ErrDuplicate.Wrap(err)
			}
			return fmt.Errorf("failed to insert ledger row: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to flush ledger batch: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE transactions SET status = $3, amount = $4, last_updated_at = $5, last_updated_by = $6
		 WHERE entity_id = $1 AND transaction_id = $2;`,
		txn.EntityID, txn.TransactionID,
		txn.Status, txn.Amount, txn.LastUpdatedAt, txn.LastUpdatedBy,
	); err != nil {
		return fmt.Errorf("failed to mark transaction posted: %w", err)
	}
	return r.Commit(ctx, tx)
}

func (r *PgxTransactionRepository) SetTransactionDeleted(ctx context.Context, entityID, transactionID string, deletedAt *time.Time, userID string, now time.Time) error {
	query := `
		UPDATE transactions
		SET deleted_at = $3, last_updated_by = $4, last_updated_at = $5
		WHERE entity_id = $1 AND transaction_id = $2;
	`
	tag, err := r.Pool.Exec(ctx, query, entityID, transactionID, deletedAt, userID, now)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound.WithContext("transaction_id", transactionID)
	}
	return nil
}

type PgxLedgerRepository struct {
	BaseRepository
}

func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepository = (*PgxLedgerRepository)(nil)

const ledgerColumns = `ledger_id, entity_id, transaction_id, line_item_id, account_id, entry_type, amount, currency_code, posted_date, sequence_no, hash, created_at, created_by`

func scanLedgerEntry(row pgx.Row) (domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	err := row.Scan(
		&entry.LedgerID,
		&entry.EntityID,
		&entry.TransactionID,
		&entry.LineItemID,
		&entry.AccountID,
		&entry.EntryType,
		&entry.Amount,
		&entry.CurrencyCode,
		&entry.PostedDate,
		&entry.SequenceNo,
		&entry.Hash,
		&entry.CreatedAt,
		&entry.CreatedBy,
	)
	return entry, err
}

func (r *PgxLedgerRepository) ListEntriesByAccount(ctx context.Context, entityID, accountID string, from, to *time.Time) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE entity_id = $1 AND account_id = $2`
	args := []any{entityID, accountID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(` AND posted_date >= $%d`, len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(` AND posted_date <= $%d`, len(args))
	}
	query += ` ORDER BY sequence_no;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger rows: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LedgerEntry, error) {
		return scanLedgerEntry(row)
	})
}

func (r *PgxLedgerRepository) ListEntriesByEntity(ctx context.Context, entityID string, afterSequence int64, limit int) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE entity_id = $1 AND sequence_no > $2
		ORDER BY sequence_no
		LIMIT $3;
	`
	rows, err := r.Pool.Query(ctx, query, entityID, afterSequence, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to page ledger rows: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LedgerEntry, error) {
		return scanLedgerEntry(row)
	})
}

func (r *PgxLedgerRepository) LastEntry(ctx context.Context, entityID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE entity_id = $1 ORDER BY sequence_no DESC LIMIT 1;`
	entry, err := scanLedgerEntry(r.Pool.QueryRow(ctx, query, entityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound.WithContext("entity_id", entityID)
		}
		return nil, fmt.Errorf("failed to read ledger head: %w", err)
	}
	return &entry, nil
}
