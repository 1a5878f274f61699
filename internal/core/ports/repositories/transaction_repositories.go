package repositories

import (
	"context"
	"time"

	"github.com/corebooks/corebooks/internal/core/domain"
	"github.com/corebooks/corebooks/internal/dto"
)

// TransactionRepository persists transaction documents and their line
// items, and owns the atomic posting unit of work.
type TransactionRepository interface {
	// SaveTransaction inserts a new draft with its line items.
	SaveTransaction(ctx context.Context, txn domain.Transaction) error
	// UpdateDraftTransaction replaces the header and line items of a DRAFT
	// transaction. Posted transactions are rejected upstream.
	UpdateDraftTransaction(ctx context.Context, txn domain.Transaction) error
	// FindTransactionByID loads the transaction including its line items.
	// Soft-deleted transactions are returned with DeletedAt set.
	FindTransactionByID(ctx context.Context, entityID, transactionID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, entityID string, filter dto.TransactionFilter) ([]domain.Transaction, error)
	// PostTransaction atomically flips the transaction to POSTED, freezes
	// its settled amount, and appends the hash-chained ledger rows. The
	// reporting period row is share-locked for the duration so a period
	// transition cannot land mid-commit. All-or-nothing.
	PostTransaction(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry, periodID string) error
	// SetTransactionDeleted soft-deletes (non-nil deletedAt) or restores
	// (nil) a transaction. Ledger rows are never touched.
	SetTransactionDeleted(ctx context.Context, entityID, transactionID string, deletedAt *time.Time, userID string, now time.Time) error
}

// LedgerRepository reads the append-only posted journal. The only writer is
// TransactionRepository.PostTransaction.
type LedgerRepository interface {
	// ListEntriesByAccount returns the account's rows with posted date in
	// [from, to]; nil bounds are open-ended. Ordered by sequence.
	ListEntriesByAccount(ctx context.Context, entityID, accountID string, from, to *time.Time) ([]domain.LedgerEntry, error)
	// ListEntriesByEntity pages through all of an entity's rows in sequence
	// order, starting strictly after afterSequence.
	ListEntriesByEntity(ctx context.Context, entityID string, afterSequence int64, limit int) ([]domain.LedgerEntry, error)
	// LastEntry returns the highest-sequence row for the entity, or
	// apperrors.ErrNotFound for an empty ledger.
	LastEntry(ctx context.Context, entityID string) (*domain.LedgerEntry, error)
}
