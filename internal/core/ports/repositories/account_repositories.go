package repositories

import (
	"context"
	"time"

	"github.com/corebooks/corebooks/internal/core/domain"
)

// AccountRepository persists chart-of-accounts nodes. Balances are never
// stored; they are derived from ledger rows (see LedgerRepository).
type AccountRepository interface {
	SaveAccount(ctx context.Context, account domain.Account) error
	FindAccountByID(ctx context.Context, entityID, accountID string) (*domain.Account, error)
	FindAccountsByIDs(ctx context.Context, entityID string, accountIDs []string) (map[string]domain.Account, error)
	// FindAccountByCode returns the non-deleted account with the given code,
	// or apperrors.ErrNotFound. Used to enforce per-entity code uniqueness.
	FindAccountByCode(ctx context.Context, entityID, code string) (*domain.Account, error)
	ListAccounts(ctx context.Context, entityID string, includeDeleted bool) ([]domain.Account, error)
	SetAccountDeleted(ctx context.Context, entityID, accountID string, deletedAt *time.Time, userID string, now time.Time) error
	// HasLedgerActivity reports whether any ledger row references the account.
	HasLedgerActivity(ctx context.Context, entityID, accountID string) (bool, error)
}
