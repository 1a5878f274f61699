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
)

const accountColumns = `account_id, entity_id, name, account_type, currency_code, code, category, description, created_at, created_by, last_updated_at, last_updated_by, deleted_at`

type PgxAccountRepository struct {
	BaseRepository
}

func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepository = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.AccountID,
		&account.EntityID,
		&account.Name,
		&account.AccountType,
		&account.CurrencyCode,
		&account.Code,
		&account.Category,
		&account.Description,
		&account.CreatedAt,
		&account.CreatedBy,
		&account.LastUpdatedAt,
		&account.LastUpdatedBy,
		&account.DeletedAt,
	)
	return account, err
}

func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.Pool.Exec(ctx, query,
		account.AccountID,
		account.EntityID,
		account.Name,
		account.AccountType,
		account.CurrencyCode,
		account.Code,
		account.Category,
		account.Description,
		account.CreatedAt,
		account.CreatedBy,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
		account.DeletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateAccountCode.WithContext("code", account.Code)
		}
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return nil
}

func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, entityID, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE entity_id = $1 AND account_id = $2;`
	account, err := scanAccount(r.Pool.QueryRow(ctx, query, entityID, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound.WithContext("account_id", accountID)
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	return &account, nil
}

func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, entityID string, accountIDs []string) (map[string]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE entity_id = $1 AND account_id = ANY($2);`
	rows, err := r.Pool.Query(ctx, query, entityID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by ids: %w", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts[account.AccountID] = account
	}
	return accounts, rows.Err()
}

func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, entityID, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE entity_id = $1 AND code = $2 AND deleted_at IS NULL;`
	account, err := scanAccount(r.Pool.QueryRow(ctx, query, entityID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound.WithContext("code", code)
		}
		return nil, fmt.Errorf("failed to find account by code %s: %w", code, err)
	}
	return &account, nil
}

func (r *PgxAccountRepository) ListAccounts(ctx context.Context, entityID string, includeDeleted bool) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE entity_id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY name;`

	rows, err := r.Pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Account, error) {
		return scanAccount(row)
	})
}

func (r *PgxAccountRepository) SetAccountDeleted(ctx context.Context, entityID, accountID string, deletedAt *time.Time, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET deleted_at = $3, last_updated_by = $4, last_updated_at = $5
		WHERE entity_id = $1 AND account_id = $2;
	`
	tag, err := r.Pool.Exec(ctx, query, entityID, accountID, deletedAt, userID, now)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound.WithContext("account_id", accountID)
	}
	return nil
}

func (r *PgxAccountRepository) HasLedgerActivity(ctx context.Context, entityID, accountID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE entity_id = $1 AND account_id = $2);`
	var exists bool
	if err := r.Pool.QueryRow(ctx, query, entityID, accountID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check ledger activity for account %s: %w", accountID, err)
	}
	return exists, nil
}
