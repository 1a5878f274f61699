package memory

import (
	"context"
	"sort"
	"time"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
)

type accountRepository struct{ store *Store }

func (r *accountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	byID := r.store.accounts[account.EntityID]
	if byID == nil {
		byID = make(map[string]domain.Account)
		r.store.accounts[account.EntityID] = byID
	}
	if account.Code != "" {
		for _, existing := range byID {
			if existing.Code == account.Code && !existing.IsDeleted() {
				return apperrors.ErrDuplicateAccountCode.WithContext("code", account.Code)
			}
		}
	}
	byID[account.AccountID] = account
	return nil
}

func (r *accountRepository) FindAccountByID(ctx context.Context, entityID, accountID string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	account, ok := r.store.accounts[entityID][accountID]
	if !ok {
		return nil, apperrors.ErrNotFound.WithContext("account_id", accountID)
	}
	return &account, nil
}

func (r *accountRepository) FindAccountsByIDs(ctx context.Context, entityID string, accountIDs []string) (map[string]domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	found := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if account, ok := r.store.accounts[entityID][id]; ok {
			found[id] = account
		}
	}
	return found, nil
}

func (r *accountRepository) FindAccountByCode(ctx context.Context, entityID, code string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, account := range r.store.accounts[entityID] {
		if account.Code == code && !account.IsDeleted() {
			a := account
			return &a, nil
		}
	}
	return nil, apperrors.ErrNotFound.WithContext("code", code)
}

func (r *accountRepository) ListAccounts(ctx context.Context, entityID string, includeDeleted bool) ([]domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	accounts := make([]domain.Account, 0, len(r.store.accounts[entityID]))
	for _, account := range r.store.accounts[entityID] {
		if account.IsDeleted() && !includeDeleted {
			continue
		}
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

func (r *accountRepository) SetAccountDeleted(ctx context.Context, entityID, accountID string, deletedAt *time.Time, userID string, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	account, ok := r.store.accounts[entityID][accountID]
	if !ok {
		return apperrors.ErrNotFound.WithContext("account_id", accountID)
	}
	account.DeletedAt = deletedAt
	account.Touch(userID, now)
	r.store.accounts[entityID][accountID] = account
	return nil
}

func (r *accountRepository) HasLedgerActivity(ctx context.Context, entityID, accountID string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, entry := range r.store.ledger[entityID] {
		if entry.AccountID == accountID {
			return true, nil
		}
	}
	return false, nil
}
