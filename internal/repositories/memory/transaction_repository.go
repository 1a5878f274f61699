package memory

import (
	"context"
	"sort"
	"time"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	"github.com/corebooks/corebooks/internal/dto"
)

type transactionRepository struct{ store *Store }

func (r *transactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	byID := r.store.txns[txn.EntityID]
	if byID == nil {
		byID = make(map[string]domain.Transaction)
		r.store.txns[txn.EntityID] = byID
	}
	if _, ok := byID[txn.TransactionID]; ok {
		return apperrors.ErrDuplicate.WithContext("transaction_id", txn.TransactionID)
	}
	byID[txn.TransactionID] = cloneTransaction(txn)
	return nil
}

func (r *transactionRepository) UpdateDraftTransaction(ctx context.Context, txn domain.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.txns[txn.EntityID][txn.TransactionID]
	if !ok {
		return apperrors.ErrNotFound.WithContext("transaction_id", txn.TransactionID)
	}
	if stored.IsPosted() {
		return apperrors.ErrPostedTransaction.WithContext("transaction_id", txn.TransactionID)
	}
	r.store.txns[txn.EntityID][txn.TransactionID] = cloneTransaction(txn)
	return nil
}

func (r *transactionRepository) FindTransactionByID(ctx context.Context, entityID, transactionID string) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	txn, ok := r.store.txns[entityID][transactionID]
	if !ok {
		return nil, apperrors.ErrNotFound.WithContext("transaction_id", transactionID)
	}
	clone := cloneTransaction(txn)
	return &clone, nil
}

func (r *transactionRepository) ListTransactions(ctx context.Context, entityID string, filter dto.TransactionFilter) ([]domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	txns := make([]domain.Transaction, 0, len(r.store.txns[entityID]))
	for _, txn := range r.store.txns[entityID] {
		if txn.IsDeleted() && !filter.IncludeDeleted {
			continue
		}
		if filter.TransactionType != nil && txn.TransactionType != *filter.TransactionType {
			continue
		}
		if filter.From != nil && txn.TransactionDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && txn.TransactionDate.After(*filter.To) {
			continue
		}
		txns = append(txns, cloneTransaction(txn))
	}
	sort.Slice(txns, func(i, j int) bool {
		if !txns[i].TransactionDate.Equal(txns[j].TransactionDate) {
			return txns[i].TransactionDate.Before(txns[j].TransactionDate)
		}
		return txns[i].TransactionID < txns[j].TransactionID
	})
	return txns, nil
}

// PostTransaction mirrors the pgsql unit of work: under the store lock it
// flips the document to POSTED, issues the next sequence numbers and chains
// each row's hash onto the previous one.
func (r *transactionRepository) PostTransaction(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry, periodID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.txns[txn.EntityID][txn.TransactionID]
	if !ok {
		return apperrors.ErrNotFound.WithContext("transaction_id", txn.TransactionID)
	}
	if stored.IsPosted() {
		return apperrors.ErrPostedTransaction.WithContext("transaction_id", txn.TransactionID)
	}

	period, ok := r.store.periods[txn.EntityID][periodID]
	if !ok {
		return apperrors.ErrNotFound.WithContext("period_id", periodID)
	}
	if period.Status == domain.PeriodClosed {
		return apperrors.ErrClosedReportingPeriod.WithContext("period_id", periodID)
	}

	prevHash := ""
	rows := r.store.ledger[txn.EntityID]
	if len(rows) > 0 {
		prevHash = rows[len(rows)-1].Hash
	}
	seq := r.store.sequences[txn.EntityID]
	for i := range entries {
		seq++
		entries[i].SequenceNo = seq
		entries[i].Hash = domain.ChainHash(prevHash, entries[i])
		prevHash = entries[i].Hash
	}
	r.store.sequences[txn.EntityID] = seq
	r.store.ledger[txn.EntityID] = append(rows, entries...)
	r.store.txns[txn.EntityID][txn.TransactionID] = cloneTransaction(txn)
	return nil
}

func (r *transactionRepository) SetTransactionDeleted(ctx context.Context, entityID, transactionID string, deletedAt *time.Time, userID string, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	txn, ok := r.store.txns[entityID][transactionID]
	if !ok {
		return apperrors.ErrNotFound.WithContext("transaction_id", transactionID)
	}
	txn.DeletedAt = deletedAt
	txn.Touch(userID, now)
	r.store.txns[entityID][transactionID] = txn
	return nil
}

func cloneTransaction(txn domain.Transaction) domain.Transaction {
	clone := txn
	clone.LineItems = make([]domain.LineItem, len(txn.LineItems))
	copy(clone.LineItems, txn.LineItems)
	return clone
}

type ledgerRepository struct{ store *Store }

func (r *ledgerRepository) ListEntriesByAccount(ctx context.Context, entityID, accountID string, from, to *time.Time) ([]domain.LedgerEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	entries := make([]domain.LedgerEntry, 0)
	for _, entry := range r.store.ledger[entityID] {
		if entry.AccountID != accountID {
			continue
		}
		if from != nil && entry.PostedDate.Before(*from) {
			continue
		}
		if to != nil && entry.PostedDate.After(*to) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *ledgerRepository) ListEntriesByEntity(ctx context.Context, entityID string, afterSequence int64, limit int) ([]domain.LedgerEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	entries := make([]domain.LedgerEntry, 0, limit)
	for _, entry := range r.store.ledger[entityID] {
		if entry.SequenceNo <= afterSequence {
			continue
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

func (r *ledgerRepository) LastEntry(ctx context.Context, entityID string) (*domain.LedgerEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rows := r.store.ledger[entityID]
	if len(rows) == 0 {
		return nil, apperrors.ErrNotFound.WithContext("entity_id", entityID)
	}
	last := rows[len(rows)-1]
	return &last, nil
}
