package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	"github.com/corebooks/corebooks/internal/core/events"
	portsrepo "github.com/corebooks/corebooks/internal/core/ports/repositories"
	"github.com/corebooks/corebooks/internal/dto"
	"github.com/corebooks/corebooks/internal/utils/accounting"
)

// TransactionService owns the transaction document lifecycle: draft
// creation, line item edits, validation and the atomic post into the
// ledger.
type TransactionService struct {
	BaseService
	txnRepo     portsrepo.TransactionRepository
	accountRepo portsrepo.AccountRepository
	periodSvc   *ReportingPeriodService
	registry    *events.Registry
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(
	txnRepo portsrepo.TransactionRepository,
	accountRepo portsrepo.AccountRepository,
	periodSvc *ReportingPeriodService,
	registry *events.Registry,
) *TransactionService {
	return &TransactionService{
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
		periodSvc:   periodSvc,
		registry:    registry,
	}
}

// CreateTransaction builds a DRAFT transaction. The main account decides the
// transaction currency, and the transaction type decides which side the main
// account posts on; journal entries may flip it via req.Credited.
func (s *TransactionService) CreateTransaction(ctx context.Context, entityID string, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error) {
	if !req.TransactionType.IsValid() {
		return nil, apperrors.ErrInvalidTransactionType.WithContext(
			"transaction_type", string(req.TransactionType))
	}
	if req.TransactionDate.IsZero() {
		return nil, apperrors.ErrInvalidTransactionDate.WithContext("reason", "transaction date is required")
	}

	mainAccount, err := s.accountRepo.FindAccountByID(ctx, entityID, req.MainAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find main account %s: %w", req.MainAccountID, err)
	}
	if mainAccount.IsDeleted() {
		return nil, apperrors.ErrValidation.WithContext(
			"account_id", mainAccount.AccountID, "reason", "main account is deleted")
	}
	if !req.TransactionType.MainAccountTypeAllowed(mainAccount.AccountType) {
		return nil, apperrors.ErrInvalidAccountType.WithContext(
			"transaction_type", string(req.TransactionType),
			"account_type", string(mainAccount.AccountType),
		)
	}

	credited := req.TransactionType.DefaultCredited()
	if req.Credited != nil {
		if req.TransactionType != domain.JournalEntry {
			return nil, apperrors.ErrValidation.WithContext(
				"transaction_type", string(req.TransactionType),
				"reason", "only journal entries may override the main side")
		}
		credited = *req.Credited
	}

	now := time.Now().UTC()
	txn := domain.Transaction{
		TransactionID:   uuid.NewString(),
		EntityID:        entityID,
		TransactionType: req.TransactionType,
		MainAccountID:   req.MainAccountID,
		TransactionDate: req.TransactionDate,
		Narration:       req.Narration,
		Reference:       req.Reference,
		CurrencyCode:    mainAccount.CurrencyCode,
		Credited:        credited,
		Status:          domain.Draft,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	for _, lineReq := range req.LineItems {
		item, err := s.buildLineItem(txn.TransactionID, txn.Credited, lineReq, userID, now)
		if err != nil {
			return nil, err
		}
		if err := txn.AddLineItem(item); err != nil {
			return nil, err
		}
	}

	if err := s.txnRepo.SaveTransaction(ctx, txn); err != nil {
		s.LogError(ctx, err, "Failed to save transaction",
			slog.String("transaction_type", string(req.TransactionType)))
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	s.LogInfo(ctx, "Transaction drafted",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("transaction_type", string(txn.TransactionType)))
	return &txn, nil
}

func (s *TransactionService) buildLineItem(transactionID string, mainCredited bool, req dto.CreateLineItemRequest, userID string, now time.Time) (domain.LineItem, error) {
	quantity := decimal.Zero
	if req.Quantity != nil {
		if req.Quantity.LessThanOrEqual(decimal.Zero) {
			return domain.LineItem{}, apperrors.ErrNegativeAmount.WithContext(
				"quantity", req.Quantity.String())
		}
		quantity = *req.Quantity
	}
	// Counter legs default to the side opposite the main account.
	credited := !mainCredited
	if req.Credited != nil {
		credited = *req.Credited
	}
	return domain.LineItem{
		LineItemID:    uuid.NewString(),
		TransactionID: transactionID,
		AccountID:     req.AccountID,
		Amount:        req.Amount,
		Quantity:      quantity,
		Narration:     req.Narration,
		Credited:      credited,
		TaxID:         req.TaxID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}, nil
}

// GetTransactionByID loads a transaction with its line items.
func (s *TransactionService) GetTransactionByID(ctx context.Context, entityID, transactionID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, entityID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	return txn, nil
}

// ListTransactions returns the entity's transactions matching the filter.
func (s *TransactionService) ListTransactions(ctx context.Context, entityID string, filter dto.TransactionFilter) ([]domain.Transaction, error) {
	txns, err := s.txnRepo.ListTransactions(ctx, entityID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

// AddLineItem appends a counter leg to a DRAFT transaction.
func (s *TransactionService) AddLineItem(ctx context.Context, entityID, transactionID string, req dto.CreateLineItemRequest, userID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, entityID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}

	now := time.Now().UTC()
	item, err := s.buildLineItem(txn.TransactionID, txn.Credited, req, userID, now)
	if err != nil {
		return nil, err
	}
	if err := txn.AddLineItem(item); err != nil {
		return nil, err
	}
	txn.Touch(userID, now)

	if err := s.txnRepo.UpdateDraftTransaction(ctx, *txn); err != nil {
		return nil, fmt.Errorf("failed to update transaction %s: %w", transactionID, err)
	}
	return txn, nil
}

// RemoveLineItem removes a counter leg from a DRAFT transaction.
func (s *TransactionService) RemoveLineItem(ctx context.Context, entityID, transactionID, lineItemID, userID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, entityID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}

	if err := txn.RemoveLineItem(lineItemID); err != nil {
		return nil, err
	}
	txn.Touch(userID, time.Now().UTC())

	if err := s.txnRepo.UpdateDraftTransaction(ctx, *txn); err != nil {
		return nil, fmt.Errorf("failed to update transaction %s: %w", transactionID, err)
	}
	return txn, nil
}

// PostTransaction validates a draft and atomically writes its ledger rows.
// After posting, the document is structurally immutable and its settled
// amount is frozen for the assignment engine.
func (s *TransactionService) PostTransaction(ctx context.Context, entityID, transactionID, userID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, entityID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	if txn.IsPosted() {
		return nil, apperrors.ErrPostedTransaction.WithContext("transaction_id", transactionID)
	}
	if txn.IsDeleted() {
		return nil, apperrors.ErrValidation.WithContext(
			"transaction_id", transactionID, "reason", "transaction is deleted")
	}

	period, err := s.validateForPosting(ctx, txn)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn.Status = domain.Posted
	txn.Amount = txn.MainTotal()
	txn.Touch(userID, now)

	entries := domain.LedgerEntriesFor(txn)
	for i := range entries {
		entries[i].LedgerID = uuid.NewString()
		entries[i].CreatedAt = now
		entries[i].CreatedBy = userID
	}
	if err := accounting.VerifyBalanced(entries); err != nil {
		return nil, err
	}

	if err := s.txnRepo.PostTransaction(ctx, *txn, entries, period.PeriodID); err != nil {
		s.LogError(ctx, err, "Failed to post transaction", slog.String("transaction_id", transactionID))
		return nil, fmt.Errorf("failed to post transaction %s: %w", transactionID, err)
	}

	s.registry.Emit(ctx, events.TransactionPosted, entityID, map[string]any{
		"transaction_id":   txn.TransactionID,
		"transaction_type": string(txn.TransactionType),
		"amount":           txn.Amount.String(),
		"currency_code":    txn.CurrencyCode,
	})
	s.LogInfo(ctx, "Transaction posted",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("amount", txn.Amount.String()),
		slog.Int("ledger_rows", len(entries)))
	return txn, nil
}

// validateForPosting runs the repository-backed checks: structural
// invariants, live accounts on every leg, and the reporting period gate.
func (s *TransactionService) validateForPosting(ctx context.Context, txn *domain.Transaction) (*domain.ReportingPeriod, error) {
	if err := txn.ValidateStructure(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(txn.LineItems)+1)
	ids = append(ids, txn.MainAccountID)
	for _, item := range txn.LineItems {
		ids = append(ids, item.AccountID)
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, txn.EntityID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction accounts: %w", err)
	}
	for _, id := range ids {
		account, ok := accounts[id]
		if !ok {
			return nil, apperrors.ErrNotFound.WithContext("account_id", id)
		}
		if account.IsDeleted() {
			return nil, apperrors.ErrValidation.WithContext(
				"account_id", id, "reason", "account is deleted")
		}
	}

	main := accounts[txn.MainAccountID]
	if !txn.TransactionType.MainAccountTypeAllowed(main.AccountType) {
		return nil, apperrors.ErrInvalidAccountType.WithContext(
			"transaction_type", string(txn.TransactionType),
			"account_type", string(main.AccountType),
		)
	}

	return s.periodSvc.PeriodForTransaction(ctx, txn.EntityID, txn.TransactionType, txn.TransactionDate)
}

// DeleteTransaction soft-deletes a transaction. Posted documents keep their
// ledger rows; deletion only hides the document from default listings.
func (s *TransactionService) DeleteTransaction(ctx context.Context, entityID, transactionID, userID string) error {
	txn, err := s.txnRepo.FindTransactionByID(ctx, entityID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	if txn.IsDeleted() {
		return apperrors.ErrValidation.WithContext(
			"transaction_id", transactionID, "reason", "transaction is already deleted")
	}

	now := time.Now().UTC()
	if err := s.txnRepo.SetTransactionDeleted(ctx, entityID, transactionID, &now, userID, now); err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", transactionID, err)
	}

	s.registry.Emit(ctx, events.TransactionDeleted, entityID, map[string]any{
		"transaction_id": transactionID,
	})
	s.LogInfo(ctx, "Transaction soft-deleted", slog.String("transaction_id", transactionID))
	return nil
}

// RestoreTransaction reverses a soft delete.
func (s *TransactionService) RestoreTransaction(ctx context.Context, entityID, transactionID, userID string) error {
	if err := s.txnRepo.SetTransactionDeleted(ctx, entityID, transactionID, nil, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to restore transaction %s: %w", transactionID, err)
	}

	s.registry.Emit(ctx, events.TransactionRestored, entityID, map[string]any{
		"transaction_id": transactionID,
	})
	s.LogInfo(ctx, "Transaction restored", slog.String("transaction_id", transactionID))
	return nil
}
