package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	portsrepo "github.com/corebooks/corebooks/internal/core/ports/repositories"
	"github.com/corebooks/corebooks/internal/dto"
)

// AccountService manages the chart of accounts and computes derived
// balances by walking posted ledger rows. Balance queries are side-effect
// free; every contributing row is converted into the account's currency at
// the rate effective on the row's posted date.
type AccountService struct {
	BaseService
	accountRepo portsrepo.AccountRepository
	ledgerRepo  portsrepo.LedgerRepository
	rateSvc     *ExchangeRateService
	periodSvc   *ReportingPeriodService
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	accountRepo portsrepo.AccountRepository,
	ledgerRepo portsrepo.LedgerRepository,
	rateSvc *ExchangeRateService,
	periodSvc *ReportingPeriodService,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		rateSvc:     rateSvc,
		periodSvc:   periodSvc,
	}
}

// CreateAccount adds a chart-of-accounts node. Account codes, when present,
// are unique per entity.
func (s *AccountService) CreateAccount(ctx context.Context, entityID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	if req.Name == "" {
		return nil, apperrors.ErrValidation.WithContext("reason", "account name is required")
	}
	if !req.AccountType.IsValid() {
		return nil, apperrors.ErrInvalidAccountType.WithContext("account_type", string(req.AccountType))
	}
	if req.CurrencyCode == "" {
		return nil, apperrors.ErrValidation.WithContext("reason", "account currency is required")
	}

	if req.Code != "" {
		if existing, err := s.accountRepo.FindAccountByCode(ctx, entityID, req.Code); err == nil && existing != nil {
			return nil, apperrors.ErrDuplicateAccountCode.WithContext(
				"code", req.Code, "account_id", existing.AccountID)
		} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to check account code %s: %w", req.Code, err)
		}
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:    uuid.NewString(),
		EntityID:     entityID,
		Name:         req.Name,
		AccountType:  req.AccountType,
		CurrencyCode: req.CurrencyCode,
		Code:         req.Code,
		Category:     req.Category,
		Description:  req.Description,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save account", slog.String("name", req.Name))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	s.LogInfo(ctx, "Account created",
		slog.String("account_id", account.AccountID),
		slog.String("account_type", string(account.AccountType)))
	return &account, nil
}

// GetAccountByID retrieves a single account.
func (s *AccountService) GetAccountByID(ctx context.Context, entityID, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, entityID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	return account, nil
}

// ListAccounts returns the entity's accounts, excluding soft-deleted ones
// unless requested.
func (s *AccountService) ListAccounts(ctx context.Context, entityID string, includeDeleted bool) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, entityID, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// DeleteAccount soft-deletes an account. Accounts referenced by ledger rows
// cannot be deleted; history must stay navigable.
func (s *AccountService) DeleteAccount(ctx context.Context, entityID, accountID, userID string) error {
	active, err := s.accountRepo.HasLedgerActivity(ctx, entityID, accountID)
	if err != nil {
		return fmt.Errorf("failed to check ledger activity for account %s: %w", accountID, err)
	}
	if active {
		return apperrors.ErrHangingTransactions.WithContext("account_id", accountID)
	}

	now := time.Now().UTC()
	if err := s.accountRepo.SetAccountDeleted(ctx, entityID, accountID, &now, userID, now); err != nil {
		return fmt.Errorf("failed to delete account %s: %w", accountID, err)
	}
	s.LogInfo(ctx, "Account soft-deleted", slog.String("account_id", accountID))
	return nil
}

// RestoreAccount reverses a soft delete.
func (s *AccountService) RestoreAccount(ctx context.Context, entityID, accountID, userID string) error {
	if err := s.accountRepo.SetAccountDeleted(ctx, entityID, accountID, nil, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to restore account %s: %w", accountID, err)
	}
	s.LogInfo(ctx, "Account restored", slog.String("account_id", accountID))
	return nil
}

// OpeningBalance computes the account's balance brought forward into the
// given year's reporting period: the net of all ledger rows posted strictly
// before the period start, under the account type's sign convention.
func (s *AccountService) OpeningBalance(ctx context.Context, entityID, accountID string, year int) (decimal.Decimal, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, entityID, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	period, err := s.periodSvc.PeriodForYear(ctx, entityID, year)
	if err != nil {
		return decimal.Zero, err
	}

	before := period.PeriodStart.Add(-time.Nanosecond)
	entries, err := s.ledgerRepo.ListEntriesByAccount(ctx, entityID, accountID, nil, &before)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load ledger rows for account %s: %w", accountID, err)
	}
	return s.netInAccountCurrency(ctx, account, entries)
}

// ClosingBalance computes the account's balance as of a date: the opening
// balance of the date's year plus the net of in-period rows through asOf.
func (s *AccountService) ClosingBalance(ctx context.Context, entityID, accountID string, asOf time.Time) (decimal.Decimal, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, entityID, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	period, err := s.periodSvc.PeriodForYear(ctx, entityID, asOf.Year())
	if err != nil {
		return decimal.Zero, err
	}

	opening, err := s.OpeningBalance(ctx, entityID, accountID, asOf.Year())
	if err != nil {
		return decimal.Zero, err
	}

	entries, err := s.ledgerRepo.ListEntriesByAccount(ctx, entityID, accountID, &period.PeriodStart, &asOf)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load ledger rows for account %s: %w", accountID, err)
	}
	movement, err := s.netInAccountCurrency(ctx, account, entries)
	if err != nil {
		return decimal.Zero, err
	}
	return opening.Add(movement), nil
}

// SectionBalances derives every account's closing balance as of a date,
// grouped by account type. This is the query surface report builders
// consume.
func (s *AccountService) SectionBalances(ctx context.Context, entityID string, asOf time.Time) (dto.SectionBalances, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, entityID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	sections := make(dto.SectionBalances)
	for _, account := range accounts {
		balance, err := s.ClosingBalance(ctx, entityID, account.AccountID, asOf)
		if err != nil {
			return nil, err
		}
		sections[account.AccountType] = append(sections[account.AccountType], dto.AccountBalance{
			AccountID:   account.AccountID,
			Name:        account.Name,
			AccountType: account.AccountType,
			Balance:     balance,
		})
	}
	return sections, nil
}

// netInAccountCurrency folds ledger rows into a single balance in the
// account's currency, converting each row at the rate effective on its
// posted date. Fails with apperrors.ErrInvalidExchangeRate when a row's
// currency pair cannot be resolved; balance computation treats a missing
// rate as fatal rather than silently skipping rows.
func (s *AccountService) netInAccountCurrency(ctx context.Context, account *domain.Account, entries []domain.LedgerEntry) (decimal.Decimal, error) {
	net := decimal.Zero
	for _, entry := range entries {
		amount := entry.SignedAmount(account.AccountType)
		converted, err := s.rateSvc.Convert(ctx, account.EntityID, amount, entry.CurrencyCode, account.CurrencyCode, entry.PostedDate)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidExchangeRate) {
				return decimal.Zero, apperrors.ErrInvalidExchangeRate.WithContext(
					"ledger_id", entry.LedgerID,
					"from", entry.CurrencyCode,
					"to", account.CurrencyCode,
					"posted_date", entry.PostedDate.Format(time.DateOnly),
				)
			}
			return decimal.Zero, err
		}
		net = net.Add(converted)
	}
	return net, nil
}
