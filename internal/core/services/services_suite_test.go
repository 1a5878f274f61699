package services_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/corebooks/corebooks/internal/core/domain"
	portsrepo "github.com/corebooks/corebooks/internal/core/ports/repositories"
	"github.com/corebooks/corebooks/internal/core/services"
	"github.com/corebooks/corebooks/internal/dto"
	"github.com/corebooks/corebooks/internal/repositories/memory"
)

const (
	testEntityID = "ent-1"
	testUserID   = "user-1"
)

// ledgerSuite is the shared fixture for service tests: a full container
// over the in-memory store, with a currency registry, a chart of accounts
// and an open 2026 reporting period already seeded.
type ledgerSuite struct {
	suite.Suite
	ctx       context.Context
	repos     portsrepo.Repositories
	container *services.ServiceContainer

	bank       *domain.Account
	receivable *domain.Account
	payable    *domain.Account
	revenue    *domain.Account
	expense    *domain.Account
	period     *domain.ReportingPeriod
}

func (s *ledgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.repos = memory.NewStore().Repositories()
	s.container = services.NewServiceContainer(s.repos, services.ContainerConfig{
		BlockUnassignInClosedPeriods: true,
	})

	for _, c := range []dto.CreateCurrencyRequest{
		{Code: "USD", Name: "US Dollar"},
		{Code: "EUR", Name: "Euro"},
	} {
		_, err := s.container.Currency.CreateCurrency(s.ctx, testEntityID, c, testUserID)
		s.Require().NoError(err)
	}

	_, err := s.container.Rates.CreateExchangeRate(s.ctx, testEntityID, dto.CreateExchangeRateRequest{
		FromCurrencyCode: "EUR",
		ToCurrencyCode:   "USD",
		Rate:             decimal.RequireFromString("1.10"),
		EffectiveDate:    s.date(2026, 1, 1),
	}, testUserID)
	s.Require().NoError(err)

	s.bank = s.createAccount("Main Checking", domain.Bank, "USD")
	s.receivable = s.createAccount("Accounts Receivable", domain.Receivable, "USD")
	s.payable = s.createAccount("Accounts Payable", domain.Payable, "USD")
	s.revenue = s.createAccount("Sales Revenue", domain.OperatingRevenue, "USD")
	s.expense = s.createAccount("Office Supplies", domain.OperatingExpense, "USD")

	s.period, err = s.container.Periods.CreatePeriod(s.ctx, testEntityID, dto.CreatePeriodRequest{
		Year:        2026,
		PeriodStart: s.date(2026, 1, 1),
		PeriodEnd:   s.date(2026, 12, 31),
	}, testUserID)
	s.Require().NoError(err)
}

func (s *ledgerSuite) date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func (s *ledgerSuite) createAccount(name string, accountType domain.AccountType, currency string) *domain.Account {
	account, err := s.container.Accounts.CreateAccount(s.ctx, testEntityID, dto.CreateAccountRequest{
		Name:         name,
		AccountType:  accountType,
		CurrencyCode: currency,
	}, testUserID)
	s.Require().NoError(err)
	return account
}

// postedTransaction drafts and posts a single-line transaction, returning
// the posted document.
func (s *ledgerSuite) postedTransaction(txType domain.TransactionType, mainAccountID, lineAccountID string, amount int64, day int) *domain.Transaction {
	draft, err := s.container.Transaction.CreateTransaction(s.ctx, testEntityID, dto.CreateTransactionRequest{
		TransactionType: txType,
		MainAccountID:   mainAccountID,
		TransactionDate: s.date(2026, 3, day),
		Narration:       "test transaction",
		LineItems: []dto.CreateLineItemRequest{
			{AccountID: lineAccountID, Amount: decimal.NewFromInt(amount)},
		},
	}, testUserID)
	s.Require().NoError(err)

	posted, err := s.container.Transaction.PostTransaction(s.ctx, testEntityID, draft.TransactionID, testUserID)
	s.Require().NoError(err)
	return posted
}
