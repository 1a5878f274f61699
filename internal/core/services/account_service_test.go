package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	"github.com/corebooks/corebooks/internal/dto"
)

type AccountServiceTestSuite struct {
	ledgerSuite
}

func TestAccountService(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func (s *AccountServiceTestSuite) TestCreateAccountValidation() {
	_, err := s.container.Accounts.CreateAccount(s.ctx, testEntityID, dto.CreateAccountRequest{
		Name: "Broken", AccountType: domain.AccountType("BOGUS"), CurrencyCode: "USD",
	}, testUserID)
	s.ErrorIs(err, apperrors.ErrInvalidAccountType)

	_, err = s.container.Accounts.CreateAccount(s.ctx, testEntityID, dto.CreateAccountRequest{
		Name: "First", AccountType: domain.Bank, CurrencyCode: "USD", Code: "1000",
	}, testUserID)
	s.Require().NoError(err)

	_, err = s.container.Accounts.CreateAccount(s.ctx, testEntityID, dto.CreateAccountRequest{
		Name: "Second", AccountType: domain.Bank, CurrencyCode: "USD", Code: "1000",
	}, testUserID)
	s.ErrorIs(err, apperrors.ErrDuplicateAccountCode)
}

func (s *AccountServiceTestSuite) TestClosingBalanceDerivedFromLedger() {
	s.postedTransaction(domain.CashSale, s.bank.AccountID, s.revenue.AccountID, 300, 5)
	s.postedTransaction(domain.CashPurchase, s.bank.AccountID, s.expense.AccountID, 120, 10)

	bankBalance, err := s.container.Accounts.ClosingBalance(s.ctx, testEntityID, s.bank.AccountID, s.date(2026, 3, 31))
	s.Require().NoError(err)
	s.True(bankBalance.Equal(decimal.NewFromInt(180)), "bank nets deposits against withdrawals, got %s", bankBalance)

	revenueBalance, err := s.container.Accounts.ClosingBalance(s.ctx, testEntityID, s.revenue.AccountID, s.date(2026, 3, 31))
	s.Require().NoError(err)
	s.True(revenueBalance.Equal(decimal.NewFromInt(300)), "revenue is credit-positive")

	// As-of before the second posting sees only the first.
	early, err := s.container.Accounts.ClosingBalance(s.ctx, testEntityID, s.bank.AccountID, s.date(2026, 3, 7))
	s.Require().NoError(err)
	s.True(early.Equal(decimal.NewFromInt(300)))
}

func (s *AccountServiceTestSuite) TestSectionBalances() {
	s.postedTransaction(domain.CashSale, s.bank.AccountID, s.revenue.AccountID, 500, 5)

	sections, err := s.container.Accounts.SectionBalances(s.ctx, testEntityID, s.date(2026, 12, 31))
	s.Require().NoError(err)

	s.Require().Len(sections[domain.Bank], 1)
	s.True(sections[domain.Bank][0].Balance.Equal(decimal.NewFromInt(500)))
	s.Require().Len(sections[domain.OperatingRevenue], 1)
	s.True(sections[domain.OperatingRevenue][0].Balance.Equal(decimal.NewFromInt(500)))
}

func (s *AccountServiceTestSuite) TestBalanceConvertsForeignCurrencyRows() {
	eurBank := s.createAccount("EUR Checking", domain.Bank, "EUR")
	// The transaction currency follows the EUR main account, so the revenue
	// account accrues an EUR-denominated row.
	s.postedTransaction(domain.CashSale, eurBank.AccountID, s.revenue.AccountID, 100, 5)

	revenueBalance, err := s.container.Accounts.ClosingBalance(s.ctx, testEntityID, s.revenue.AccountID, s.date(2026, 3, 31))
	s.Require().NoError(err)
	s.True(revenueBalance.Equal(decimal.RequireFromString("110")), "100 EUR at 1.10, got %s", revenueBalance)
}

func (s *AccountServiceTestSuite) TestBalanceFailsOnUnresolvableRate() {
	_, err := s.container.Currency.CreateCurrency(s.ctx, testEntityID, dto.CreateCurrencyRequest{Code: "GBP", Name: "Pound Sterling"}, testUserID)
	s.Require().NoError(err)
	gbpBank := s.createAccount("GBP Checking", domain.Bank, "GBP")
	s.postedTransaction(domain.CashSale, gbpBank.AccountID, s.revenue.AccountID, 100, 5)

	_, err = s.container.Accounts.ClosingBalance(s.ctx, testEntityID, s.revenue.AccountID, s.date(2026, 3, 31))
	s.ErrorIs(err, apperrors.ErrInvalidExchangeRate, "a missing rate is fatal, rows are never skipped")
}

func (s *AccountServiceTestSuite) TestOpeningBalanceCarriesPriorYears() {
	// Post into 2026, close it, then verify a 2027 period anchors the
	// opening balance on rows posted before its start.
	s.postedTransaction(domain.CashSale, s.bank.AccountID, s.revenue.AccountID, 400, 10)
	_, err := s.container.Periods.Transition(s.ctx, testEntityID, s.period.PeriodID, domain.PeriodClosed, testUserID)
	s.Require().NoError(err)

	_, err = s.container.Periods.CreatePeriod(s.ctx, testEntityID, dto.CreatePeriodRequest{
		Year:        2027,
		PeriodStart: s.date(2027, 1, 1),
		PeriodEnd:   s.date(2027, 12, 31),
	}, testUserID)
	s.Require().NoError(err)

	opening, err := s.container.Accounts.OpeningBalance(s.ctx, testEntityID, s.bank.AccountID, 2027)
	s.Require().NoError(err)
	s.True(opening.Equal(decimal.NewFromInt(400)), "2026 activity carries into 2027, got %s", opening)

	// The 2026 opening balance is zero: nothing precedes it.
	openingPrior, err := s.container.Accounts.OpeningBalance(s.ctx, testEntityID, s.bank.AccountID, 2026)
	s.Require().NoError(err)
	s.True(openingPrior.IsZero())
}

func (s *AccountServiceTestSuite) TestDeleteAccountBlockedByLedgerActivity() {
	s.postedTransaction(domain.CashSale, s.bank.AccountID, s.revenue.AccountID, 100, 5)

	err := s.container.Accounts.DeleteAccount(s.ctx, testEntityID, s.bank.AccountID, testUserID)
	s.ErrorIs(err, apperrors.ErrHangingTransactions)

	// An untouched account deletes and restores cleanly.
	idle := s.createAccount("Idle", domain.OtherExpense, "USD")
	s.Require().NoError(s.container.Accounts.DeleteAccount(s.ctx, testEntityID, idle.AccountID, testUserID))

	accounts, err := s.container.Accounts.ListAccounts(s.ctx, testEntityID, false)
	s.Require().NoError(err)
	for _, a := range accounts {
		s.NotEqual(idle.AccountID, a.AccountID)
	}

	s.Require().NoError(s.container.Accounts.RestoreAccount(s.ctx, testEntityID, idle.AccountID, testUserID))
	restored, err := s.container.Accounts.GetAccountByID(s.ctx, testEntityID, idle.AccountID)
	s.Require().NoError(err)
	s.False(restored.IsDeleted())
}
