package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	"github.com/corebooks/corebooks/internal/core/events"
	"github.com/corebooks/corebooks/internal/dto"
)

type TransactionServiceTestSuite struct {
	ledgerSuite
}

func TestTransactionService(t *testing.T) {
	suite.Run(t, new(TransactionServiceTestSuite))
}

func (s *TransactionServiceTestSuite) TestCreateTransactionDefaults() {
	draft, err := s.container.Transaction.CreateTransaction(s.ctx, testEntityID, dto.CreateTransactionRequest{
		TransactionType: domain.CashSale,
		MainAccountID:   s.bank.AccountID,
		TransactionDate: s.date(2026, 3, 10),
		LineItems: []dto.CreateLineItemRequest{
			{AccountID: s.revenue.AccountID, Amount: decimal.NewFromInt(100)},
		},
	}, testUserID)
	s.Require().NoError(err)

	s.Equal(domain.Draft, draft.Status)
	s.Equal("USD", draft.CurrencyCode, "currency follows the main account")
	s.False(draft.Credited, "cash sale debits the bank account")
	s.Require().Len(draft.LineItems, 1)
	s.True(draft.LineItems[0].Credited, "counter leg defaults to the opposite side")
}

func (s *TransactionServiceTestSuite) TestCreateTransactionRejectsWrongMainAccountType() {
	_, err := s.container.Transaction.CreateTransaction(s.ctx, testEntityID, dto.CreateTransactionRequest{
		TransactionType: domain.CashSale,
		MainAccountID:   s.receivable.AccountID,
		TransactionDate: s.date(2026, 3, 10),
		LineItems: []dto.CreateLineItemRequest{
			{AccountID: s.revenue.AccountID, Amount: decimal.NewFromInt(100)},
		},
	}, testUserID)
	s.ErrorIs(err, apperrors.ErrInvalidAccountType)
}

func (s *TransactionServiceTestSuite) TestOnlyJournalEntryMayFlipMainSide() {
	flip := true
	_, err := s.container.Transaction.CreateTransaction(s.ctx, testEntityID, dto.CreateTransactionRequest{
		TransactionType: domain.CashSale,
		MainAccountID:   s.bank.AccountID,
		TransactionDate: s.date(2026, 3, 10),
		Credited:        &flip,
		LineItems: []dto.CreateLineItemRequest{
			{AccountID: s.revenue.AccountID, Amount: decimal.NewFromInt(100)},
		},
	}, testUserID)
	s.ErrorIs(err, apperrors.ErrValidation)

	journal, err := s.container.Transaction.CreateTransaction(s.ctx, testEntityID, dto.CreateTransactionRequest{
		TransactionType: domain.JournalEntry,
		MainAccountID:   s.bank.AccountID,
		TransactionDate: s.date(2026, 3, 10),
		Credited:        &flip,
		LineItems: []dto.CreateLineItemRequest{
			{AccountID: s.expense.AccountID, Amount: decimal.NewFromInt(100)},
		},
	}, testUserID)
	s.Require().NoError(err)
	s.True(journal.Credited)
}

func (s *TransactionServiceTestSuite) TestPostTransactionWritesBalancedChainedRows() {
	posted := s.postedTransaction(domain.CashSale, s.bank.AccountID, s.revenue.AccountID, 250, 10)

	s.Equal(domain.Posted, posted.Status)
	s.True(posted.Amount.Equal(decimal.NewFromInt(250)), "settled amount frozen at posting")

	entries, err := s.container.Ledger.ListEntriesByAccount(s.ctx, testEntityID, s.bank.AccountID, nil, nil)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(domain.DebitEntry, entries[0].EntryType)
	s.NotEmpty(entries[0].Hash)
	s.Equal(int64(1), entries[0].SequenceNo)

	report, err := s.container.Ledger.VerifyIntegrity(s.ctx, testEntityID)
	s.Require().NoError(err)
	s.True(report.Intact)
	s.Equal(int64(2), report.RowsVerified)
}

func (s *TransactionServiceTestSuite) TestPostedTransactionIsImmutable() {
	posted := s.postedTransaction(domain.CashSale, s.bank.AccountID, s.revenue.AccountID, 100, 10)

	_, err := s.container.Transaction.AddLineItem(s.ctx, testEntityID, posted.TransactionID, dto.CreateLineItemRequest{
		AccountID: s.expense.AccountID,
		Amount:    decimal.NewFromInt(10),
	}, testUserID)
	s.ErrorIs(err, apperrors.ErrPostedTransaction)

	_, err = s.container.Transaction.PostTransaction(s.ctx, testEntityID, posted.TransactionID, testUserID)
	s.ErrorIs(err, apperrors.ErrPostedTransaction)
}

func (s *TransactionServiceTestSuite) TestPostRejectsDateOutsidePeriod() {
	draft, err := s.container.Transaction.CreateTransaction(s.ctx, testEntityID, dto.CreateTransactionRequest{
		TransactionType: domain.CashSale,
		MainAccountID:   s.bank.AccountID,
		TransactionDate: s.date(2027, 2, 1),
		LineItems: []dto.CreateLineItemRequest{
			{AccountID: s.revenue.AccountID, Amount: decimal.NewFromInt(100)},
		},
	}, testUserID)
	s.Require().NoError(err)

	_, err = s.container.Transaction.PostTransaction(s.ctx, testEntityID, draft.TransactionID, testUserID)
	s.ErrorIs(err, apperrors.ErrInvalidTransactionDate)
}

func (s *TransactionServiceTestSuite) TestAdjustingPeriodAdmitsOnlyJournalEntries() {
	_, err := s.container.Periods.Transition(s.ctx, testEntityID, s.period.PeriodID, domain.PeriodAdjusting, testUserID)
	s.Require().NoError(err)

	draft, err := s.container.Transaction.CreateTransaction(s.ctx, testEntityID, dto.CreateTransactionRequest{
		TransactionType: domain.CashSale,
		MainAccountID:   s.bank.AccountID,
		TransactionDate: s.date(2026, 3, 10),
		LineItems: []dto.CreateLineItemRequest{
			{AccountID: s.revenue.AccountID, Amount: decimal.NewFromInt(100)},
		},
	}, testUserID)
	s.Require().NoError(err)
	_, err = s.container.Transaction.PostTransaction(s.ctx, testEntityID, draft.TransactionID, testUserID)
	s.ErrorIs(err, apperrors.ErrInvalidTransactionType)

	journal, err := s.container.Transaction.CreateTransaction(s.ctx, testEntityID, dto.CreateTransactionRequest{
		TransactionType: domain.JournalEntry,
		MainAccountID:   s.expense.AccountID,
		TransactionDate: s.date(2026, 3, 10),
		LineItems: []dto.CreateLineItemRequest{
			{AccountID: s.bank.AccountID, Amount: decimal.NewFromInt(40)},
		},
	}, testUserID)
	s.Require().NoError(err)
	_, err = s.container.Transaction.PostTransaction(s.ctx, testEntityID, journal.TransactionID, testUserID)
	s.NoError(err)
}

func (s *TransactionServiceTestSuite) TestClosedPeriodRefusesPosting() {
	_, err := s.container.Periods.Transition(s.ctx, testEntityID, s.period.PeriodID, domain.PeriodClosed, testUserID)
	s.Require().NoError(err)

	draft, err := s.container.Transaction.CreateTransaction(s.ctx, testEntityID, dto.CreateTransactionRequest{
		TransactionType: domain.JournalEntry,
		MainAccountID:   s.expense.AccountID,
		TransactionDate: s.date(2026, 3, 10),
		LineItems: []dto.CreateLineItemRequest{
			{AccountID: s.bank.AccountID, Amount: decimal.NewFromInt(40)},
		},
	}, testUserID)
	s.Require().NoError(err)

	_, err = s.container.Transaction.PostTransaction(s.ctx, testEntityID, draft.TransactionID, testUserID)
	s.ErrorIs(err, apperrors.ErrClosedReportingPeriod)
}

func (s *TransactionServiceTestSuite) TestSoftDeleteKeepsLedgerRows() {
	posted := s.postedTransaction(domain.CashSale, s.bank.AccountID, s.revenue.AccountID, 100, 10)

	s.Require().NoError(s.container.Transaction.DeleteTransaction(s.ctx, testEntityID, posted.TransactionID, testUserID))

	listed, err := s.container.Transaction.ListTransactions(s.ctx, testEntityID, dto.TransactionFilter{})
	s.Require().NoError(err)
	s.Empty(listed, "deleted documents are hidden from default listings")

	entries, err := s.container.Ledger.ListEntriesByAccount(s.ctx, testEntityID, s.bank.AccountID, nil, nil)
	s.Require().NoError(err)
	s.Len(entries, 1, "ledger rows survive document deletion")

	s.Require().NoError(s.container.Transaction.RestoreTransaction(s.ctx, testEntityID, posted.TransactionID, testUserID))
	restored, err := s.container.Transaction.GetTransactionByID(s.ctx, testEntityID, posted.TransactionID)
	s.Require().NoError(err)
	s.False(restored.IsDeleted())
	s.True(restored.Amount.Equal(posted.Amount), "restore is a full round-trip")
}

func (s *TransactionServiceTestSuite) TestPostEmitsEvent() {
	var got events.Event
	s.container.Events.Subscribe(events.TransactionPosted, func(e events.Event) { got = e })

	posted := s.postedTransaction(domain.CashSale, s.bank.AccountID, s.revenue.AccountID, 75, 10)

	s.Equal(events.TransactionPosted, got.Type)
	s.Equal(testEntityID, got.EntityID)
	s.Equal(posted.TransactionID, got.Data["transaction_id"])
}
