package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
)

func newDraft(txType domain.TransactionType) *domain.Transaction {
	return &domain.Transaction{
		TransactionID:   "txn-1",
		EntityID:        "ent-1",
		TransactionType: txType,
		MainAccountID:   "acc-main",
		CurrencyCode:    "USD",
		Credited:        txType.DefaultCredited(),
		Status:          domain.Draft,
	}
}

func item(id, accountID string, amount int64, credited bool) domain.LineItem {
	return domain.LineItem{
		LineItemID: id,
		AccountID:  accountID,
		Amount:     decimal.NewFromInt(amount),
		Credited:   credited,
	}
}

func TestTransactionTypeBehavior(t *testing.T) {
	assert.False(t, domain.CashSale.DefaultCredited())
	assert.True(t, domain.SupplierBill.DefaultCredited())
	assert.True(t, domain.ClientReceipt.DefaultCredited())

	assert.True(t, domain.JournalEntry.AllowedInAdjustingPeriod())
	assert.False(t, domain.CashSale.AllowedInAdjustingPeriod())

	assert.True(t, domain.ClientReceipt.CanAssignTo(domain.ClientInvoice))
	assert.True(t, domain.SupplierPayment.CanAssignTo(domain.SupplierBill))
	assert.True(t, domain.JournalEntry.CanAssignTo(domain.JournalEntry))
	// Receipts clear invoices, not bills, and never other receipts.
	assert.False(t, domain.ClientReceipt.CanAssignTo(domain.SupplierBill))
	assert.False(t, domain.ClientReceipt.CanAssignTo(domain.ClientReceipt))
	assert.False(t, domain.CashSale.CanAssignTo(domain.ClientInvoice))

	assert.True(t, domain.CashSale.MainAccountTypeAllowed(domain.Bank))
	assert.False(t, domain.CashSale.MainAccountTypeAllowed(domain.Receivable))
	assert.True(t, domain.ClientInvoice.MainAccountTypeAllowed(domain.Receivable))
	// Journal entries accept any valid account type as main.
	assert.True(t, domain.JournalEntry.MainAccountTypeAllowed(domain.Equity))
	assert.False(t, domain.JournalEntry.MainAccountTypeAllowed(domain.AccountType("BOGUS")))

	assert.False(t, domain.TransactionType("BOGUS").IsValid())
}

func TestAddLineItem(t *testing.T) {
	t.Run("rejects edits on a posted transaction", func(t *testing.T) {
		txn := newDraft(domain.CashSale)
		txn.Status = domain.Posted
		err := txn.AddLineItem(item("li-1", "acc-rev", 100, true))
		assert.ErrorIs(t, err, apperrors.ErrPostedTransaction)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		txn := newDraft(domain.CashSale)
		err := txn.AddLineItem(item("li-1", "acc-rev", 0, true))
		assert.ErrorIs(t, err, apperrors.ErrNegativeAmount)
	})

	t.Run("rejects the main account as a line item account", func(t *testing.T) {
		txn := newDraft(domain.CashSale)
		err := txn.AddLineItem(item("li-1", "acc-main", 100, true))
		assert.ErrorIs(t, err, apperrors.ErrRedundantTransaction)
	})

	t.Run("stamps the parent transaction id", func(t *testing.T) {
		txn := newDraft(domain.CashSale)
		require.NoError(t, txn.AddLineItem(item("li-1", "acc-rev", 100, true)))
		assert.Equal(t, "txn-1", txn.LineItems[0].TransactionID)
	})
}

func TestMainTotal(t *testing.T) {
	txn := newDraft(domain.CashSale) // main side: debit
	require.NoError(t, txn.AddLineItem(item("li-1", "acc-rev", 100, true)))
	require.NoError(t, txn.AddLineItem(item("li-2", "acc-other", 40, true)))
	// A leg flipped onto the main side nets against the main total.
	require.NoError(t, txn.AddLineItem(item("li-3", "acc-disc", 10, false)))

	assert.True(t, txn.MainTotal().Equal(decimal.NewFromInt(130)))
}

func TestLineItemTotalUsesQuantity(t *testing.T) {
	li := item("li-1", "acc-rev", 25, true)
	li.Quantity = decimal.NewFromInt(4)
	assert.True(t, li.Total().Equal(decimal.NewFromInt(100)))

	li.Quantity = decimal.Zero
	assert.True(t, li.Total().Equal(decimal.NewFromInt(25)))
}

func TestValidateStructure(t *testing.T) {
	t.Run("requires at least one line item", func(t *testing.T) {
		txn := newDraft(domain.CashSale)
		assert.ErrorIs(t, txn.ValidateStructure(), apperrors.ErrMissingLineItem)
	})

	t.Run("rejects a fully netted main leg", func(t *testing.T) {
		txn := newDraft(domain.CashSale)
		require.NoError(t, txn.AddLineItem(item("li-1", "acc-rev", 100, true)))
		require.NoError(t, txn.AddLineItem(item("li-2", "acc-disc", 100, false)))
		assert.ErrorIs(t, txn.ValidateStructure(), apperrors.ErrUnbalancedTransaction)
	})

	t.Run("rejects an unknown transaction type", func(t *testing.T) {
		txn := newDraft(domain.CashSale)
		require.NoError(t, txn.AddLineItem(item("li-1", "acc-rev", 100, true)))
		txn.TransactionType = domain.TransactionType("BOGUS")
		assert.ErrorIs(t, txn.ValidateStructure(), apperrors.ErrInvalidTransactionType)
	})

	t.Run("passes a balanced document", func(t *testing.T) {
		txn := newDraft(domain.CashSale)
		require.NoError(t, txn.AddLineItem(item("li-1", "acc-rev", 100, true)))
		assert.NoError(t, txn.ValidateStructure())
	})
}
