package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebooks/corebooks/internal/apperrors"
)

// TransactionStatus is the lifecycle state of a transaction document.
// DRAFT transactions are structurally mutable; POSTED is terminal for
// structural edits. Soft deletion is orthogonal (see Recyclable).
type TransactionStatus string

const (
	Draft  TransactionStatus = "DRAFT"
	Posted TransactionStatus = "POSTED"
)

// TransactionType is the closed tagged-variant enumeration of accounting
// documents. Behavior differences between variants live in the
// transactionBehaviors table below, not in subtypes.
type TransactionType string

const (
	CashSale        TransactionType = "CASH_SALE"
	ClientInvoice   TransactionType = "CLIENT_INVOICE"
	CashPurchase    TransactionType = "CASH_PURCHASE"
	SupplierBill    TransactionType = "SUPPLIER_BILL"
	ClientReceipt   TransactionType = "CLIENT_RECEIPT"
	SupplierPayment TransactionType = "SUPPLIER_PAYMENT"
	ContraEntry     TransactionType = "CONTRA_ENTRY"
	JournalEntry    TransactionType = "JOURNAL_ENTRY"
)

// typeBehavior is the per-variant configuration row: which side the main
// account posts on, which account types may serve as the main account,
// whether the type may be posted into an ADJUSTING period, and which target
// types it may be assigned against.
type typeBehavior struct {
	mainCredited     bool
	mainAccountTypes []AccountType // nil means any type is acceptable
	adjustingAllowed bool
	assignableTo     []TransactionType
	clearable        bool // may receive incoming assignments
}

var transactionBehaviors = map[TransactionType]typeBehavior{
	CashSale: {
		mainCredited:     false,
		mainAccountTypes: []AccountType{Bank},
	},
	ClientInvoice: {
		mainCredited:     false,
		mainAccountTypes: []AccountType{Receivable},
		clearable:        true,
	},
	CashPurchase: {
		mainCredited:     true,
		mainAccountTypes: []AccountType{Bank},
	},
	SupplierBill: {
		mainCredited:     true,
		mainAccountTypes: []AccountType{Payable},
		clearable:        true,
	},
	ClientReceipt: {
		mainCredited:     true,
		mainAccountTypes: []AccountType{Receivable},
		assignableTo:     []TransactionType{ClientInvoice, JournalEntry},
	},
	SupplierPayment: {
		mainCredited:     false,
		mainAccountTypes: []AccountType{Payable},
		assignableTo:     []TransactionType{SupplierBill, JournalEntry},
	},
	ContraEntry: {
		mainCredited:     false,
		mainAccountTypes: []AccountType{Bank},
	},
	JournalEntry: {
		mainCredited:     true,
		adjustingAllowed: true,
		assignableTo:     []TransactionType{ClientInvoice, SupplierBill, JournalEntry},
		clearable:        true,
	},
}

// IsValid reports whether the type belongs to the closed enumeration.
func (t TransactionType) IsValid() bool {
	_, ok := transactionBehaviors[t]
	return ok
}

// DefaultCredited reports which side the main account posts on by default.
// JournalEntry may be flipped per transaction via Transaction.Credited.
func (t TransactionType) DefaultCredited() bool {
	return transactionBehaviors[t].mainCredited
}

// AllowedInAdjustingPeriod reports whether transactions of this type may be
// posted into a period in ADJUSTING state.
func (t TransactionType) AllowedInAdjustingPeriod() bool {
	return transactionBehaviors[t].adjustingAllowed
}

// CanAssignTo reports whether a transaction of this type may allocate funds
// against a target of the given type.
func (t TransactionType) CanAssignTo(target TransactionType) bool {
	if !transactionBehaviors[target].clearable {
		return false
	}
	for _, candidate := range transactionBehaviors[t].assignableTo {
		if candidate == target {
			return true
		}
	}
	return false
}

// MainAccountTypeAllowed reports whether the given account type may serve as
// the main account of this transaction type.
func (t TransactionType) MainAccountTypeAllowed(at AccountType) bool {
	allowed := transactionBehaviors[t].mainAccountTypes
	if allowed == nil {
		return at.IsValid()
	}
	for _, candidate := range allowed {
		if candidate == at {
			return true
		}
	}
	return false
}

// LineItem is one counter-account leg of a transaction, opposite the main
// account. Amounts are always positive; Credited records which side the leg
// posts on. Line items are only mutable while the parent is DRAFT.
type LineItem struct {
	LineItemID    string          `json:"lineItemID"`
	TransactionID string          `json:"transactionID"`
	AccountID     string          `json:"accountID"`
	Amount        decimal.Decimal `json:"amount"`
	Quantity      decimal.Decimal `json:"quantity"`
	Narration     string          `json:"narration,omitempty"`
	Credited      bool            `json:"credited"`
	TaxID         string          `json:"taxID,omitempty"`
	AuditFields
	Recyclable
}

// Total is the line's economic value (amount x quantity).
func (li LineItem) Total() decimal.Decimal {
	if li.Quantity.IsZero() {
		return li.Amount
	}
	return li.Amount.Mul(li.Quantity)
}

// Transaction is the accounting document: a main account plus one or more
// counter-account line items. It follows a DRAFT -> POSTED state machine;
// posting converts it into immutable ledger rows.
type Transaction struct {
	TransactionID   string            `json:"transactionID"`
	EntityID        string            `json:"entityID"`
	TransactionType TransactionType   `json:"transactionType"`
	MainAccountID   string            `json:"mainAccountID"`
	TransactionDate time.Time         `json:"transactionDate"`
	Narration       string            `json:"narration"`
	Reference       string            `json:"reference,omitempty"`
	CurrencyCode    string            `json:"currencyCode"`
	Credited        bool              `json:"credited"` // effective main-account side
	Status          TransactionStatus `json:"status"`
	// Amount is the settled main-leg total, frozen at posting time and used
	// by the assignment engine as the allocatable total.
	Amount    decimal.Decimal `json:"amount"`
	LineItems []LineItem      `json:"lineItems,omitempty"`
	AuditFields
	Recyclable
}

// IsPosted reports whether the transaction has been posted.
func (t *Transaction) IsPosted() bool { return t.Status == Posted }

// AddLineItem appends a line item while the transaction is DRAFT.
func (t *Transaction) AddLineItem(item LineItem) error {
	if t.IsPosted() {
		return apperrors.ErrPostedTransaction.WithContext("transaction_id", t.TransactionID)
	}
	if item.Amount.LessThanOrEqual(decimal.Zero) {
		return apperrors.ErrNegativeAmount.WithContext("amount", item.Amount.String())
	}
	if item.AccountID == t.MainAccountID {
		return apperrors.ErrRedundantTransaction.WithContext(
			"transaction_id", t.TransactionID, "account_id", item.AccountID)
	}
	item.TransactionID = t.TransactionID
	t.LineItems = append(t.LineItems, item)
	return nil
}

// RemoveLineItem removes the line item with the given ID while DRAFT.
func (t *Transaction) RemoveLineItem(lineItemID string) error {
	if t.IsPosted() {
		return apperrors.ErrPostedTransaction.WithContext("transaction_id", t.TransactionID)
	}
	for i, item := range t.LineItems {
		if item.LineItemID == lineItemID {
			t.LineItems = append(t.LineItems[:i], t.LineItems[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound.WithContext("line_item_id", lineItemID)
}

// MainTotal computes the main-account leg total: line items on the side
// opposite the main account add to it, line items flipped onto the main
// account's own side subtract from it.
func (t *Transaction) MainTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range t.LineItems {
		if item.Credited != t.Credited {
			total = total.Add(item.Total())
		} else {
			total = total.Sub(item.Total())
		}
	}
	return total
}

// ValidateStructure checks the structural invariants that do not require
// repository access: presence of line items, no self-referencing legs,
// positive amounts and an exactly balanced debit/credit split.
func (t *Transaction) ValidateStructure() error {
	if !t.TransactionType.IsValid() {
		return apperrors.ErrInvalidTransactionType.WithContext("transaction_type", string(t.TransactionType))
	}
	if len(t.LineItems) == 0 {
		return apperrors.ErrMissingLineItem.WithContext("transaction_id", t.TransactionID)
	}
	for _, item := range t.LineItems {
		if item.AccountID == t.MainAccountID {
			return apperrors.ErrRedundantTransaction.WithContext(
				"transaction_id", t.TransactionID, "account_id", item.AccountID)
		}
		if item.Amount.LessThanOrEqual(decimal.Zero) {
			return apperrors.ErrNegativeAmount.WithContext(
				"line_item_id", item.LineItemID, "amount", item.Amount.String())
		}
	}
	// Exact decimal equality: the main leg must carry a strictly positive
	// total once flipped line items are netted against it.
	if total := t.MainTotal(); total.LessThanOrEqual(decimal.Zero) {
		debits, credits := t.legTotals()
		return apperrors.ErrUnbalancedTransaction.WithContext(
			"transaction_id", t.TransactionID,
			"debit_total", debits.String(),
			"credit_total", credits.String(),
		)
	}
	return nil
}

// legTotals sums the prospective ledger legs per side, for diagnostics.
func (t *Transaction) legTotals() (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, item := range t.LineItems {
		if item.Credited {
			credits = credits.Add(item.Total())
		} else {
			debits = debits.Add(item.Total())
		}
	}
	main := t.MainTotal()
	if t.Credited {
		credits = credits.Add(main)
	} else {
		debits = debits.Add(main)
	}
	return debits, credits
}

// String implements fmt.Stringer for log lines.
func (t *Transaction) String() string {
	return fmt.Sprintf("%s %s (%s)", t.TransactionType, t.TransactionID, t.Status)
}
