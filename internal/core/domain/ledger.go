package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType indicates whether a ledger row is a debit or a credit leg.
type EntryType string

const (
	DebitEntry  EntryType = "DEBIT"
	CreditEntry EntryType = "CREDIT"
)

// LedgerEntry is one immutable row of the posted journal, the system of
// record for balances. Rows are created only by posting a transaction and
// are never updated; reversal means posting an offsetting transaction.
// TransactionID and LineItemID back-reference the originating document for
// audit only.
type LedgerEntry struct {
	LedgerID      string          `json:"ledgerID"`
	EntityID      string          `json:"entityID"`
	TransactionID string          `json:"transactionID"`
	LineItemID    string          `json:"lineItemID"`
	AccountID     string          `json:"accountID"`
	EntryType     EntryType       `json:"entryType"`
	Amount        decimal.Decimal `json:"amount"`
	CurrencyCode  string          `json:"currencyCode"`
	PostedDate    time.Time       `json:"postedDate"`
	// SequenceNo is the entity-wide posting order, assigned at insert time.
	// The integrity chain is computed over rows in sequence order.
	SequenceNo int64 `json:"sequenceNo"`
	// Hash chains this row onto its predecessor: sha256(prevHash || row).
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// SignedAmount returns the row amount signed per the balance convention of
// the given account type: debit-positive for debit-normal accounts,
// credit-positive otherwise.
func (e LedgerEntry) SignedAmount(accountType AccountType) decimal.Decimal {
	positive := (e.EntryType == DebitEntry) == accountType.IsDebitNormal()
	if positive {
		return e.Amount
	}
	return e.Amount.Neg()
}

// LedgerEntriesFor derives the immutable ledger rows for a validated
// transaction: one pair of legs per line item, the line-item leg on the
// item's side and the matching main-account leg on the opposite side. The
// pairing guarantees total debits equal total credits exactly.
func LedgerEntriesFor(txn *Transaction) []LedgerEntry {
	entries := make([]LedgerEntry, 0, 2*len(txn.LineItems))
	for _, item := range txn.LineItems {
		itemSide, mainSide := DebitEntry, CreditEntry
		if item.Credited {
			itemSide, mainSide = CreditEntry, DebitEntry
		}
		entries = append(entries,
			LedgerEntry{
				EntityID:      txn.EntityID,
				TransactionID: txn.TransactionID,
				LineItemID:    item.LineItemID,
				AccountID:     txn.MainAccountID,
				EntryType:     mainSide,
				Amount:        item.Total(),
				CurrencyCode:  txn.CurrencyCode,
				PostedDate:    txn.TransactionDate,
			},
			LedgerEntry{
				EntityID:      txn.EntityID,
				TransactionID: txn.TransactionID,
				LineItemID:    item.LineItemID,
				AccountID:     item.AccountID,
				EntryType:     itemSide,
				Amount:        item.Total(),
				CurrencyCode:  txn.CurrencyCode,
				PostedDate:    txn.TransactionDate,
			},
		)
	}
	return entries
}

// ChainHash computes the integrity hash for a ledger row given its
// predecessor's hash. The canonical serialization covers every field that
// defines the row's accounting meaning; SequenceNo and Hash itself are
// excluded so the value is computable before insert.
func ChainHash(prevHash string, e LedgerEntry) string {
	canonical := strings.Join([]string{
		prevHash,
		e.EntityID,
		e.TransactionID,
		e.LineItemID,
		e.AccountID,
		string(e.EntryType),
		e.Amount.String(),
		e.CurrencyCode,
		e.PostedDate.UTC().Format(time.RFC3339),
	}, "|")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
