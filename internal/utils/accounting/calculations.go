// Package accounting holds double-entry arithmetic shared by services and
// repositories so the sign conventions live in exactly one place.
package accounting

import (
	"github.com/shopspring/decimal"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
)

// LegTotals sums prospective ledger rows per side.
func LegTotals(entries []domain.LedgerEntry) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, e := range entries {
		if e.EntryType == domain.DebitEntry {
			debits = debits.Add(e.Amount)
		} else {
			credits = credits.Add(e.Amount)
		}
	}
	return debits, credits
}

// VerifyBalanced checks the global arithmetic invariant before rows are
// committed: total debits must equal total credits, exactly.
func VerifyBalanced(entries []domain.LedgerEntry) error {
	debits, credits := LegTotals(entries)
	if !debits.Equal(credits) {
		return apperrors.ErrUnbalancedTransaction.WithContext(
			"debit_total", debits.String(),
			"credit_total", credits.String(),
		)
	}
	return nil
}

// NetAmount folds ledger rows into a single balance under the account
// type's sign convention.
func NetAmount(entries []domain.LedgerEntry, accountType domain.AccountType) decimal.Decimal {
	net := decimal.Zero
	for _, e := range entries {
		net = net.Add(e.SignedAmount(accountType))
	}
	return net
}
