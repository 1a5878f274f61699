package domain

// AccountType defines the fundamental accounting classification of an
// account. The taxonomy is closed: posting and reporting logic dispatch on
// it, so unknown values are rejected at validation time.
type AccountType string

const (
	NonCurrentAsset     AccountType = "NON_CURRENT_ASSET"
	CurrentAsset        AccountType = "CURRENT_ASSET"
	Inventory           AccountType = "INVENTORY"
	Bank                AccountType = "BANK"
	Receivable          AccountType = "RECEIVABLE"
	NonCurrentLiability AccountType = "NON_CURRENT_LIABILITY"
	CurrentLiability    AccountType = "CURRENT_LIABILITY"
	ControlAccount      AccountType = "CONTROL_ACCOUNT"
	Payable             AccountType = "PAYABLE"
	Equity              AccountType = "EQUITY"
	RetainedEarnings    AccountType = "RETAINED_EARNINGS"
	OperatingRevenue    AccountType = "OPERATING_REVENUE"
	OtherRevenue        AccountType = "OTHER_REVENUE"
	OperatingExpense    AccountType = "OPERATING_EXPENSE"
	DirectExpense       AccountType = "DIRECT_EXPENSE"
	OverheadExpense     AccountType = "OVERHEAD_EXPENSE"
	OtherExpense        AccountType = "OTHER_EXPENSE"
	Reconciliation      AccountType = "RECONCILIATION"
)

// assetTypes, expenseTypes etc. group the taxonomy for sign conventions and
// report sections.
var (
	assetTypes = map[AccountType]bool{
		NonCurrentAsset: true, CurrentAsset: true, Inventory: true,
		Bank: true, Receivable: true,
	}
	liabilityTypes = map[AccountType]bool{
		NonCurrentLiability: true, CurrentLiability: true,
		ControlAccount: true, Payable: true,
	}
	equityTypes = map[AccountType]bool{
		Equity: true, RetainedEarnings: true,
	}
	revenueTypes = map[AccountType]bool{
		OperatingRevenue: true, OtherRevenue: true,
	}
	expenseTypes = map[AccountType]bool{
		OperatingExpense: true, DirectExpense: true,
		OverheadExpense: true, OtherExpense: true,
	}
)

// IsValid reports whether the type belongs to the closed taxonomy.
func (t AccountType) IsValid() bool {
	return assetTypes[t] || liabilityTypes[t] || equityTypes[t] ||
		revenueTypes[t] || expenseTypes[t] || t == Reconciliation
}

// IsDebitNormal reports whether the account type carries a debit-positive
// balance convention. Assets and expenses are debit-normal; liabilities,
// equity and revenue are credit-normal.
func (t AccountType) IsDebitNormal() bool {
	return assetTypes[t] || expenseTypes[t] || t == Reconciliation
}

// IsExpense reports whether the type is one of the expense classes.
func (t AccountType) IsExpense() bool { return expenseTypes[t] }

// IsRevenue reports whether the type is one of the revenue classes.
func (t AccountType) IsRevenue() bool { return revenueTypes[t] }

// Account is a chart-of-accounts node. Its balance is never stored: it is
// derived on demand from posted ledger rows (see AccountService), which
// removes the whole class of balance-drift bugs a mutable column invites.
type Account struct {
	AccountID    string      `json:"accountID"`
	EntityID     string      `json:"entityID"`
	Name         string      `json:"name"`
	AccountType  AccountType `json:"accountType"`
	CurrencyCode string      `json:"currencyCode"`
	Code         string      `json:"code,omitempty"`     // optional, unique per entity when present
	Category     string      `json:"category,omitempty"` // optional free-form grouping
	Description  string      `json:"description,omitempty"`
	AuditFields
	Recyclable
}
