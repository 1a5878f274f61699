package repositories

// Repositories bundles every persistence port the service container needs.
// Both the pgsql and the in-memory implementations can populate it.
type Repositories struct {
	Entities     EntityRepository
	Currencies   CurrencyRepository
	Rates        ExchangeRateRepository
	Accounts     AccountRepository
	Transactions TransactionRepository
	Ledger       LedgerRepository
	Assignments  AssignmentRepository
	Periods      ReportingPeriodRepository
	Budgets      BudgetRepository
}
