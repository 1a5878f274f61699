package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/corebooks/corebooks/internal/core/ports/repositories"
)

// NewRepositories wires every PostgreSQL repository over a shared pool.
func NewRepositories(pool *pgxpool.Pool) portsrepo.Repositories {
	return portsrepo.Repositories{
		Entities:     newPgxEntityRepository(pool),
		Currencies:   newPgxCurrencyRepository(pool),
		Rates:        newPgxExchangeRateRepository(pool),
		Accounts:     newPgxAccountRepository(pool),
		Transactions: newPgxTransactionRepository(pool),
		Ledger:       newPgxLedgerRepository(pool),
		Assignments:  newPgxAssignmentRepository(pool),
		Periods:      newPgxReportingPeriodRepository(pool),
		Budgets:      newPgxBudgetRepository(pool),
	}
}
