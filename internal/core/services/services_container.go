package services

import (
	"github.com/corebooks/corebooks/internal/core/events"
	portsrepo "github.com/corebooks/corebooks/internal/core/ports/repositories"
)

// ContainerConfig carries the behavioral knobs the service layer reads.
type ContainerConfig struct {
	// BlockUnassignInClosedPeriods refuses assignment removal when either
	// endpoint transaction falls in a CLOSED period.
	BlockUnassignInClosedPeriods bool
	// IntegrityBatchSize pages the ledger integrity sweep; <= 0 picks the
	// default.
	IntegrityBatchSize int
}

// ServiceContainer wires every service over a repository bundle and a
// shared event registry.
type ServiceContainer struct {
	Events      *events.Registry
	Currency    *CurrencyService
	Rates       *ExchangeRateService
	Accounts    *AccountService
	Periods     *ReportingPeriodService
	Transaction *TransactionService
	Ledger      *LedgerService
	Assignments *AssignmentService
	Budgets     *BudgetService
}

// NewServiceContainer builds the full service graph.
func NewServiceContainer(repos portsrepo.Repositories, cfg ContainerConfig) *ServiceContainer {
	registry := events.NewRegistry()

	currencySvc := NewCurrencyService(repos.Currencies)
	rateSvc := NewExchangeRateService(repos.Rates, currencySvc)
	periodSvc := NewReportingPeriodService(repos.Periods, registry)
	accountSvc := NewAccountService(repos.Accounts, repos.Ledger, rateSvc, periodSvc)
	txnSvc := NewTransactionService(repos.Transactions, repos.Accounts, periodSvc, registry)
	ledgerSvc := NewLedgerService(repos.Ledger, cfg.IntegrityBatchSize)
	assignmentSvc := NewAssignmentService(repos.Assignments, repos.Transactions, repos.Periods, registry, cfg.BlockUnassignInClosedPeriods)
	budgetSvc := NewBudgetService(repos.Budgets, accountSvc, periodSvc)

	return &ServiceContainer{
		Events:      registry,
		Currency:    currencySvc,
		Rates:       rateSvc,
		Accounts:    accountSvc,
		Periods:     periodSvc,
		Transaction: txnSvc,
		Ledger:      ledgerSvc,
		Assignments: assignmentSvc,
		Budgets:     budgetSvc,
	}
}
