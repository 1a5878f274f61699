// Package memory provides in-memory implementations of the persistence
// ports. They back the service test suites and small embedded deployments;
// the pgsql package is the production implementation.
package memory

import (
	"sync"

	"github.com/corebooks/corebooks/internal/core/domain"
	portsrepo "github.com/corebooks/corebooks/internal/core/ports/repositories"
)

// Store holds every aggregate behind a single mutex. The posting and
// assignment paths need multi-record atomicity, and one lock keeps the
// in-memory semantics aligned with the row-locked pgsql paths.
type Store struct {
	mu sync.RWMutex

	entities    map[string]domain.Entity
	currencies  map[string]map[string]domain.Currency     // entityID -> currencyID
	rates       map[string][]domain.ExchangeRate          // entityID -> rates
	accounts    map[string]map[string]domain.Account      // entityID -> accountID
	txns        map[string]map[string]domain.Transaction  // entityID -> transactionID
	ledger      map[string][]domain.LedgerEntry           // entityID -> rows in sequence order
	assignments map[string]map[string]domain.Assignment   // entityID -> assignmentID
	periods     map[string]map[string]domain.ReportingPeriod // entityID -> periodID
	budgets     map[string]map[string]domain.Budget       // entityID -> budgetID

	sequences map[string]int64 // entityID -> last issued ledger sequence
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		entities:    make(map[string]domain.Entity),
		currencies:  make(map[string]map[string]domain.Currency),
		rates:       make(map[string][]domain.ExchangeRate),
		accounts:    make(map[string]map[string]domain.Account),
		txns:        make(map[string]map[string]domain.Transaction),
		ledger:      make(map[string][]domain.LedgerEntry),
		assignments: make(map[string]map[string]domain.Assignment),
		periods:     make(map[string]map[string]domain.ReportingPeriod),
		budgets:     make(map[string]map[string]domain.Budget),
		sequences:   make(map[string]int64),
	}
}

// Repositories exposes the store as the full persistence bundle.
func (s *Store) Repositories() portsrepo.Repositories {
	return portsrepo.Repositories{
		Entities:     &entityRepository{store: s},
		Currencies:   &currencyRepository{store: s},
		Rates:        &exchangeRateRepository{store: s},
		Accounts:     &accountRepository{store: s},
		Transactions: &transactionRepository{store: s},
		Ledger:       &ledgerRepository{store: s},
		Assignments:  &assignmentRepository{store: s},
		Periods:      &reportingPeriodRepository{store: s},
		Budgets:      &budgetRepository{store: s},
	}
}
