package domain

import "time"

// PeriodStatus is the lifecycle state of a reporting period. Transitions
// run strictly forward: OPEN -> ADJUSTING -> CLOSED, never back.
type PeriodStatus string

const (
	PeriodOpen      PeriodStatus = "OPEN"
	PeriodAdjusting PeriodStatus = "ADJUSTING"
	PeriodClosed    PeriodStatus = "CLOSED"
)

// ReportingPeriod bounds which transaction dates are currently mutable for
// an entity. At most one period per entity is OPEN at a time.
type ReportingPeriod struct {
	PeriodID    string       `json:"periodID"`
	EntityID    string       `json:"entityID"`
	Year        int          `json:"year"`
	PeriodStart time.Time    `json:"periodStart"`
	PeriodEnd   time.Time    `json:"periodEnd"`
	Status      PeriodStatus `json:"status"`
	AuditFields
	Recyclable
}

// ContainsDate reports whether the given date falls inside the period's
// range (inclusive bounds).
func (p *ReportingPeriod) ContainsDate(date time.Time) bool {
	return !date.Before(p.PeriodStart) && !date.After(p.PeriodEnd)
}

// CanTransitionTo reports whether the forward-only state machine permits
// moving from the current status to the target.
func (p *ReportingPeriod) CanTransitionTo(target PeriodStatus) bool {
	switch p.Status {
	case PeriodOpen:
		return target == PeriodAdjusting || target == PeriodClosed
	case PeriodAdjusting:
		return target == PeriodClosed
	default:
		return false
	}
}

// AcceptsTransactionType reports whether a transaction of the given type may
// be posted while the period is in its current state.
func (p *ReportingPeriod) AcceptsTransactionType(t TransactionType) bool {
	switch p.Status {
	case PeriodOpen:
		return true
	case PeriodAdjusting:
		return t.AllowedInAdjustingPeriod()
	default:
		return false
	}
}
