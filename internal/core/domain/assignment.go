package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Assignment allocates an amount from a source transaction with funds
// available (e.g. a client receipt) to settle a target transaction (e.g. a
// client invoice). It is an association object owned by neither endpoint;
// the IDs are lookup keys, not ownership references.
type Assignment struct {
	AssignmentID        string          `json:"assignmentID"`
	EntityID            string          `json:"entityID"`
	SourceTransactionID string          `json:"sourceTransactionID"`
	TargetTransactionID string          `json:"targetTransactionID"`
	Amount              decimal.Decimal `json:"amount"`
	AssignedAt          time.Time       `json:"assignedAt"`
	AuditFields
	Recyclable
}
