// Package apperrors defines the coded error set shared by the ledger core.
//
// Every error carries a stable machine-readable code so callers can branch
// programmatically, and a human message with enough context to diagnose the
// failure without re-querying. Code ranges:
//
//	LC1xxx transaction structure
//	LC2xxx account
//	LC3xxx balance / assignment
//	LC4xxx reporting period
//	LC9xxx system
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// AppError is the concrete error type used across the core. Sentinel
// instances below are matched by code, so wrapping with fmt.Errorf("%w", ...)
// or annotating via WithContext keeps errors.Is working.
type AppError struct {
	Code    string
	Message string
	Err     error
	Context map[string]any
}

func (e *AppError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches by code so annotated copies still compare equal to sentinels.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithContext returns a copy of the error carrying additional diagnostic
// key/value pairs (offending IDs, amounts). The receiver is not mutated.
func (e *AppError) WithContext(kv ...any) *AppError {
	clone := &AppError{Code: e.Code, Message: e.Message, Err: e.Err, Context: make(map[string]any, len(e.Context)+len(kv)/2)}
	for k, v := range e.Context {
		clone.Context[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kv[i])
		}
		clone.Context[key] = kv[i+1]
	}
	return clone
}

// Wrap returns a copy of the error with err recorded as its cause.
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{Code: e.Code, Message: e.Message, Err: err, Context: e.Context}
}

func newError(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// CodeOf extracts the machine code from an error chain, or "" if the chain
// contains no AppError.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Generic errors.
var (
	ErrNotFound   = newError("LC0404", "resource not found")
	ErrDuplicate  = newError("LC0409", "resource already exists")
	ErrValidation = newError("LC0400", "validation error")
)

// Transaction structure errors (LC1xxx).
var (
	ErrPostedTransaction      = newError("LC1001", "cannot modify a posted transaction")
	ErrMissingLineItem        = newError("LC1002", "transaction must have at least one line item")
	ErrRedundantTransaction   = newError("LC1003", "transaction main account cannot also be a line item account")
	ErrInvalidTransactionType = newError("LC1004", "invalid transaction type for this operation")
	ErrInvalidTransactionDate = newError("LC1005", "transaction date is outside the current reporting period")
	ErrUnbalancedTransaction  = newError("LC1006", "transaction is not balanced: debits must equal credits")
)

// Account errors (LC2xxx).
var (
	ErrInvalidAccountType   = newError("LC2001", "invalid account type for this operation")
	ErrDuplicateAccountCode = newError("LC2002", "an account with this code already exists")
	ErrHangingTransactions  = newError("LC2003", "cannot delete an account with existing transactions")
)

// Balance and assignment errors (LC3xxx).
var (
	ErrInsufficientBalance = newError("LC3001", "insufficient balance for this operation")
	ErrNegativeAmount      = newError("LC3002", "amount must be positive")
	ErrSelfAssignment      = newError("LC3003", "cannot assign a transaction to itself")
	ErrOverAssignment      = newError("LC3004", "assignment amount exceeds available balance")
	ErrInvalidAssignment   = newError("LC3005", "transactions cannot be assigned to each other")
	ErrInvalidExchangeRate = newError("LC3006", "no exchange rate found for the currency pair")
)

// Reporting period errors (LC4xxx).
var (
	ErrClosedReportingPeriod  = newError("LC4001", "reporting period is closed")
	ErrMissingReportingPeriod = newError("LC4002", "no open reporting period found")
	ErrInvalidReportingPeriod = newError("LC4003", "invalid reporting period configuration")
)

// System errors (LC9xxx).
var (
	ErrIntegrity     = newError("LC9001", "ledger integrity check failed: rows may have been altered")
	ErrConfiguration = newError("LC9002", "invalid configuration")
	ErrStorage       = newError("LC9003", "storage operation failed")
)
