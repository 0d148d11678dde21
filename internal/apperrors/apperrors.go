// Package apperrors defines the error taxonomy of the cash session engine.
// Every error a service returns wraps one of these sentinels so that handlers
// can map it to an HTTP status and a machine-readable kind with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrValidation indicates malformed input, rejected before any write.
var ErrValidation = errors.New("validation error")

// ErrSessionAlreadyOpen indicates an open session already exists for the
// (operator, terminal) pair.
var ErrSessionAlreadyOpen = errors.New("session already open")

// ErrSessionNotActive indicates the target session is not in the open state,
// so no movement can be appended to it.
var ErrSessionNotActive = errors.New("session not active")

// ErrSessionAlreadyClosed indicates a transition out of the terminal state
// was attempted.
var ErrSessionAlreadyClosed = errors.New("session already closed")

// ErrSessionNotFound indicates the session id does not exist.
var ErrSessionNotFound = errors.New("session not found")

// ErrNoActiveSession indicates no open session exists for the operator and
// terminal of an incoming sale. The sale flow decides what to do with it.
var ErrNoActiveSession = errors.New("no active cash session")

// ErrReconciliation indicates the reconciliation computation detected
// corrupted movement data. Fatal to the close; requires manual review.
var ErrReconciliation = errors.New("reconciliation failure")

// ErrReportGeneration indicates the Z-report could not be persisted. Fatal to
// the close; the whole transaction rolls back.
var ErrReportGeneration = errors.New("report generation failure")

// ErrReportNotFound indicates no Z-report exists for the session.
var ErrReportNotFound = errors.New("z-report not found")

// ErrConcurrencyConflict indicates a per-session write race exhausted its
// retries.
var ErrConcurrencyConflict = errors.New("concurrency conflict")

// Kind returns the wire identifier for err, or "internal" when the error does
// not belong to the taxonomy.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrSessionAlreadyOpen):
		return "session_already_open"
	case errors.Is(err, ErrSessionNotActive):
		return "session_not_active"
	case errors.Is(err, ErrSessionAlreadyClosed):
		return "session_already_closed"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrNoActiveSession):
		return "no_active_session"
	case errors.Is(err, ErrReconciliation):
		return "reconciliation_failure"
	case errors.Is(err, ErrReportGeneration):
		return "report_generation_failure"
	case errors.Is(err, ErrReportNotFound):
		return "report_not_found"
	case errors.Is(err, ErrConcurrencyConflict):
		return "concurrency_conflict"
	default:
		return "internal"
	}
}

// Validationf wraps ErrValidation with a formatted reason.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}
