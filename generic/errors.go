/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain code wraps these with %w so callers can classify failures with
  errors.Is / errors.As regardless of which store produced them.

ERROR CATEGORIES:
  1. Validation errors - malformed ranges, illegal state transitions
  2. Store errors - persistence failures, surfaced verbatim
  3. Workflow errors - partial completion, unresolved coverage

SEE ALSO:
  - resource.go: Tagged result carrying these errors to callers
  - api/handlers.go: Maps error categories to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidTimeRange is returned when a time window is empty or inverted.
	ErrInvalidTimeRange = errors.New("invalid time range: start must be before end")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a status change is not allowed
	// by the record's state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDuplicateAssignment is returned when an employee would appear twice
	// on the same shift.
	ErrDuplicateAssignment = errors.New("employee already assigned to shift")

	// ErrEmployeeUnavailable is returned when an assignee is busy on an
	// overlapping shift or on approved absence.
	ErrEmployeeUnavailable = errors.New("employee not available")

	// ErrNotAssigned is returned when an employee is expected on a shift but isn't.
	ErrNotAssigned = errors.New("employee not assigned to shift")

	// ErrUnresolvedCoverage is returned when a coverage plan is confirmed
	// while some affected shifts have no resolution.
	ErrUnresolvedCoverage = errors.New("coverage plan has unresolved shifts")

	// ErrNotApplicable is returned when an operation does not apply to the
	// given record (e.g., coverage for a non sick-leave absence).
	ErrNotApplicable = errors.New("operation not applicable")

	// ErrDecisionFailed wraps every failure of an absence decision.
	ErrDecisionFailed = errors.New("absence decision failed")

	// ErrStore wraps persistence failures from any store implementation.
	ErrStore = errors.New("store failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// TransitionError provides details about a rejected status change.
type TransitionError struct {
	Kind string // "absence", "weekly_shift"
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Kind, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// UnresolvedCoverageError lists the shifts still lacking a resolution.
type UnresolvedCoverageError struct {
	ShiftIDs []string
}

func (e *UnresolvedCoverageError) Error() string {
	return fmt.Sprintf("%d shift(s) without resolution: %s",
		len(e.ShiftIDs), strings.Join(e.ShiftIDs, ", "))
}

func (e *UnresolvedCoverageError) Unwrap() error {
	return ErrUnresolvedCoverage
}

// StoreError tags a persistence failure with the operation that failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() []error { return []error{ErrStore, e.Err} }

// WrapStore wraps a non-nil store error; nil stays nil.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidTimeRange) ||
		errors.Is(err, ErrDuplicateAssignment) ||
		errors.Is(err, ErrNotAssigned) ||
		errors.Is(err, ErrNotApplicable)
}

// IsConflict returns true if the error is due to the record's current state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrUnresolvedCoverage) ||
		errors.Is(err, ErrEmployeeUnavailable)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
