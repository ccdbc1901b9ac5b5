/*
errors.go - Centralized error taxonomy for the attendance engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Packages wrap these with additional context; callers branch with
  errors.Is / errors.As.

ERROR CATEGORIES:
  1. Parse errors   - bad tokens and unrecognized line layouts
  2. Lookup errors  - unknown employees
  3. File errors    - empty or unreadable uploads
  4. Ledger errors  - balance misuse by callers

PROPAGATION POLICY:
  Per-record errors during a batch import are captured into the import
  summary, never thrown to abort the batch. Whole-file errors (ErrEmptyFile)
  abort immediately since no partial result is meaningful.

SEE ALSO:
  - parse: produces the parse errors
  - importer: accumulates LineError values into the summary
  - compensation: raises ErrInsufficientBalance before SubtractHours
*/
package clock

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidTimeFormat is returned when no 1-4 digit run can be
	// extracted from a time token.
	ErrInvalidTimeFormat = errors.New("invalid time format")

	// ErrInvalidDateFormat is returned when a date token matches none of
	// the known layouts.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrUnrecognizedLineFormat is returned when a non-blank, non-header
	// line matches none of the known line layouts.
	ErrUnrecognizedLineFormat = errors.New("unrecognized line format")

	// ErrEmployeeNotFound is returned when an external identifier resolves
	// to no directory entry.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrEmptyFile is returned when an upload has no usable content at all.
	// This aborts the whole import.
	ErrEmptyFile = errors.New("empty or unreadable file")

	// ErrInsufficientBalance is raised by callers of SubtractHours (the
	// compensation workflow), not by the ledger itself: the ledger applies
	// no floor and a balance may legitimately go negative.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBalanceNotFound is returned when an employee has no balance yet
	// and the operation cannot create one.
	ErrBalanceNotFound = errors.New("balance not found")

	// ErrRecordNotFound is returned when a (employee, date) record lookup
	// finds nothing.
	ErrRecordNotFound = errors.New("record not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// LineError scopes a parse or processing failure to one source line.
// Line numbers are 1-based; spreadsheet rows count the header as row 1.
type LineError struct {
	Line    int
	Content string // truncated copy of the offending line
	Err     error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// UnknownEmployeeError reports an identifier the directory could not resolve.
type UnknownEmployeeError struct {
	ExternalID string
}

func (e *UnknownEmployeeError) Error() string {
	return fmt.Sprintf("employee not found: %s", e.ExternalID)
}

func (e *UnknownEmployeeError) Unwrap() error { return ErrEmployeeNotFound }

// InsufficientBalanceError carries the shortfall details for a rejected
// compensation.
type InsufficientBalanceError struct {
	EmployeeID EmployeeID
	Available  float64
	Requested  float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %.2fh, requested %.2fh", e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// TokenError reports the raw token that failed a parser.
type TokenError struct {
	Token string
	Err   error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Token)
}

func (e *TokenError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true when the error is due to bad input rather than
// an engine fault. The API layer maps these to 4xx responses.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTimeFormat) ||
		errors.Is(err, ErrInvalidDateFormat) ||
		errors.Is(err, ErrUnrecognizedLineFormat) ||
		errors.Is(err, ErrEmptyFile) ||
		errors.Is(err, ErrInsufficientBalance)
}

// IsNotFound returns true when the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrBalanceNotFound) ||
		errors.Is(err, ErrRecordNotFound)
}
