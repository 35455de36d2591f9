/*
errors.go - Error taxonomy shared by every service

PURPOSE:
  All error categories in one place. Domain packages (bank, stock, purchase)
  define their own specific sentinels and structured errors, and make those
  errors unwrap to one of the categories below so callers can branch on
  either the specific failure or its category with errors.Is.

ERROR CATEGORIES:
  1. Client input  - malformed request, unknown item or denomination,
                     negative amounts. Never retried by the system.
  2. Precondition  - payment below the target amount. No state is touched,
                     the caller may retry with corrected input.
  3. Exhausted     - negative stock, change unavailable. Failed outcome for
                     that transaction, direct target left unchanged.
  4. Downstream    - a collaborator failed while executing a saga step.

USAGE:
  Structured errors unwrap to both their sentinel and their category:

    func (e *ChangeUnavailableError) Unwrap() []error {
        return []error{ErrChangeUnavailable, generic.ErrResourceExhausted}
    }

    if generic.IsResourceExhausted(err) { ... }

SEE ALSO:
  - bank/errors.go, stock/errors.go: domain errors
  - purchase/errors.go: DownstreamError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// CATEGORY SENTINELS - Use with errors.Is()
// =============================================================================

var (
	// ErrClientInput marks errors caused by a malformed or unknown request value.
	ErrClientInput = errors.New("invalid client input")

	// ErrPrecondition marks errors where the request is well formed but does
	// not satisfy an operation precondition (e.g. payment below price).
	ErrPrecondition = errors.New("precondition failed")

	// ErrResourceExhausted marks errors where a store cannot satisfy the
	// request with what it currently holds.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrDownstream marks errors raised by a collaborator during a saga step.
	ErrDownstream = errors.New("downstream call failed")
)

// ErrLaneClosed is returned when a mutation is submitted after shutdown.
var ErrLaneClosed = errors.New("mutation lane closed")

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InputError describes a single rejected request field.
type InputError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrClientInput
}

// LanePanicError is returned to the submitter of a job that panicked.
type LanePanicError struct {
	Lane  string
	Value any
}

func (e *LanePanicError) Error() string {
	return fmt.Sprintf("lane %s: job panicked: %v", e.Lane, e.Value)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrClientInput)
}

// IsPrecondition returns true if the request failed an operation precondition.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// IsResourceExhausted returns true if a store could not satisfy the request.
func IsResourceExhausted(err error) bool {
	return errors.Is(err, ErrResourceExhausted)
}

// Category returns a short label for err, used for metrics and API mapping.
func Category(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsClientError(err):
		return "client_input"
	case IsPrecondition(err):
		return "precondition"
	case IsResourceExhausted(err):
		return "resource_exhausted"
	case errors.Is(err, ErrDownstream):
		return "downstream"
	default:
		return "internal"
	}
}
