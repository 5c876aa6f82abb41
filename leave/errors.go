/*
errors.go - Error taxonomy for the leave engine

PURPOSE:
  All engine errors in one place. Callers branch with errors.Is on the
  sentinels; the structured types carry the details for messages and logs.

ERROR CATEGORIES:
  1. Authentication - missing or wrong tenant credential / employee secret
  2. Lookup         - unknown tenant, employee, leave type, application
  3. Input          - bad dates, inverted ranges, non-positive durations
  4. Store          - ErrNoRecord / ErrConflict reported by Store implementations

USAGE:
  if errors.Is(err, leave.ErrNotFound) {
      // 404
  }

  var nf *leave.NotFoundError
  if errors.As(err, &nf) {
      log(nf.Entity)
  }

SEE ALSO:
  - api/errors.go: HTTP status mapping
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnauthorized covers a missing or invalid tenant credential or
	// employee access secret.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a tenant-scoped lookup has no match.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRange is returned when an end date is before its start date.
	ErrInvalidRange = errors.New("invalid date range: end before start")

	// ErrInvalidDuration is returned when a computed duration is not positive.
	ErrInvalidDuration = errors.New("invalid leave duration")

	// ErrInvalidDate is returned when a date is not a YYYY-MM-DD calendar day.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidInput is returned by record constructors.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition is returned when a review targets a non-pending
	// application or an unknown status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNoRecord is what Store implementations return for a missing row.
	// The engine converts it into a *NotFoundError naming the entity.
	ErrNoRecord = errors.New("record not found")

	// ErrConflict is what Store implementations return on a unique
	// constraint violation.
	ErrConflict = errors.New("record already exists")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// AuthError reports a failed tenant or employee authentication.
type AuthError struct {
	Subject string // "client" or "employee"
	Missing bool   // no credential supplied at all
}

func (e *AuthError) Error() string {
	if e.Missing {
		return fmt.Sprintf("missing %s credential", e.Subject)
	}
	return fmt.Sprintf("invalid %s credential", e.Subject)
}

func (e *AuthError) Unwrap() error { return ErrUnauthorized }

// NotFoundError names the entity that could not be resolved.
type NotFoundError struct {
	Entity string // "employee", "leave_type", "application", "client"
	Key    string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidRangeError reports an inverted date range.
type InvalidRangeError struct {
	Start Date
	End   Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("end_date %s cannot be before start_date %s", e.End, e.Start)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// InvalidDurationError reports a non-positive computed duration.
type InvalidDurationError struct {
	Days int
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("leave duration must be at least 1 day, got %d", e.Days)
}

func (e *InvalidDurationError) Unwrap() error { return ErrInvalidDuration }

// DateFormatError reports an unparseable date string.
type DateFormatError struct {
	Value string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", e.Value)
}

func (e *DateFormatError) Unwrap() error { return ErrInvalidDate }

// ValidationError reports a constructor rejecting a field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAuthError returns true for tenant or employee authentication failures.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// notFound turns a store-level ErrNoRecord into a *NotFoundError for entity.
// Other errors pass through unchanged.
func notFound(err error, entity, key string) error {
	if errors.Is(err, ErrNoRecord) {
		return &NotFoundError{Entity: entity, Key: key}
	}
	return err
}
