package domain

import (
	"errors"
	"fmt"
)

// Conflict errors: recoverable by the caller picking a different input
// or waiting.
var (
	ErrSlotTaken             = errors.New("slot already taken by another appointment")
	ErrDuplicateActive       = errors.New("user already has an active future appointment")
	ErrQuotaEmpty            = errors.New("no AI tries left")
	ErrNoFinishedAppointment = errors.New("patient has no finished appointment")
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("caller is not allowed to perform this action")
	// ErrInvariant marks an internal-consistency failure. The enclosing
	// transaction must abort, never partially commit.
	ErrInvariant = errors.New("invariant violation")
)

// ValidationError carries a machine-readable reason for a rejected input.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return e.Reason
}

func NewValidationError(format string, args ...any) ValidationError {
	return ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
