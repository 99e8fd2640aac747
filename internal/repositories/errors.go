package repositories

import "errors"

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a write violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrForeignKey is returned when a write references a missing record.
	ErrForeignKey = errors.New("foreign key violation")

	// ErrInvalidValue is returned when the store rejects a value for its shape
	// (not null, check constraint, too long, wrong type).
	ErrInvalidValue = errors.New("invalid value")
)

// ConstraintError is a write rejected by the store. Message is the store's
// own description of the failure.
type ConstraintError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *ConstraintError) Error() string {
	return e.Message
}

func (e *ConstraintError) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}
