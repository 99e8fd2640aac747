package services

import (
	"errors"
	"fmt"
)

// Credential store errors.
var (
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrDuplicateUserName = errors.New("user name already taken")
	ErrUserNotFound      = errors.New("unable to find user")
	ErrWrongPassword     = errors.New("incorrect password")
)

// ErrSetNotFound is returned when a set lookup, theme filter, update or
// delete matches no row.
var ErrSetNotFound = errors.New("unable to find requested set")

// ValidationError carries the first validation message for a rejected write.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PersistenceError wraps any other store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
