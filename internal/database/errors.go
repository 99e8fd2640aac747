package database

import "fmt"

// ConnectionError reports that a store could not be reached or prepared.
// It is fatal for the component that owns the store.
type ConnectionError struct {
	Store string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Store, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
