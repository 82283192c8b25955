package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyExists means a create hit an existing aggregate.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound means a referenced aggregate does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStateConflict means a guarded transition found the order in a
	// status other than the expected one. Either a concurrent writer won
	// the race or this is a duplicate delivery; in both cases nothing was
	// written and the operation is safe to drop.
	ErrStateConflict = errors.New("state conflict")

	// ErrNoItems means an operation required line items on an order that
	// has none.
	ErrNoItems = errors.New("order has no items")
)

// ValidationError rejects malformed input before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
