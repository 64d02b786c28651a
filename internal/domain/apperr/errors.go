// Package apperr holds the error classes shared by the shop stores.
// Package-level sentinels in the domain packages wrap one of these, so a
// caller can match either the precise error or its class with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input rejected before any mutation.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a reference to an id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a request that is well formed but cannot be applied
	// to the current state, such as selling more than is in stock.
	ErrConflict = errors.New("conflict")
	// ErrPersistence marks a failed read or write of the backing document store.
	ErrPersistence = errors.New("persistence failure")
)

// Persistence wraps a storage error so it matches ErrPersistence.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
