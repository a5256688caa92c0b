package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store. Entity-specific wrappers below all unwrap to it.
	ErrNotFound = errors.New("entity not found")

	// ErrUnavailable is returned when a store cannot be reached at all,
	// for example when the remote document store times out. Callers in
	// the progress service treat it as non-fatal.
	ErrUnavailable = errors.New("store unavailable")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific details.
	ErrInvalidEntity = errors.New("invalid entity")

	// Entity-specific "not found" errors.

	// ErrSessionStateNotFound indicates no session state exists for the
	// requested (learner, catalog) pair.
	ErrSessionStateNotFound = fmt.Errorf("%w: session state", ErrNotFound)

	// ErrCardSetNotFound indicates no card set exists for the requested
	// (learner, catalog) pair.
	ErrCardSetNotFound = fmt.Errorf("%w: card set", ErrNotFound)

	// ErrCatalogNotFound indicates the requested catalog does not exist.
	ErrCatalogNotFound = fmt.Errorf("%w: catalog", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailableError checks if the error indicates an unreachable store.
func IsUnavailableError(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
