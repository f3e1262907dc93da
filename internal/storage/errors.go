package storage

import "errors"

// Common errors returned by storage backends
var (
	// ErrNotFound is returned when no asset exists at a locator.
	ErrNotFound = errors.New("asset not found")

	// ErrInvalidKey is returned when a key is empty or escapes the storage root.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrInvalidLocator is returned when a locator does not belong to the backend.
	ErrInvalidLocator = errors.New("invalid storage locator")

	// ErrUnknownBackend is returned by New for an unrecognised backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
)
