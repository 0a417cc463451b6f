package models

import "errors"

var (
	// ErrValidation indicates malformed input to a create/update operation.
	// The operation has no side effect when this is returned.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates an operation referenced an unknown medicine or alarm.
	ErrNotFound = errors.New("not found")

	// ErrStorageCorrupt indicates the persisted payload could not be decoded.
	// Readers treat it as non-fatal and fall back to an empty collection.
	ErrStorageCorrupt = errors.New("storage corrupt")
)
