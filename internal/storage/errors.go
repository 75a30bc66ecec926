package storage

import "errors"

// Sentinel errors shared by every store implementation. The raw history
// tables are append-only: a key collision means the row was already
// extracted, never that it should be overwritten.
var (
	// ErrNotFound reports that no stored row matches the query.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey reports an insert whose key already exists.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput reports a nil row or one missing a required key field.
	ErrInvalidInput = errors.New("invalid input")
)
