package storage

import "errors"

var (
	// ErrNotFound is returned for a missing cache entry, result or run.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a result id or fill id is already
	// stored. Results and fills are never overwritten.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned for nil records or records missing their
	// identifying fields.
	ErrInvalidInput = errors.New("invalid input")
)
