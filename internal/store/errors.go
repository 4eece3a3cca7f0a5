package store

import "errors"

// Sentinel errors for store operations.
//
// Check with errors.Is():
//
//	if errors.Is(err, store.ErrFull) {
//	    // skip durable writes this cycle
//	}
var (
	// ErrNotFound is returned by Read for an absent record.
	ErrNotFound = errors.New("store: record not found")

	// ErrFull is returned when the medium has no space left.
	ErrFull = errors.New("store: medium full")

	// ErrReadOnly is returned when the medium refuses writes.
	ErrReadOnly = errors.New("store: medium read-only")

	// ErrInvalidName is returned for names that are empty or escape the root.
	ErrInvalidName = errors.New("store: invalid record name")
)
