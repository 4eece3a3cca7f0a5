package queue

import "errors"

// Domain errors for the queue package.
var (
	// ErrInvalidBatchSize is never returned by DrainVia, which clamps the
	// size to one; PeekBatch returns it for n < 1.
	ErrInvalidBatchSize = errors.New("queue: invalid batch size")
)
