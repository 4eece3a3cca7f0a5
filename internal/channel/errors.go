package channel

import "errors"

// Transmission errors. Transports wrap their underlying cause with one of
// these so the cycle can classify a failure without knowing the transport.
var (
	// ErrRejected is returned when the collector answered but refused the data.
	ErrRejected = errors.New("channel: rejected")

	// ErrTimeout is returned when the collector did not answer in time.
	ErrTimeout = errors.New("channel: timeout")

	// ErrUnavailable is returned when no transport could be brought up.
	ErrUnavailable = errors.New("channel: unavailable")
)
