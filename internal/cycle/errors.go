package cycle

import (
	"errors"

	"github.com/nerrad567/gray-logic-node/internal/channel"
	"github.com/nerrad567/gray-logic-node/internal/store"
)

// Errors reported by collaborators.
var (
	// ErrSensorAbsent is returned by a Sensor that cannot produce a reading.
	ErrSensorAbsent = errors.New("cycle: sensor absent")

	// ErrMissingCapability is returned by New when a required collaborator is nil.
	ErrMissingCapability = errors.New("cycle: missing capability")
)

// ErrorKind classifies what went wrong in a cycle. Only the first
// significant failure is kept; the cycle itself never fails.
type ErrorKind int

// Error kinds.
const (
	KindNone ErrorKind = iota
	KindClockInvalid
	KindSensorAbsent
	KindConnectivityUnavailable
	KindTransmissionRejected
	KindTransmissionTimeout
	KindStorageFull
	KindStorageReadOnly
)

// String returns the kind name used in logs.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindClockInvalid:
		return "clock_invalid"
	case KindSensorAbsent:
		return "sensor_absent"
	case KindConnectivityUnavailable:
		return "connectivity_unavailable"
	case KindTransmissionRejected:
		return "transmission_rejected"
	case KindTransmissionTimeout:
		return "transmission_timeout"
	case KindStorageFull:
		return "storage_full"
	case KindStorageReadOnly:
		return "storage_read_only"
	default:
		return "unknown"
	}
}

// classify maps a collaborator error onto an ErrorKind.
func classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, store.ErrFull):
		return KindStorageFull
	case errors.Is(err, store.ErrReadOnly):
		return KindStorageReadOnly
	case errors.Is(err, ErrSensorAbsent):
		return KindSensorAbsent
	case errors.Is(err, channel.ErrUnavailable):
		return KindConnectivityUnavailable
	case errors.Is(err, channel.ErrTimeout):
		return KindTransmissionTimeout
	default:
		return KindTransmissionRejected
	}
}
