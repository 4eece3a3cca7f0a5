package cycle

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/channel"
	"github.com/nerrad567/gray-logic-node/internal/reading"
	"github.com/nerrad567/gray-logic-node/internal/store"
)

// Clock supplies wall-clock and monotonic time.
type Clock interface {
	// Now returns the wall-clock time; it may be wrong after a cold start.
	Now() time.Time

	// Monotonic returns time elapsed on a clock that never jumps.
	Monotonic() time.Duration
}

// Sensor takes a reading. A sensor that is not fitted or does not answer
// returns an error wrapping ErrSensorAbsent.
type Sensor interface {
	Read(ctx context.Context) (reading.Reading, error)
}

// Battery reports the battery voltage independently of the sensor.
type Battery interface {
	Voltage(ctx context.Context) (float64, error)
}

// Sleeper suspends the node until the monotonic deadline. On hardware it
// does not return; if it does, the scheduler runs another cycle.
type Sleeper interface {
	SuspendUntil(ctx context.Context, deadline time.Duration) error
}

// Capabilities bundles everything a cycle talks to. Battery is optional;
// without it the voltage comes from the sensor reading.
type Capabilities struct {
	Clock        Clock
	Sensor       Sensor
	Battery      Battery
	Connectivity channel.Connectivity
	Sleeper      Sleeper
	Store        store.Store
}

// sweeper is implemented by stores that leave temporary files behind.
type sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Logger defines the logging interface used by the Scheduler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
