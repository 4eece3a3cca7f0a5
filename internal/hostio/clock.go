package hostio

import (
	"context"
	"time"
)

// SystemClock reads the host clock. Monotonic time is measured from the
// moment the clock was created.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock whose monotonic origin is now.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns the wall-clock time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

// Monotonic returns the time elapsed since the clock was created.
func (c *SystemClock) Monotonic() time.Duration {
	return time.Since(c.start)
}

// ProcessSleeper suspends by blocking the process. Unlike deep sleep on a
// microcontroller it returns when the deadline passes, so the scheduler
// simply runs the next cycle.
type ProcessSleeper struct {
	clock *SystemClock
}

// NewProcessSleeper returns a sleeper measuring deadlines on clock.
func NewProcessSleeper(clock *SystemClock) *ProcessSleeper {
	return &ProcessSleeper{clock: clock}
}

// SuspendUntil blocks until the monotonic deadline or until ctx is done.
func (s *ProcessSleeper) SuspendUntil(ctx context.Context, deadline time.Duration) error {
	wait := deadline - s.clock.Monotonic()
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
