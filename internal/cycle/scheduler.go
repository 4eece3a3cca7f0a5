package cycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-node/internal/channel"
	"github.com/nerrad567/gray-logic-node/internal/queue"
	"github.com/nerrad567/gray-logic-node/internal/quiet"
	"github.com/nerrad567/gray-logic-node/internal/reading"
	"github.com/nerrad567/gray-logic-node/internal/store"
)

// State is the point a cycle reached.
type State int

// Cycle states, in order.
const (
	StateStart State = iota
	StateTimeValidated
	StateThrottleChecked
	StateAttempted
	StateScheduled
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateTimeValidated:
		return "time_validated"
	case StateThrottleChecked:
		return "throttle_checked"
	case StateAttempted:
		return "attempted"
	case StateScheduled:
		return "scheduled"
	default:
		return "unknown"
	}
}

// Config holds scheduling policy.
type Config struct {
	// ReadingInterval is the normal sleep between cycles.
	ReadingInterval time.Duration

	// ClockRetrySleep is the sleep after waking with an implausible clock.
	ClockRetrySleep time.Duration

	// MinPlausibleTime is the earliest clock reading that is trusted.
	MinPlausibleTime time.Time

	// BatchSize is the backlog batch size for channels without a preference.
	BatchSize int

	// LogRecord is the name of the append-only reading log ("temperature.txt").
	LogRecord string

	// Extension is the record extension for queue entries.
	Extension string

	// Quiet configures the battery throttle.
	Quiet quiet.Config
}

// Outcome describes one finished cycle.
type Outcome struct {
	CycleID string
	State   State
	Sleep   time.Duration
	Mode    quiet.Mode

	// Kind is the first significant failure; Err is its cause.
	Kind ErrorKind
	Err  error

	Logged  bool
	Sent    bool
	Queued  bool
	Drained int
}

// fail records err unless an earlier failure is already recorded.
func (o *Outcome) fail(err error) {
	if o.Kind != KindNone || err == nil {
		return
	}
	o.Kind = classify(err)
	o.Err = err
}

// Scheduler runs wake cycles.
//
// It keeps no state between cycles: everything that must survive is in
// the store, so a Scheduler can be rebuilt on every boot.
type Scheduler struct {
	caps     Capabilities
	cfg      Config
	queue    *queue.Queue
	throttle *quiet.Throttle
	logger   Logger
}

// New creates a scheduler. Clock, Sensor, Connectivity, Sleeper and Store
// are required.
func New(caps Capabilities, cfg Config) (*Scheduler, error) {
	switch {
	case caps.Clock == nil:
		return nil, fmt.Errorf("%w: clock", ErrMissingCapability)
	case caps.Sensor == nil:
		return nil, fmt.Errorf("%w: sensor", ErrMissingCapability)
	case caps.Connectivity == nil:
		return nil, fmt.Errorf("%w: connectivity", ErrMissingCapability)
	case caps.Sleeper == nil:
		return nil, fmt.Errorf("%w: sleeper", ErrMissingCapability)
	case caps.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingCapability)
	}

	if cfg.LogRecord == "" {
		cfg.LogRecord = "temperature." + queue.DefaultExtension
	}

	return &Scheduler{
		caps:     caps,
		cfg:      cfg,
		queue:    queue.New(caps.Store, cfg.Extension),
		throttle: quiet.New(caps.Store, cfg.Quiet),
		logger:   noopLogger{},
	}, nil
}

// SetLogger sets the logger for the scheduler and its queue and throttle.
func (s *Scheduler) SetLogger(logger Logger) {
	s.logger = logger
	s.queue.SetLogger(logger)
	s.throttle.SetLogger(logger)
}

// Queue returns the backlog the scheduler drains.
func (s *Scheduler) Queue() *queue.Queue {
	return s.queue
}

// RunCycle performs one wake cycle and returns what happened and how long
// to sleep. It never fails: every error is folded into the Outcome.
func (s *Scheduler) RunCycle(ctx context.Context) Outcome {
	out := Outcome{
		CycleID: uuid.NewString(),
		State:   StateStart,
		Sleep:   s.cfg.ReadingInterval,
	}
	defer s.report(&out)

	now := s.caps.Clock.Now()
	if now.Before(s.cfg.MinPlausibleTime) {
		out.Kind = KindClockInvalid
		out.Err = fmt.Errorf("clock reads %s, before %s", now.UTC().Format(time.RFC3339),
			s.cfg.MinPlausibleTime.UTC().Format(time.RFC3339))
		out.Sleep = s.cfg.ClockRetrySleep
		out.State = StateScheduled
		return out
	}
	out.State = StateTimeValidated
	s.sweep(ctx, out.CycleID)

	var (
		r         reading.Reading
		sensorErr error
		sensorRan bool
		voltage   *float64
	)
	if s.caps.Battery != nil {
		if v, err := s.caps.Battery.Voltage(ctx); err == nil {
			voltage = &v
		} else {
			s.logger.Warn("battery voltage unavailable", "cycle_id", out.CycleID, "error", err)
		}
	} else {
		r, sensorErr = s.readSensor(ctx, now)
		sensorRan = true
		if sensorErr == nil {
			if v, ok := r.Voltage(); ok {
				voltage = &v
			}
		}
	}

	decision, err := s.throttle.Check(ctx, voltage)
	if err != nil {
		s.logger.Warn("quiet state storage failed", "cycle_id", out.CycleID, "error", err)
	}
	out.Mode = decision.Mode
	out.State = StateThrottleChecked
	if decision.ForceSleep {
		s.logger.Info("quiet mode, skipping network activity",
			"cycle_id", out.CycleID,
			"reason", decision.Reason,
			"mark", decision.Mark,
		)
		out.Sleep = decision.Sleep
		out.State = StateScheduled
		return out
	}

	if !sensorRan {
		r, sensorErr = s.readSensor(ctx, now)
		if sensorErr == nil && voltage != nil && r.BatteryVoltage == nil {
			r = r.WithVoltage(*voltage, reading.BatteryModeUnknown)
		}
	}

	haveReading := sensorErr == nil
	if !haveReading {
		out.fail(sensorErr)
		s.logger.Warn("no reading this cycle", "cycle_id", out.CycleID, "error", sensorErr)
	} else if !s.logReading(ctx, &out, r) {
		out.State = StateScheduled
		return out
	}

	s.transmit(ctx, &out, r, haveReading)
	out.State = StateScheduled
	return out
}

// readSensor takes a reading, stamping it with now when the sensor left
// the capture time unset. Any sensor failure counts as an absent sensor.
func (s *Scheduler) readSensor(ctx context.Context, now time.Time) (reading.Reading, error) {
	r, err := s.caps.Sensor.Read(ctx)
	if err != nil {
		if errors.Is(err, ErrSensorAbsent) {
			return reading.Reading{}, err
		}
		return reading.Reading{}, fmt.Errorf("%w: %w", ErrSensorAbsent, err)
	}
	if r.CapturedAt.IsZero() {
		r.CapturedAt = now
	}
	return r, nil
}

// logReading appends r to the durable log. It returns false when the
// medium cannot take writes, in which case nothing else should be tried.
func (s *Scheduler) logReading(ctx context.Context, out *Outcome, r reading.Reading) bool {
	err := s.caps.Store.Append(ctx, s.cfg.LogRecord, []byte(r.LogLine()))
	switch {
	case err == nil:
		out.Logged = true
		return true
	case store.IsUnwritable(err):
		out.fail(err)
		s.logger.Error("storage unwritable, skipping log and transmission",
			"cycle_id", out.CycleID,
			"error", err,
		)
		return false
	default:
		s.logger.Warn("appending reading to log failed", "cycle_id", out.CycleID, "error", err)
		return true
	}
}

// transmit sends the current reading, queueing it on failure, then drains
// the backlog if the channel is still good.
func (s *Scheduler) transmit(ctx context.Context, out *Outcome, r reading.Reading, haveReading bool) {
	ch, err := s.caps.Connectivity.AttemptTransport(ctx)
	out.State = StateAttempted
	if err != nil {
		if !errors.Is(err, channel.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", channel.ErrUnavailable, err)
		}
		out.fail(err)
		s.logger.Warn("no transport available", "cycle_id", out.CycleID, "error", err)
		if haveReading {
			s.enqueue(ctx, out, r)
		}
		return
	}
	defer s.closeChannel(ch, out.CycleID)

	if haveReading {
		if err := ch.SendOne(ctx, r); err != nil {
			out.fail(err)
			s.logger.Warn("sending reading failed", "cycle_id", out.CycleID, "error", err)
			s.enqueue(ctx, out, r)
			return
		}
		out.Sent = true
	}

	res, err := s.queue.DrainVia(ctx, ch, channel.BatchSizeFor(ch, s.cfg.BatchSize))
	out.Drained = res.Delivered
	if err != nil {
		s.logger.Warn("draining backlog failed", "cycle_id", out.CycleID, "error", err)
	}
	if res.SendErr != nil {
		s.logger.Info("backlog drain stopped",
			"cycle_id", out.CycleID,
			"delivered", res.Delivered,
			"error", res.SendErr,
		)
	}
}

// enqueue stores r for a later cycle. A storage failure loses the reading
// from the backlog; it is still in the log.
func (s *Scheduler) enqueue(ctx context.Context, out *Outcome, r reading.Reading) {
	id, err := s.queue.Enqueue(ctx, r)
	if err != nil {
		if store.IsUnwritable(err) {
			out.Kind = classify(err)
			out.Err = err
		}
		s.logger.Error("queueing reading failed", "cycle_id", out.CycleID, "error", err)
		return
	}
	out.Queued = true
	s.logger.Debug("reading queued", "cycle_id", out.CycleID, "entry", int64(id))
}

// closeChannel closes channels that hold a connection.
func (s *Scheduler) closeChannel(ch channel.Channel, cycleID string) {
	c, ok := ch.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		s.logger.Warn("closing transport failed", "cycle_id", cycleID, "error", err)
	}
}

// sweep removes leftovers from writes interrupted by a reset.
func (s *Scheduler) sweep(ctx context.Context, cycleID string) {
	sw, ok := s.caps.Store.(sweeper)
	if !ok {
		return
	}
	n, err := sw.Sweep(ctx)
	if err != nil {
		s.logger.Warn("sweeping temporary records failed", "cycle_id", cycleID, "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("removed interrupted writes", "cycle_id", cycleID, "count", n)
	}
}

// report logs the cycle summary.
func (s *Scheduler) report(out *Outcome) {
	args := []any{
		"cycle_id", out.CycleID,
		"state", out.State.String(),
		"mode", out.Mode.String(),
		"sleep", out.Sleep.String(),
		"logged", out.Logged,
		"sent", out.Sent,
		"queued", out.Queued,
		"drained", out.Drained,
	}
	if out.Kind != KindNone {
		args = append(args, "error_kind", out.Kind.String(), "error", out.Err)
	}
	s.logger.Info("cycle complete", args...)
}

// Run executes cycles until ctx is done. After each cycle it asks the
// Sleeper to suspend until the next one; if the Sleeper returns, the next
// cycle starts immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		out := s.RunCycle(ctx)
		deadline := s.caps.Clock.Monotonic() + out.Sleep

		err := s.caps.Sleeper.SuspendUntil(ctx, deadline)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			s.logger.Warn("suspend failed", "cycle_id", out.CycleID, "error", err)
		}
		s.logger.Debug("woke without power cycle", "cycle_id", out.CycleID)
	}
}
