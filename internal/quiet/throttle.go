package quiet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/store"
)

// Mode is the throttle state.
type Mode int

const (
	// Normal means the cycle proceeds at the normal interval.
	Normal Mode = iota

	// Quiet means the node hibernates until charging is detected.
	Quiet
)

// String returns the mode name used in logs.
func (m Mode) String() string {
	if m == Quiet {
		return "quiet"
	}
	return "normal"
}

// Record stems. The extension comes from Config.
const (
	directiveStem = "quiet"
	markStem      = "battery"
)

// epsilon absorbs float noise so that mark+margin itself counts as inside
// the band.
const epsilon = 1e-9

// Config holds throttle tuning.
type Config struct {
	// Margin is the rise above the mark, in volts, taken as charging.
	Margin float64

	// QuietSleep is the forced sleep while quiet.
	QuietSleep time.Duration

	// Extension is the record extension ("txt").
	Extension string
}

// Decision is the throttle's verdict for one cycle.
type Decision struct {
	Mode       Mode
	ForceSleep bool
	Sleep      time.Duration

	// Mark is the low-water mark after this check; valid when HasMark.
	Mark    float64
	HasMark bool

	// Reason is a short description for logs.
	Reason string
}

// Logger defines the logging interface used by the Throttle.
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

// Throttle decides, from persisted state and the current battery voltage,
// whether the node may do network work this cycle.
//
// All state lives in the store; a Throttle can be rebuilt on every wake.
type Throttle struct {
	store  store.Store
	cfg    Config
	logger Logger
}

// New creates a throttle over s.
func New(s store.Store, cfg Config) *Throttle {
	cfg.Extension = strings.TrimPrefix(cfg.Extension, ".")
	if cfg.Extension == "" {
		cfg.Extension = "txt"
	}
	return &Throttle{store: s, cfg: cfg, logger: noopLogger{}}
}

// SetLogger sets the logger for the throttle.
func (t *Throttle) SetLogger(logger Logger) {
	t.logger = logger
}

// DirectiveName returns the name of the quiet-mode marker record.
func (t *Throttle) DirectiveName() string {
	return directiveStem + "." + t.cfg.Extension
}

// MarkName returns the name of the low-water-mark record.
func (t *Throttle) MarkName() string {
	return markStem + "." + t.cfg.Extension
}

// Check evaluates the throttle for this cycle.
//
// Without the quiet marker it returns Normal and touches nothing. With it,
// the low-water mark is seeded or lowered and a quiet sleep is forced,
// unless voltage has risen more than Margin above the mark, in which case
// both records are deleted and Normal is returned. A nil voltage while
// quiet keeps the state and forces a quiet sleep.
//
// A storage error while reading or persisting the mark is returned together
// with the quiet-sleep decision; the caller should still honour the decision.
// A mark that cannot be read is never overwritten.
func (t *Throttle) Check(ctx context.Context, voltage *float64) (Decision, error) {
	active, err := t.active(ctx)
	if err != nil {
		return Decision{Mode: Normal, Reason: "quiet marker unreadable"}, err
	}
	if !active {
		return Decision{Mode: Normal, Reason: "quiet mode off"}, nil
	}

	mark, hasMark, err := t.loadMark(ctx)
	if err != nil {
		return t.quiet(0, false, "low-water mark unreadable"), err
	}

	if voltage == nil {
		return t.quiet(mark, hasMark, "no battery voltage"), nil
	}
	v := *voltage

	switch {
	case !hasMark:
		d := t.quiet(v, true, "low-water mark seeded")
		return d, t.storeMark(ctx, v)

	case v < mark-epsilon:
		d := t.quiet(v, true, "low-water mark lowered")
		return d, t.storeMark(ctx, v)

	case v <= mark+t.cfg.Margin+epsilon:
		return t.quiet(mark, true, "no charge detected"), nil

	default:
		if err := t.clear(ctx); err != nil {
			return Decision{Mode: Normal, Reason: "charge detected"}, err
		}
		t.logger.Info("charge detected, leaving quiet mode",
			"voltage", v,
			"mark", mark,
			"margin", t.cfg.Margin,
		)
		return Decision{Mode: Normal, Reason: "charge detected"}, nil
	}
}

// quiet builds a forced-sleep decision.
func (t *Throttle) quiet(mark float64, hasMark bool, reason string) Decision {
	return Decision{
		Mode:       Quiet,
		ForceSleep: true,
		Sleep:      t.cfg.QuietSleep,
		Mark:       mark,
		HasMark:    hasMark,
		Reason:     reason,
	}
}

// active reports whether the quiet marker is present.
func (t *Throttle) active(ctx context.Context) (bool, error) {
	_, err := t.store.Read(ctx, t.DirectiveName())
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("reading quiet marker: %w", err)
	}
}

// loadMark returns the stored low-water mark. An absent or corrupt mark
// reads as no mark; any other read failure is returned so the caller does
// not reseed over a mark it could not see.
func (t *Throttle) loadMark(ctx context.Context) (float64, bool, error) {
	data, err := t.store.Read(ctx, t.MarkName())
	if errors.Is(err, store.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading low-water mark: %w", err)
	}

	line, _, _ := strings.Cut(string(data), "\n")
	mark, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil {
		t.logger.Warn("ignoring low-water mark", "error", fmt.Errorf("%w: %q", ErrCorruptMark, line))
		return 0, false, nil
	}
	return mark, true, nil
}

// storeMark persists v as the low-water mark.
func (t *Throttle) storeMark(ctx context.Context, v float64) error {
	data := strconv.FormatFloat(v, 'f', -1, 64) + "\n"
	if err := t.store.Write(ctx, t.MarkName(), []byte(data)); err != nil {
		return fmt.Errorf("storing low-water mark: %w", err)
	}
	return nil
}

// clear removes both quiet-mode records, mark first so that a reset in
// between leaves quiet mode active with a fresh mark to seed.
func (t *Throttle) clear(ctx context.Context) error {
	if err := t.store.Delete(ctx, t.MarkName()); err != nil {
		return fmt.Errorf("clearing low-water mark: %w", err)
	}
	if err := t.store.Delete(ctx, t.DirectiveName()); err != nil {
		return fmt.Errorf("clearing quiet marker: %w", err)
	}
	return nil
}
