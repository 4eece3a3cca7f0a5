package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-node/internal/reading"
)

// Channel delivers readings to the collector.
//
// A send either succeeds for the whole unit or fails; partial delivery of a
// batch is reported as failure and the caller keeps every entry queued.
type Channel interface {
	SendOne(ctx context.Context, r reading.Reading) error
	SendBatch(ctx context.Context, rs []reading.Reading) error
}

// BatchSizer is implemented by channels that prefer a particular number
// of readings per send (e.g. SMS coalescing several readings into one text).
type BatchSizer interface {
	BatchSize() int
}

// Connectivity brings up a transport for the current cycle.
type Connectivity interface {
	AttemptTransport(ctx context.Context) (Channel, error)
}

// SendFunc sends a single reading.
type SendFunc func(ctx context.Context, r reading.Reading) error

// sequential adapts a SendFunc into a Channel.
type sequential struct {
	send SendFunc
}

// Sequential returns a Channel whose SendBatch sends each reading in order
// through one, stopping at the first failure.
func Sequential(one SendFunc) Channel {
	return sequential{send: one}
}

func (s sequential) SendOne(ctx context.Context, r reading.Reading) error {
	return s.send(ctx, r)
}

func (s sequential) SendBatch(ctx context.Context, rs []reading.Reading) error {
	for i, r := range rs {
		if err := s.send(ctx, r); err != nil {
			return fmt.Errorf("sending reading %d of %d: %w", i+1, len(rs), err)
		}
	}
	return nil
}

// BatchSizeFor returns the channel's preferred batch size, or fallback when
// the channel has no preference.
func BatchSizeFor(ch Channel, fallback int) int {
	if bs, ok := ch.(BatchSizer); ok {
		if n := bs.BatchSize(); n > 0 {
			return n
		}
	}
	return fallback
}

// Dialer brings up one named transport.
type Dialer struct {
	Name string
	Dial func(ctx context.Context) (Channel, error)
}

// Chain is a Connectivity that tries dialers in order.
type Chain struct {
	dialers []Dialer
	logger  Logger
}

// FirstAvailable returns a Connectivity that tries each dialer in order and
// hands back the first channel that comes up. Order expresses preference,
// so list network transports before SMS.
func FirstAvailable(dialers ...Dialer) *Chain {
	return &Chain{dialers: dialers, logger: noopLogger{}}
}

// SetLogger sets the logger used to report dial failures.
func (c *Chain) SetLogger(logger Logger) {
	c.logger = logger
}

// AttemptTransport dials each transport in turn.
//
// Returns ErrUnavailable wrapping the last dial error when none succeed.
func (c *Chain) AttemptTransport(ctx context.Context) (Channel, error) {
	if len(c.dialers) == 0 {
		return nil, fmt.Errorf("%w: no transports configured", ErrUnavailable)
	}

	var lastErr error
	for _, d := range c.dialers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		ch, err := d.Dial(ctx)
		if err == nil {
			c.logger.Debug("transport available", "transport", d.Name)
			return ch, nil
		}

		c.logger.Warn("transport unavailable", "transport", d.Name, "error", err)
		lastErr = fmt.Errorf("%s: %w", d.Name, err)
	}

	if errors.Is(lastErr, ErrUnavailable) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, lastErr)
}
