package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nerrad567/gray-logic-node/internal/channel"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/reading"
)

// defaultKafkaTimeout bounds a write when the config leaves it unset.
const defaultKafkaTimeout = 10 * time.Second

// messageWriter is the part of kafka.Writer the channel needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka produces one message per reading, keyed by node ID so every
// reading from a node lands on the same partition in order.
type Kafka struct {
	writer  messageWriter
	id      Identity
	timeout time.Duration
}

// NewKafka creates a Kafka channel over w.
func NewKafka(w messageWriter, id Identity, timeout time.Duration) *Kafka {
	if timeout <= 0 {
		timeout = defaultKafkaTimeout
	}
	return &Kafka{writer: w, id: id, timeout: timeout}
}

// SendOne produces a single message.
func (c *Kafka) SendOne(ctx context.Context, r reading.Reading) error {
	return c.SendBatch(ctx, []reading.Reading{r})
}

// SendBatch produces every reading in a single WriteMessages call.
func (c *Kafka) SendBatch(ctx context.Context, rs []reading.Reading) error {
	msgs := make([]kafka.Message, len(rs))
	for i, r := range rs {
		value, err := c.id.encodeOne(r)
		if err != nil {
			return err
		}
		msgs[i] = kafka.Message{
			Key:   []byte(c.id.NodeID),
			Value: value,
			Time:  r.CapturedAt,
		}
	}

	wctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.writer.WriteMessages(wctx, msgs...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: kafka: %w", channel.ErrTimeout, err)
		}
		return fmt.Errorf("%w: kafka: %w", channel.ErrRejected, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (c *Kafka) Close() error {
	return c.writer.Close()
}

// KafkaDialer returns a dialer that checks the first broker answers before
// building a synchronous producer for the configured topic.
func KafkaDialer(cfg *config.Config) channel.Dialer {
	return channel.Dialer{
		Name: config.TransportKafka,
		Dial: func(ctx context.Context) (channel.Channel, error) {
			if len(cfg.Kafka.Brokers) == 0 {
				return nil, fmt.Errorf("%w: kafka: no brokers configured", channel.ErrUnavailable)
			}

			timeout := cfg.GetKafkaTimeout()
			if timeout <= 0 {
				timeout = defaultKafkaTimeout
			}
			dctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			conn, err := kafka.DialContext(dctx, "tcp", cfg.Kafka.Brokers[0])
			if err != nil {
				return nil, classifyNetErr("kafka", err)
			}
			_ = conn.Close() //nolint:errcheck // Probe only

			w := &kafka.Writer{
				Addr:         kafka.TCP(cfg.Kafka.Brokers...),
				Topic:        cfg.Kafka.Topic,
				Balancer:     &kafka.Hash{},
				RequiredAcks: kafka.RequireAll,
				Async:        false,
				BatchTimeout: 10 * time.Millisecond,
				WriteTimeout: timeout,
			}
			return NewKafka(w, identityOf(cfg), timeout), nil
		},
	}
}
