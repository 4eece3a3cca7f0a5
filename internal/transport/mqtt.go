package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-node/internal/channel"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-node/internal/reading"
)

// publisher is the part of mqtt.Client the channel needs.
type publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Close() error
}

// MQTT publishes readings to the broker as JSON.
type MQTT struct {
	client publisher
	id     Identity
	qos    byte
}

// NewMQTT creates an MQTT channel over a connected client.
func NewMQTT(client publisher, id Identity, qos byte) *MQTT {
	return &MQTT{client: client, id: id, qos: qos}
}

// SendOne publishes r to graylogic/node/{id}/reading.
func (c *MQTT) SendOne(_ context.Context, r reading.Reading) error {
	payload, err := c.id.encodeOne(r)
	if err != nil {
		return err
	}
	return classifyMQTT(c.client.Publish(mqtt.Topics{}.NodeReading(c.id.NodeID), payload, c.qos, false))
}

// SendBatch publishes rs as one JSON array to graylogic/node/{id}/readings.
func (c *MQTT) SendBatch(_ context.Context, rs []reading.Reading) error {
	payload, err := c.id.encodeBatch(rs)
	if err != nil {
		return err
	}
	return classifyMQTT(c.client.Publish(mqtt.Topics{}.NodeReadings(c.id.NodeID), payload, c.qos, false))
}

// Close disconnects from the broker.
func (c *MQTT) Close() error {
	return c.client.Close()
}

func classifyMQTT(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mqtt.ErrTimeout):
		return fmt.Errorf("%w: %w", channel.ErrTimeout, err)
	case errors.Is(err, mqtt.ErrNotConnected):
		return fmt.Errorf("%w: %w", channel.ErrUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", channel.ErrRejected, err)
	}
}

// MQTTDialer returns a dialer that connects to the configured broker.
func MQTTDialer(cfg *config.Config, logger mqtt.Logger) channel.Dialer {
	return channel.Dialer{
		Name: config.TransportMQTT,
		Dial: func(ctx context.Context) (channel.Channel, error) {
			client, err := mqtt.Connect(ctx, cfg.MQTT, cfg.Node.ID)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", channel.ErrUnavailable, err)
			}
			if logger != nil {
				client.SetLogger(logger)
			}
			return NewMQTT(client, identityOf(cfg), client.QoS()), nil
		},
	}
}
