package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-node/internal/channel"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-node/internal/reading"
)

// pointWriter is the part of influxdb.Client the channel needs.
type pointWriter interface {
	WriteReadings(ctx context.Context, nodeID string, rs ...reading.Reading) error
	Close() error
}

// Influx writes readings as node_reading points.
type Influx struct {
	client pointWriter
	nodeID string
}

// NewInflux creates an InfluxDB channel over a connected client.
func NewInflux(client pointWriter, nodeID string) *Influx {
	return &Influx{client: client, nodeID: nodeID}
}

// SendOne writes a single point.
func (c *Influx) SendOne(ctx context.Context, r reading.Reading) error {
	return classifyInflux(c.client.WriteReadings(ctx, c.nodeID, r))
}

// SendBatch writes every reading in one request.
func (c *Influx) SendBatch(ctx context.Context, rs []reading.Reading) error {
	return classifyInflux(c.client.WriteReadings(ctx, c.nodeID, rs...))
}

// Close releases the client.
func (c *Influx) Close() error {
	return c.client.Close()
}

func classifyInflux(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", channel.ErrTimeout, err)
	case errors.Is(err, influxdb.ErrNotConnected):
		return fmt.Errorf("%w: %w", channel.ErrUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", channel.ErrRejected, err)
	}
}

// InfluxDialer returns a dialer that connects to the configured server.
func InfluxDialer(cfg *config.Config) channel.Dialer {
	return channel.Dialer{
		Name: config.TransportInfluxDB,
		Dial: func(ctx context.Context) (channel.Channel, error) {
			client, err := influxdb.Connect(ctx, cfg.InfluxDB)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", channel.ErrUnavailable, err)
			}
			return NewInflux(client, cfg.Node.ID), nil
		},
	}
}
