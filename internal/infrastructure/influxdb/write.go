package influxdb

import (
	"context"
	"fmt"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-node/internal/reading"
)

// MeasurementReading is the measurement every node reading is written to.
const MeasurementReading = "node_reading"

// ReadingPoint converts a reading into an InfluxDB point.
//
// Tags: node_id. Fields: temperature_f, humidity_pct and, when measured,
// battery_voltage. The point time is the capture time, not the write time,
// so backlog entries land where they belong on the timeline.
func ReadingPoint(nodeID string, r reading.Reading) *write.Point {
	fields := map[string]interface{}{
		"temperature_f": r.TemperatureF,
		"humidity_pct":  r.HumidityPct,
	}
	if v, ok := r.Voltage(); ok {
		fields["battery_voltage"] = v
	}

	return write.NewPoint(
		MeasurementReading,
		map[string]string{
			"node_id": nodeID,
		},
		fields,
		r.CapturedAt,
	)
}

// WriteReadings writes readings in a single blocking request.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - nodeID: Value of the node_id tag
//   - rs: Readings to write, in any order
//
// Returns:
//   - error: ErrNotConnected, or ErrWriteFailed wrapping the server error
func (c *Client) WriteReadings(ctx context.Context, nodeID string, rs ...reading.Reading) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if len(rs) == 0 {
		return nil
	}

	points := make([]*write.Point, len(rs))
	for i, r := range rs {
		points[i] = ReadingPoint(nodeID, r)
	}

	if err := c.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
