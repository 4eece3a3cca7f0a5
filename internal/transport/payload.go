package transport

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/gray-logic-node/internal/reading"
)

// readingPayload is the JSON form of a reading on the MQTT and Kafka
// transports.
type readingPayload struct {
	NodeID         string   `json:"node_id"`
	CellID         string   `json:"cell_id,omitempty"`
	Timestamp      int64    `json:"timestamp"`
	TemperatureF   float64  `json:"temperature_f"`
	HumidityPct    float64  `json:"humidity_pct"`
	BatteryVoltage *float64 `json:"battery_voltage,omitempty"`
	BatteryMode    string   `json:"battery_mode,omitempty"`
}

// Identity names the node in every payload.
type Identity struct {
	NodeID string
	CellID string
}

func (id Identity) payload(r reading.Reading) readingPayload {
	p := readingPayload{
		NodeID:       id.NodeID,
		CellID:       id.CellID,
		Timestamp:    r.Unix(),
		TemperatureF: r.TemperatureF,
		HumidityPct:  r.HumidityPct,
	}
	if v, ok := r.Voltage(); ok {
		p.BatteryVoltage = &v
		p.BatteryMode = r.BatteryMode
	}
	return p
}

// encodeOne marshals a single reading.
func (id Identity) encodeOne(r reading.Reading) ([]byte, error) {
	data, err := json.Marshal(id.payload(r))
	if err != nil {
		return nil, fmt.Errorf("encoding reading: %w", err)
	}
	return data, nil
}

// encodeBatch marshals readings as a JSON array, oldest first.
func (id Identity) encodeBatch(rs []reading.Reading) ([]byte, error) {
	ps := make([]readingPayload, len(rs))
	for i, r := range rs {
		ps[i] = id.payload(r)
	}
	data, err := json.Marshal(ps)
	if err != nil {
		return nil, fmt.Errorf("encoding batch: %w", err)
	}
	return data, nil
}
