package hostio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/cycle"
	"github.com/nerrad567/gray-logic-node/internal/reading"
)

// sample is the JSON document a sensor daemon leaves for the node:
//
//	{"temperature_c": 20.5, "humidity_pct": 41.2,
//	 "battery_voltage": 3.71, "battery_mode": "discharging",
//	 "captured_at": 1700000000}
type sample struct {
	TemperatureC   *float64 `json:"temperature_c"`
	HumidityPct    *float64 `json:"humidity_pct"`
	BatteryVoltage *float64 `json:"battery_voltage"`
	BatteryMode    string   `json:"battery_mode"`
	CapturedAt     int64    `json:"captured_at"`
}

// FileSensor reads the latest sample written by an external sensor daemon.
// Each sample is handed out once; until the daemon writes a newer one the
// sensor reports itself absent.
type FileSensor struct {
	path string

	// last is the stamp of the last sample returned: captured_at when set,
	// otherwise the file modification time.
	last time.Time
}

// NewFileSensor returns a sensor reading samples from path.
func NewFileSensor(path string) *FileSensor {
	return &FileSensor{path: path}
}

// Read returns the current sample converted to Fahrenheit.
//
// A missing file, a sample without temperature or humidity, or a sample no
// newer than the last one returned is reported as cycle.ErrSensorAbsent. A zero captured_at leaves the capture time for the
// scheduler to fill in.
func (s *FileSensor) Read(ctx context.Context) (reading.Reading, error) {
	if err := ctx.Err(); err != nil {
		return reading.Reading{}, err
	}

	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return reading.Reading{}, fmt.Errorf("%w: %s not found", cycle.ErrSensorAbsent, s.path)
	}
	if err != nil {
		return reading.Reading{}, fmt.Errorf("%w: %w", cycle.ErrSensorAbsent, err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return reading.Reading{}, fmt.Errorf("%w: %w", cycle.ErrSensorAbsent, err)
	}

	var smp sample
	if err := json.Unmarshal(data, &smp); err != nil {
		return reading.Reading{}, fmt.Errorf("%w: decoding %s: %w", cycle.ErrSensorAbsent, s.path, err)
	}
	if smp.TemperatureC == nil || smp.HumidityPct == nil {
		return reading.Reading{}, fmt.Errorf("%w: incomplete sample in %s", cycle.ErrSensorAbsent, s.path)
	}

	stamp := info.ModTime()
	if smp.CapturedAt > 0 {
		stamp = time.Unix(smp.CapturedAt, 0)
	}
	if !stamp.After(s.last) {
		return reading.Reading{}, fmt.Errorf("%w: stale sample in %s", cycle.ErrSensorAbsent, s.path)
	}
	s.last = stamp

	r := reading.Reading{
		TemperatureF: reading.CelsiusToFahrenheit(*smp.TemperatureC),
		HumidityPct:  *smp.HumidityPct,
	}
	if smp.CapturedAt > 0 {
		r.CapturedAt = time.Unix(smp.CapturedAt, 0).UTC()
	}
	if smp.BatteryVoltage != nil {
		mode := smp.BatteryMode
		if mode == "" {
			mode = reading.BatteryModeUnknown
		}
		r = r.WithVoltage(*smp.BatteryVoltage, mode)
	}
	return r, nil
}
