package reading

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Battery modes reported by the power collaborator. The mode is
// informational only; nothing in the node branches on it.
const (
	BatteryModeUnknown     = "unknown"
	BatteryModeCharging    = "charging"
	BatteryModeDischarging = "discharging"
	BatteryModeUSB         = "usb"
)

// Reading is a single sensor sample taken during one wake cycle.
//
// A Reading is created once by the sensor collaborator and never mutated.
// CapturedAt has one-second resolution on the wire.
type Reading struct {
	CapturedAt     time.Time
	TemperatureF   float64
	HumidityPct    float64
	BatteryVoltage *float64
	BatteryMode    string
}

// Voltage returns the battery voltage and whether one was measured.
func (r Reading) Voltage() (float64, bool) {
	if r.BatteryVoltage == nil {
		return 0, false
	}
	return *r.BatteryVoltage, true
}

// WithVoltage returns a copy of r carrying the given battery voltage and mode.
func (r Reading) WithVoltage(v float64, mode string) Reading {
	r.BatteryVoltage = &v
	r.BatteryMode = mode
	return r
}

// Unix returns the capture time in whole seconds since the epoch.
func (r Reading) Unix() int64 {
	return r.CapturedAt.Unix()
}

// CelsiusToFahrenheit converts a sensor temperature to the unit the
// collector expects.
func CelsiusToFahrenheit(c float64) float64 {
	return c*1.8 + 32
}

// formatFloat renders f in the shortest form that parses back to f.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// LogLine renders r as one durable log line:
//
//	timestamp,temperature_f,humidity_pct[,battery_mode,battery_voltage]\n
//
// The battery pair is present only when a voltage was measured.
func (r Reading) LogLine() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(r.Unix(), 10))
	b.WriteByte(',')
	b.WriteString(formatFloat(r.TemperatureF))
	b.WriteByte(',')
	b.WriteString(formatFloat(r.HumidityPct))

	if v, ok := r.Voltage(); ok {
		mode := r.BatteryMode
		if mode == "" {
			mode = BatteryModeUnknown
		}
		b.WriteByte(',')
		b.WriteString(mode)
		b.WriteByte(',')
		b.WriteString(formatFloat(v))
	}

	b.WriteByte('\n')
	return b.String()
}

// EncodeEntry renders r as the content of a queue record:
//
//	timestamp,temperature_f,humidity_pct\n
func (r Reading) EncodeEntry() []byte {
	line := strconv.FormatInt(r.Unix(), 10) + "," +
		formatFloat(r.TemperatureF) + "," +
		formatFloat(r.HumidityPct) + "\n"
	return []byte(line)
}

// DecodeEntry parses the content of a queue record written by EncodeEntry.
//
// Exactly one line with three numeric fields is accepted; a trailing newline
// is optional so that records truncated just before it still decode.
func DecodeEntry(data []byte) (Reading, error) {
	text := strings.TrimSuffix(string(data), "\n")
	text = strings.TrimSuffix(text, "\r")
	if text == "" || strings.ContainsAny(text, "\r\n") {
		return Reading{}, fmt.Errorf("%w: want a single line", ErrMalformed)
	}

	fields := strings.Split(text, ",")
	if len(fields) != entryFields {
		return Reading{}, fmt.Errorf("%w: want %d fields, got %d", ErrMalformed, entryFields, len(fields))
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: timestamp: %w", ErrMalformed, err)
	}
	temp, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: temperature: %w", ErrMalformed, err)
	}
	hum, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: humidity: %w", ErrMalformed, err)
	}

	return Reading{
		CapturedAt:   time.Unix(ts, 0).UTC(),
		TemperatureF: temp,
		HumidityPct:  hum,
	}, nil
}

// entryFields is the number of comma-separated fields in a queue record.
const entryFields = 3
