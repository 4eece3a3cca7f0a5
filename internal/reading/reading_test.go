package reading

import (
	"errors"
	"testing"
	"time"
)

func TestLogLine(t *testing.T) {
	at := time.Unix(1700000000, 0)

	tests := []struct {
		name string
		in   Reading
		want string
	}{
		{
			name: "without battery",
			in:   Reading{CapturedAt: at, TemperatureF: 68.5, HumidityPct: 41.25},
			want: "1700000000,68.5,41.25\n",
		},
		{
			name: "with battery",
			in:   Reading{CapturedAt: at, TemperatureF: 70, HumidityPct: 40}.WithVoltage(3.71, BatteryModeDischarging),
			want: "1700000000,70,40,discharging,3.71\n",
		},
		{
			name: "battery without mode",
			in:   Reading{CapturedAt: at, TemperatureF: -4.2, HumidityPct: 99.9}.WithVoltage(4.2, ""),
			want: "1700000000,-4.2,99.9,unknown,4.2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.LogLine(); got != tt.want {
				t.Errorf("LogLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeEntry_DropsBattery(t *testing.T) {
	r := Reading{CapturedAt: time.Unix(1700000123, 0), TemperatureF: 71.06, HumidityPct: 38.2}.
		WithVoltage(3.9, BatteryModeCharging)

	if got := string(r.EncodeEntry()); got != "1700000123,71.06,38.2\n" {
		t.Errorf("EncodeEntry() = %q", got)
	}
}

func TestDecodeEntry(t *testing.T) {
	r, err := DecodeEntry([]byte("1700000123,71.06,38.2\n"))
	if err != nil {
		t.Fatalf("DecodeEntry() error = %v", err)
	}

	if r.Unix() != 1700000123 {
		t.Errorf("Unix() = %d, want 1700000123", r.Unix())
	}
	if r.TemperatureF != 71.06 {
		t.Errorf("TemperatureF = %v, want 71.06", r.TemperatureF)
	}
	if r.HumidityPct != 38.2 {
		t.Errorf("HumidityPct = %v, want 38.2", r.HumidityPct)
	}
	if _, ok := r.Voltage(); ok {
		t.Error("decoded entry should carry no voltage")
	}
}

func TestDecodeEntry_NoTrailingNewline(t *testing.T) {
	if _, err := DecodeEntry([]byte("1700000123,71,38")); err != nil {
		t.Errorf("DecodeEntry() error = %v, want nil", err)
	}
}

func TestDecodeEntry_Malformed(t *testing.T) {
	inputs := map[string]string{
		"empty":          "",
		"truncated":      "1700000123,71.0",
		"extra field":    "1700000123,71,38,usb",
		"two lines":      "1700000123,71,38\n1700000124,71,38\n",
		"bad timestamp":  "17000x0123,71,38\n",
		"bad float":      "1700000123,warm,38\n",
		"binary garbage": "\x00\x00\x00",
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeEntry([]byte(in))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("DecodeEntry(%q) error = %v, want ErrMalformed", in, err)
			}
		})
	}
}

func TestCelsiusToFahrenheit(t *testing.T) {
	if got := CelsiusToFahrenheit(100); got != 212 {
		t.Errorf("CelsiusToFahrenheit(100) = %v, want 212", got)
	}
	if got := CelsiusToFahrenheit(-40); got != -40 {
		t.Errorf("CelsiusToFahrenheit(-40) = %v, want -40", got)
	}
}
