package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-node/internal/reading"
)

// fakeServer is a minimal InfluxDB v2 HTTP endpoint recording write bodies.
type fakeServer struct {
	mu          sync.Mutex
	bodies      []string
	writeStatus int
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ping":
		w.WriteHeader(http.StatusNoContent)
	case "/api/v2/write":
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.bodies = append(f.bodies, string(body))
		status := f.writeStatus
		f.mu.Unlock()
		if status == 0 {
			status = http.StatusNoContent
		}
		if status >= http.StatusBadRequest {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"code":"invalid","message":"bucket not found"}`))
			return
		}
		w.WriteHeader(status)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeServer) writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.bodies...)
}

func startServer(t *testing.T) (*fakeServer, config.InfluxDBConfig) {
	t.Helper()
	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	return fake, config.InfluxDBConfig{
		URL:    srv.URL,
		Token:  "graylogic-dev-token",
		Org:    "graylogic",
		Bucket: "nodes",
	}
}

func sample() reading.Reading {
	return reading.Reading{
		CapturedAt:   time.Unix(1700000000, 0).UTC(),
		TemperatureF: 68.5,
		HumidityPct:  41.25,
	}
}

func TestConnect(t *testing.T) {
	_, cfg := startServer(t)

	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestConnectUnreachable(t *testing.T) {
	cfg := config.InfluxDBConfig{URL: "http://127.0.0.1:1", Org: "o", Bucket: "b"}

	_, err := influxdb.Connect(context.Background(), cfg)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnectMissingURL(t *testing.T) {
	_, err := influxdb.Connect(context.Background(), config.InfluxDBConfig{})
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestWriteReadings(t *testing.T) {
	fake, cfg := startServer(t)

	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	second := sample()
	second.CapturedAt = second.CapturedAt.Add(time.Minute)
	second = second.WithVoltage(3.71, reading.BatteryModeDischarging)

	if err := client.WriteReadings(context.Background(), "node-001", sample(), second); err != nil {
		t.Fatalf("WriteReadings() error = %v", err)
	}

	writes := fake.writes()
	if len(writes) != 1 {
		t.Fatalf("write requests = %d, want 1", len(writes))
	}
	lines := strings.Split(strings.TrimSpace(writes[0]), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q, want 2", lines)
	}
	if !strings.HasPrefix(lines[0], "node_reading,node_id=node-001 ") {
		t.Errorf("line[0] = %q", lines[0])
	}
	if !strings.Contains(lines[0], "temperature_f=68.5") || !strings.HasSuffix(lines[0], " 1700000000") {
		t.Errorf("line[0] = %q, want temperature and second-precision timestamp", lines[0])
	}
	if !strings.Contains(lines[1], "battery_voltage=3.71") {
		t.Errorf("line[1] = %q, want battery_voltage", lines[1])
	}
}

func TestWriteReadingsRejected(t *testing.T) {
	fake, cfg := startServer(t)
	fake.writeStatus = http.StatusNotFound

	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	err = client.WriteReadings(context.Background(), "node-001", sample())
	if !errors.Is(err, influxdb.ErrWriteFailed) {
		t.Errorf("WriteReadings() error = %v, want ErrWriteFailed", err)
	}
}

func TestWriteReadingsAfterClose(t *testing.T) {
	_, cfg := startServer(t)

	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close() //nolint:errcheck // Closing deliberately

	err = client.WriteReadings(context.Background(), "node-001", sample())
	if !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("WriteReadings() error = %v, want ErrNotConnected", err)
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestReadingPoint(t *testing.T) {
	p := influxdb.ReadingPoint("node-001", sample())

	if p.Name() != influxdb.MeasurementReading {
		t.Errorf("Name() = %q", p.Name())
	}
	if !p.Time().Equal(sample().CapturedAt) {
		t.Errorf("Time() = %v, want capture time", p.Time())
	}
	for _, f := range p.FieldList() {
		if f.Key == "battery_voltage" {
			t.Error("battery_voltage present without a measured voltage")
		}
	}
	if len(p.TagList()) != 1 || p.TagList()[0].Value != "node-001" {
		t.Errorf("TagList() = %+v", p.TagList())
	}
}
