package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nerrad567/gray-logic-node/internal/channel"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-node/internal/reading"
)

func testConfig(relayURL string) *config.Config {
	return &config.Config{
		Node: config.NodeConfig{
			ID:          "node-001",
			CellID:      "cell-42",
			Hub:         "featherhub",
			CodeVersion: "1.4.0",
		},
		Schedule:   config.ScheduleConfig{ReadingInterval: 900},
		Transports: []string{config.TransportRelay, config.TransportSMS},
		Relay:      config.RelayConfig{URL: relayURL, Timeout: 2},
		SMS:        config.SMSConfig{Number: "+15550100", BatchSize: 3},
		Kafka:      config.KafkaConfig{Topic: "graylogic.node.readings", Timeout: 1},
	}
}

func sample(ts int64) reading.Reading {
	return reading.Reading{
		CapturedAt:   time.Unix(ts, 0).UTC(),
		TemperatureF: 68.5,
		HumidityPct:  41.25,
	}
}

// =============================================================================
// Relay
// =============================================================================

func TestRelay_SendOne(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		got = r.PostForm
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	relay := NewRelay(testConfig(srv.URL))
	if err := relay.SendOne(context.Background(), sample(1700000000)); err != nil {
		t.Fatalf("SendOne() error = %v", err)
	}

	want := map[string]string{
		"hub":          "featherhub",
		"cell":         "cell-42",
		"time":         "1700000000",
		"temp":         "68.5",
		"humidity":     "41.25",
		"sp":           "900",
		"cell_version": "1.4.0",
	}
	for k, v := range want {
		if got.Get(k) != v {
			t.Errorf("form[%s] = %q, want %q", k, got.Get(k), v)
		}
	}
}

func TestRelay_NonOKIsRejected(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusBadRequest, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		err := NewRelay(testConfig(srv.URL)).SendOne(context.Background(), sample(1))
		if !errors.Is(err, channel.ErrRejected) {
			t.Errorf("status %d: error = %v, want ErrRejected", status, err)
		}
		srv.Close()
	}
}

func TestRelay_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	relay := NewRelay(testConfig(srv.URL))
	relay.httpClient.Timeout = 50 * time.Millisecond

	err := relay.SendOne(context.Background(), sample(1))
	if !errors.Is(err, channel.ErrTimeout) {
		t.Errorf("SendOne() error = %v, want ErrTimeout", err)
	}
}

func TestRelay_SendBatchStopsAtFailure(t *testing.T) {
	var mu sync.Mutex
	var times []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		mu.Lock()
		times = append(times, r.PostForm.Get("time"))
		n := len(times)
		mu.Unlock()
		if n == 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewRelay(testConfig(srv.URL)).SendBatch(context.Background(),
		[]reading.Reading{sample(1), sample(2), sample(3)})
	if !errors.Is(err, channel.ErrRejected) {
		t.Errorf("SendBatch() error = %v, want ErrRejected", err)
	}
	if strings.Join(times, ",") != "1,2" {
		t.Errorf("posted times = %v, want [1 2]", times)
	}
}

func TestRelayDialer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch, err := RelayDialer(testConfig(srv.URL)).Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if _, ok := ch.(*Relay); !ok {
		t.Errorf("Dial() = %T, want *Relay", ch)
	}

	_, err = RelayDialer(testConfig("http://127.0.0.1:1/temperatures")).Dial(context.Background())
	if !errors.Is(err, channel.ErrUnavailable) {
		t.Errorf("Dial() to closed port error = %v, want ErrUnavailable", err)
	}
}

// =============================================================================
// MQTT
// =============================================================================

type fakePublisher struct {
	topics   []string
	payloads [][]byte
	err      error
	closed   bool
}

func (p *fakePublisher) Publish(topic string, payload []byte, _ byte, _ bool) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func TestMQTT_Topics(t *testing.T) {
	pub := &fakePublisher{}
	ch := NewMQTT(pub, Identity{NodeID: "node-001", CellID: "cell-42"}, 1)

	if err := ch.SendOne(context.Background(), sample(10).WithVoltage(3.7, reading.BatteryModeUSB)); err != nil {
		t.Fatalf("SendOne() error = %v", err)
	}
	if err := ch.SendBatch(context.Background(), []reading.Reading{sample(11), sample(12)}); err != nil {
		t.Fatalf("SendBatch() error = %v", err)
	}

	if pub.topics[0] != "graylogic/node/node-001/reading" || pub.topics[1] != "graylogic/node/node-001/readings" {
		t.Errorf("topics = %v", pub.topics)
	}

	var one readingPayload
	if err := json.Unmarshal(pub.payloads[0], &one); err != nil {
		t.Fatalf("single payload: %v", err)
	}
	if one.Timestamp != 10 || one.BatteryVoltage == nil || *one.BatteryVoltage != 3.7 || one.BatteryMode != "usb" {
		t.Errorf("single payload = %+v", one)
	}

	var batch []readingPayload
	if err := json.Unmarshal(pub.payloads[1], &batch); err != nil {
		t.Fatalf("batch payload: %v", err)
	}
	if len(batch) != 2 || batch[0].Timestamp != 11 || batch[1].NodeID != "node-001" {
		t.Errorf("batch payload = %+v", batch)
	}

	if err := ch.Close(); err != nil || !pub.closed {
		t.Errorf("Close() error = %v, closed = %v", err, pub.closed)
	}
}

func TestMQTT_ErrorClassification(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{mqtt.ErrTimeout, channel.ErrTimeout},
		{mqtt.ErrNotConnected, channel.ErrUnavailable},
		{mqtt.ErrPublishFailed, channel.ErrRejected},
	}
	for _, tt := range tests {
		ch := NewMQTT(&fakePublisher{err: tt.err}, Identity{NodeID: "n"}, 1)
		if err := ch.SendOne(context.Background(), sample(1)); !errors.Is(err, tt.want) {
			t.Errorf("publish error %v -> %v, want %v", tt.err, err, tt.want)
		}
	}
}

// =============================================================================
// InfluxDB
// =============================================================================

type fakePointWriter struct {
	calls [][]reading.Reading
	err   error
}

func (w *fakePointWriter) WriteReadings(_ context.Context, _ string, rs ...reading.Reading) error {
	if w.err != nil {
		return w.err
	}
	w.calls = append(w.calls, rs)
	return nil
}

func (w *fakePointWriter) Close() error { return nil }

func TestInflux(t *testing.T) {
	w := &fakePointWriter{}
	ch := NewInflux(w, "node-001")

	if err := ch.SendBatch(context.Background(), []reading.Reading{sample(1), sample(2), sample(3)}); err != nil {
		t.Fatalf("SendBatch() error = %v", err)
	}
	if len(w.calls) != 1 || len(w.calls[0]) != 3 {
		t.Errorf("calls = %v, want one call with 3 readings", w.calls)
	}

	w.err = context.DeadlineExceeded
	if err := ch.SendOne(context.Background(), sample(4)); !errors.Is(err, channel.ErrTimeout) {
		t.Errorf("SendOne() error = %v, want ErrTimeout", err)
	}
	w.err = errors.New("bucket not found")
	if err := ch.SendOne(context.Background(), sample(4)); !errors.Is(err, channel.ErrRejected) {
		t.Errorf("SendOne() error = %v, want ErrRejected", err)
	}
}

// =============================================================================
// Kafka
// =============================================================================

type fakeWriter struct {
	msgs  []kafka.Message
	calls int
	err   error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafka(t *testing.T) {
	w := &fakeWriter{}
	ch := NewKafka(w, Identity{NodeID: "node-001"}, time.Second)

	if err := ch.SendBatch(context.Background(), []reading.Reading{sample(1), sample(2)}); err != nil {
		t.Fatalf("SendBatch() error = %v", err)
	}
	if w.calls != 1 || len(w.msgs) != 2 {
		t.Fatalf("calls = %d msgs = %d, want 1/2", w.calls, len(w.msgs))
	}
	for _, m := range w.msgs {
		if string(m.Key) != "node-001" {
			t.Errorf("Key = %q, want node-001", m.Key)
		}
	}
	if !w.msgs[1].Time.Equal(sample(2).CapturedAt) {
		t.Errorf("Time = %v, want capture time", w.msgs[1].Time)
	}

	w.err = errors.New("leader not available")
	if err := ch.SendOne(context.Background(), sample(3)); !errors.Is(err, channel.ErrRejected) {
		t.Errorf("SendOne() error = %v, want ErrRejected", err)
	}
}

func TestKafkaDialer_NoBrokers(t *testing.T) {
	_, err := KafkaDialer(testConfig("")).Dial(context.Background())
	if !errors.Is(err, channel.ErrUnavailable) {
		t.Errorf("Dial() error = %v, want ErrUnavailable", err)
	}
}

func TestKafkaDialer_Unreachable(t *testing.T) {
	cfg := testConfig("")
	cfg.Kafka.Brokers = []string{"127.0.0.1:1"}

	_, err := KafkaDialer(cfg).Dial(context.Background())
	if !errors.Is(err, channel.ErrUnavailable) && !errors.Is(err, channel.ErrTimeout) {
		t.Errorf("Dial() error = %v, want ErrUnavailable or ErrTimeout", err)
	}
}

// =============================================================================
// SMS
// =============================================================================

type fakeModem struct {
	texts     []string
	down      error
	sendErr   error
	available int
}

func (m *fakeModem) Available(context.Context) error {
	m.available++
	return m.down
}

func (m *fakeModem) Send(_ context.Context, _, text string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.texts = append(m.texts, text)
	return nil
}

func TestSMS_Coalesces(t *testing.T) {
	modem := &fakeModem{}
	ch := NewSMS(modem, "+15550100", "cell-42", 3)

	rs := []reading.Reading{sample(1), sample(2), sample(3), sample(4)}
	if err := ch.SendBatch(context.Background(), rs); err != nil {
		t.Fatalf("SendBatch() error = %v", err)
	}

	want := []string{
		"cell-42;1,68.5,41.25;2,68.5,41.25;3,68.5,41.25",
		"cell-42;4,68.5,41.25",
	}
	if strings.Join(modem.texts, "|") != strings.Join(want, "|") {
		t.Errorf("texts = %q, want %q", modem.texts, want)
	}
	if channel.BatchSizeFor(ch, 10) != 3 {
		t.Errorf("BatchSizeFor() = %d, want 3", channel.BatchSizeFor(ch, 10))
	}
}

func TestSMS_DefaultBatchSize(t *testing.T) {
	if got := NewSMS(&fakeModem{}, "", "", 0).BatchSize(); got != defaultSMSBatchSize {
		t.Errorf("BatchSize() = %d, want %d", got, defaultSMSBatchSize)
	}
}

func TestSMS_SendFailureIsRejected(t *testing.T) {
	modem := &fakeModem{sendErr: errors.New("no carrier")}
	err := NewSMS(modem, "+1", "c", 3).SendOne(context.Background(), sample(1))
	if !errors.Is(err, channel.ErrRejected) {
		t.Errorf("SendOne() error = %v, want ErrRejected", err)
	}
}

func TestSMSDialer(t *testing.T) {
	cfg := testConfig("")

	if _, err := SMSDialer(cfg, nil).Dial(context.Background()); !errors.Is(err, channel.ErrUnavailable) {
		t.Errorf("Dial() without modem error = %v, want ErrUnavailable", err)
	}

	modem := &fakeModem{down: errors.New("no signal")}
	if _, err := SMSDialer(cfg, modem).Dial(context.Background()); !errors.Is(err, channel.ErrUnavailable) {
		t.Errorf("Dial() with modem down error = %v, want ErrUnavailable", err)
	}

	modem.down = nil
	ch, err := SMSDialer(cfg, modem).Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if ch.(*SMS).number != "+15550100" {
		t.Errorf("number = %q", ch.(*SMS).number)
	}
}

// =============================================================================
// Dialers
// =============================================================================

func TestDialers_Order(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1/")
	cfg.Transports = []string{
		config.TransportSMS, config.TransportRelay, config.TransportMQTT,
		config.TransportInfluxDB, config.TransportKafka,
	}

	dialers, err := Dialers(cfg, Options{})
	if err != nil {
		t.Fatalf("Dialers() error = %v", err)
	}
	var names []string
	for _, d := range dialers {
		names = append(names, d.Name)
	}
	if strings.Join(names, ",") != "sms,relay,mqtt,influxdb,kafka" {
		t.Errorf("names = %v", names)
	}
}

func TestDialers_Unknown(t *testing.T) {
	cfg := testConfig("")
	cfg.Transports = []string{"carrier-pigeon"}

	if _, err := Dialers(cfg, Options{}); err == nil {
		t.Error("Dialers() expected error for unknown transport")
	}
}

func TestDialers_FallBackToSMS(t *testing.T) {
	modem := &fakeModem{}
	dialers, err := Dialers(testConfig("http://127.0.0.1:1/temperatures"), Options{Modem: modem})
	if err != nil {
		t.Fatalf("Dialers() error = %v", err)
	}

	ch, err := channel.FirstAvailable(dialers...).AttemptTransport(context.Background())
	if err != nil {
		t.Fatalf("AttemptTransport() error = %v", err)
	}
	if _, ok := ch.(*SMS); !ok {
		t.Errorf("AttemptTransport() = %T, want *SMS", ch)
	}
}
