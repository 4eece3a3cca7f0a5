package channel

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-node/internal/reading"
)

type sizedChannel struct {
	Channel
	size int
}

func (s sizedChannel) BatchSize() int { return s.size }

func TestSequential_StopsAtFirstFailure(t *testing.T) {
	var sent []float64
	ch := Sequential(func(_ context.Context, r reading.Reading) error {
		if r.TemperatureF == 2 {
			return ErrRejected
		}
		sent = append(sent, r.TemperatureF)
		return nil
	})

	err := ch.SendBatch(context.Background(), []reading.Reading{
		{TemperatureF: 1}, {TemperatureF: 2}, {TemperatureF: 3},
	})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("SendBatch() error = %v, want ErrRejected", err)
	}
	if len(sent) != 1 || sent[0] != 1 {
		t.Errorf("sent = %v, want [1]", sent)
	}
}

func TestSequential_SendOne(t *testing.T) {
	calls := 0
	ch := Sequential(func(context.Context, reading.Reading) error {
		calls++
		return nil
	})

	if err := ch.SendOne(context.Background(), reading.Reading{}); err != nil {
		t.Fatalf("SendOne() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBatchSizeFor(t *testing.T) {
	plain := Sequential(func(context.Context, reading.Reading) error { return nil })

	tests := []struct {
		name string
		ch   Channel
		want int
	}{
		{"no preference", plain, 10},
		{"prefers three", sizedChannel{Channel: plain, size: 3}, 3},
		{"non-positive ignored", sizedChannel{Channel: plain, size: 0}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BatchSizeFor(tt.ch, 10); got != tt.want {
				t.Errorf("BatchSizeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFirstAvailable(t *testing.T) {
	ok := Sequential(func(context.Context, reading.Reading) error { return nil })
	down := errors.New("no route to host")

	t.Run("prefers earlier dialer", func(t *testing.T) {
		var tried []string
		conn := FirstAvailable(
			Dialer{Name: "relay", Dial: func(context.Context) (Channel, error) {
				tried = append(tried, "relay")
				return nil, down
			}},
			Dialer{Name: "sms", Dial: func(context.Context) (Channel, error) {
				tried = append(tried, "sms")
				return ok, nil
			}},
			Dialer{Name: "never", Dial: func(context.Context) (Channel, error) {
				tried = append(tried, "never")
				return ok, nil
			}},
		)

		ch, err := conn.AttemptTransport(context.Background())
		if err != nil {
			t.Fatalf("AttemptTransport() error = %v", err)
		}
		if ch == nil {
			t.Fatal("AttemptTransport() returned nil channel")
		}
		if len(tried) != 2 || tried[1] != "sms" {
			t.Errorf("tried = %v, want [relay sms]", tried)
		}
	})

	t.Run("none available", func(t *testing.T) {
		conn := FirstAvailable(
			Dialer{Name: "relay", Dial: func(context.Context) (Channel, error) { return nil, down }},
		)
		_, err := conn.AttemptTransport(context.Background())
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("error = %v, want ErrUnavailable", err)
		}
		if !errors.Is(err, down) {
			t.Errorf("error = %v, want it to wrap the dial error", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, err := FirstAvailable().AttemptTransport(context.Background())
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("error = %v, want ErrUnavailable", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		conn := FirstAvailable(
			Dialer{Name: "relay", Dial: func(context.Context) (Channel, error) { return ok, nil }},
		)
		if _, err := conn.AttemptTransport(ctx); !errors.Is(err, ErrUnavailable) {
			t.Errorf("error = %v, want ErrUnavailable", err)
		}
	})
}
