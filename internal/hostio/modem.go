package hostio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/store"
)

// ErrSpoolMissing is returned by SpoolModem.Available when the outbox
// directory does not exist.
var ErrSpoolMissing = errors.New("hostio: sms spool directory missing")

// SpoolModem hands texts to an SMS daemon by dropping one file per message
// in its outbox directory (the gammu-smsd "files" backend layout:
// OUTC<timestamp>_<seq>_00_<number>_sms0.txt).
type SpoolModem struct {
	dir   string
	spool *store.FS
	seq   atomic.Uint64
	now   func() time.Time
}

// NewSpoolModem returns a modem writing to the outbox directory dir.
func NewSpoolModem(dir string) *SpoolModem {
	return &SpoolModem{dir: dir, spool: store.NewFS(dir), now: time.Now}
}

// Available reports whether the outbox directory exists.
func (m *SpoolModem) Available(context.Context) error {
	info, err := os.Stat(m.dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSpoolMissing, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrSpoolMissing, m.dir)
	}
	return nil
}

// Send writes text to the outbox atomically, so the daemon never picks up
// a half-written message.
func (m *SpoolModem) Send(ctx context.Context, number, text string) error {
	if number == "" {
		return errors.New("hostio: sms number is empty")
	}
	number = strings.NewReplacer("/", "", " ", "").Replace(number)

	name := fmt.Sprintf("OUTC%s_%d_00_%s_sms0.txt",
		m.now().UTC().Format("20060102_150405"),
		m.seq.Add(1),
		number,
	)
	if err := m.spool.Write(ctx, name, []byte(text)); err != nil {
		return fmt.Errorf("spooling sms: %w", err)
	}
	return nil
}
