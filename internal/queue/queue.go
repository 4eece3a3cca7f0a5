package queue

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-node/internal/channel"
	"github.com/nerrad567/gray-logic-node/internal/reading"
	"github.com/nerrad567/gray-logic-node/internal/store"
)

// Prefix is the record-name prefix under which entries are stored.
const Prefix = "queue/"

// DefaultExtension is the record extension used when none is configured.
const DefaultExtension = "txt"

// EntryID identifies a queued reading: its capture time in unix seconds.
// Numeric order of IDs is chronological order.
type EntryID int64

// Entry is a pending reading together with its ID.
type Entry struct {
	ID      EntryID
	Reading reading.Reading
}

// DrainResult summarises one DrainVia call.
type DrainResult struct {
	// Batches is the number of successful sends.
	Batches int

	// Delivered is the number of entries sent and acknowledged.
	Delivered int

	// SendErr is the transmission error that stopped the drain, if any.
	// It is informational; the undelivered entries remain queued.
	SendErr error
}

// Logger defines the logging interface used by the Queue.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Queue is the persistent backlog of readings that could not be sent.
//
// It holds no state of its own: every call re-reads the store, so a reset
// between any two operations loses nothing that was written.
type Queue struct {
	store  store.Store
	ext    string
	logger Logger
}

// New creates a queue over s. Entries are named queue/<id>.<extension>.
func New(s store.Store, extension string) *Queue {
	ext := strings.TrimPrefix(extension, ".")
	if ext == "" {
		ext = DefaultExtension
	}
	return &Queue{store: s, ext: ext, logger: noopLogger{}}
}

// SetLogger sets the logger for the queue.
func (q *Queue) SetLogger(logger Logger) {
	q.logger = logger
}

// name returns the record name for id.
func (q *Queue) name(id EntryID) string {
	return Prefix + strconv.FormatInt(int64(id), 10) + "." + q.ext
}

// parseName extracts the ID from a record name. ok is false for names that
// are not well-formed entries, including IDs written with leading zeros.
func (q *Queue) parseName(name string) (EntryID, bool) {
	base := strings.TrimPrefix(name, Prefix)
	if strings.Contains(base, "/") || path.Ext(base) != "."+q.ext {
		return 0, false
	}

	stem := strings.TrimSuffix(base, "."+q.ext)
	if stem == "" {
		return 0, false
	}
	for _, c := range stem {
		if c < '0' || c > '9' {
			return 0, false
		}
	}

	id, err := strconv.ParseInt(stem, 10, 64)
	if err != nil {
		return 0, false
	}
	// Only the canonical spelling maps back to this record; "0170" would
	// be listed as 170 but read and acknowledged as queue/170.
	if strconv.FormatInt(id, 10) != stem {
		return 0, false
	}
	return EntryID(id), true
}

// Enqueue persists r for later delivery and returns its ID.
//
// A second reading captured in the same second replaces the first.
// store.ErrFull and store.ErrReadOnly are returned wrapped.
func (q *Queue) Enqueue(ctx context.Context, r reading.Reading) (EntryID, error) {
	id := EntryID(r.Unix())
	if err := q.store.Write(ctx, q.name(id), r.EncodeEntry()); err != nil {
		return 0, fmt.Errorf("enqueueing reading %d: %w", id, err)
	}
	return id, nil
}

// ListPending returns the IDs of all queued entries, oldest first.
//
// Records under the queue prefix that are not well-formed entry names are
// deleted and left out. A failed purge is logged, not returned.
func (q *Queue) ListPending(ctx context.Context) ([]EntryID, error) {
	names, err := q.store.List(ctx, Prefix)
	if err != nil {
		return nil, fmt.Errorf("listing queue: %w", err)
	}

	ids := make([]EntryID, 0, len(names))
	for _, name := range names {
		id, ok := q.parseName(name)
		if !ok {
			q.purge(ctx, name, "malformed name")
			continue
		}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Len returns the number of pending entries.
func (q *Queue) Len(ctx context.Context) (int, error) {
	ids, err := q.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// PeekBatch returns up to n of the oldest entries with their readings.
//
// An entry whose content does not decode is purged and skipped, and the
// next one is considered instead. Nothing is removed for entries returned.
func (q *Queue) PeekBatch(ctx context.Context, n int) ([]Entry, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, n)
	}

	ids, err := q.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, min(n, len(ids)))
	for _, id := range ids {
		if len(entries) == n {
			break
		}

		name := q.name(id)
		data, err := q.store.Read(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading entry %d: %w", id, err)
		}

		r, err := reading.DecodeEntry(data)
		if err != nil {
			q.purge(ctx, name, err.Error())
			continue
		}
		entries = append(entries, Entry{ID: id, Reading: r})
	}
	return entries, nil
}

// Acknowledge removes a delivered entry. Acknowledging an absent entry is
// not an error.
func (q *Queue) Acknowledge(ctx context.Context, id EntryID) error {
	if err := q.store.Delete(ctx, q.name(id)); err != nil {
		return fmt.Errorf("acknowledging entry %d: %w", id, err)
	}
	return nil
}

// DrainVia sends the backlog through ch, oldest first, batchSize entries
// per send. Entries are acknowledged only after their send succeeds.
//
// The drain stops at the first send failure, which is reported in
// DrainResult.SendErr; the returned error is reserved for storage failures.
// The number of rounds is bounded by the backlog size at entry, so a store
// that cannot delete never makes the loop spin.
func (q *Queue) DrainVia(ctx context.Context, ch channel.Channel, batchSize int) (DrainResult, error) {
	var res DrainResult
	if batchSize < 1 {
		batchSize = 1
	}

	pending, err := q.Len(ctx)
	if err != nil {
		return res, err
	}

	rounds := pending/batchSize + 1
	for r := 0; r < rounds; r++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		batch, err := q.PeekBatch(ctx, batchSize)
		if err != nil {
			return res, err
		}
		if len(batch) == 0 {
			return res, nil
		}

		if err := q.send(ctx, ch, batch, batchSize); err != nil {
			q.logger.Warn("backlog send failed",
				"entries", len(batch),
				"oldest", int64(batch[0].ID),
				"error", err,
			)
			res.SendErr = err
			return res, nil
		}
		res.Batches++

		for _, e := range batch {
			if err := q.Acknowledge(ctx, e.ID); err != nil {
				return res, err
			}
			res.Delivered++
		}
	}

	return res, nil
}

// send delivers one unit of the drain.
func (q *Queue) send(ctx context.Context, ch channel.Channel, batch []Entry, batchSize int) error {
	if len(batch) == 1 && batchSize == 1 {
		return ch.SendOne(ctx, batch[0].Reading)
	}

	rs := make([]reading.Reading, len(batch))
	for i, e := range batch {
		rs[i] = e.Reading
	}
	return ch.SendBatch(ctx, rs)
}

// purge deletes a record that can never be delivered.
func (q *Queue) purge(ctx context.Context, name, reason string) {
	if err := q.store.Delete(ctx, name); err != nil {
		q.logger.Warn("purging queue record failed", "record", name, "reason", reason, "error", err)
		return
	}
	q.logger.Info("purged queue record", "record", name, "reason", reason)
}
