package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Memory is a process-local Store. Records vanish with the process, so it
// only suits tests and bench runs; it can inject write and delete faults
// to emulate a full or read-only medium.
type Memory struct {
	mu        sync.Mutex
	records   map[string][]byte
	writeErr  error
	deleteErr error
	writes    int
	deletes   int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

// FailWrites makes every subsequent Write and Append return err.
// Pass nil to restore normal behaviour.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// FailDeletes makes every subsequent Delete return err.
func (m *Memory) FailDeletes(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr = err
}

// Writes returns the number of successful Write and Append calls.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Deletes returns the number of Delete calls that removed a record.
func (m *Memory) Deletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}

// Put seeds a record without counting it as a write.
func (m *Memory) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[name] = append([]byte(nil), data...)
}

// Has reports whether the named record exists.
func (m *Memory) Has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[name]
	return ok
}

// Read returns a copy of the named record.
func (m *Memory) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.records[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return append([]byte(nil), data...), nil
}

// Write replaces the named record.
func (m *Memory) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return fmt.Errorf("writing %s: %w", name, m.writeErr)
	}
	m.records[name] = append([]byte(nil), data...)
	m.writes++
	return nil
}

// Append adds data to the end of the named record.
func (m *Memory) Append(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return fmt.Errorf("appending to %s: %w", name, m.writeErr)
	}
	m.records[name] = append(m.records[name], data...)
	m.writes++
	return nil
}

// Delete removes the named record.
func (m *Memory) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return fmt.Errorf("deleting %s: %w", name, m.deleteErr)
	}
	if _, ok := m.records[name]; ok {
		delete(m.records, name)
		m.deletes++
	}
	return nil
}

// List returns the names beginning with prefix in lexical order.
func (m *Memory) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.records))
	for name := range m.records {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
