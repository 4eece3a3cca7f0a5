package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// SQLite stores records as rows of the records table.
//
// The table is created by the embedded migrations (see package migrations).
// Every statement autocommits, so a reset mid-write loses at most that
// single statement.
type SQLite struct {
	db *sql.DB
}

// NewSQLite creates a store over an open, migrated SQLite connection.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// classifySQLite maps SQLite result codes onto the store taxonomy.
func classifySQLite(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrFull:
			return fmt.Errorf("%w: %w", ErrFull, err)
		case sqlite3.ErrReadonly, sqlite3.ErrPerm, sqlite3.ErrCantOpen:
			return fmt.Errorf("%w: %w", ErrReadOnly, err)
		}
	}
	return Classify(err)
}

// Read returns the content of the named record.
func (s *SQLite) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM records WHERE name = ?", name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return []byte(data), nil
}

// Write replaces the named record.
func (s *SQLite) Write(ctx context.Context, name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (name, data, updated_at)
		 VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, classifySQLite(err))
	}
	return nil
}

// Append adds data to the end of the named record.
func (s *SQLite) Append(ctx context.Context, name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (name, data, updated_at)
		 VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		 ON CONFLICT(name) DO UPDATE SET data = records.data || excluded.data, updated_at = excluded.updated_at`,
		name,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("appending to %s: %w", name, classifySQLite(err))
	}
	return nil
}

// Delete removes the named record; an absent record is not an error.
func (s *SQLite) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE name = ?", name); err != nil {
		return fmt.Errorf("deleting %s: %w", name, classifySQLite(err))
	}
	return nil
}

// List returns the names beginning with prefix in lexical order.
func (s *SQLite) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM records
		 WHERE substr(name, 1, length(?)) = ?
		 ORDER BY name`,
		prefix,
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning record name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return names, nil
}
