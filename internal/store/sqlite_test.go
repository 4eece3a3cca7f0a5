package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/database"
	_ "github.com/nerrad567/gray-logic-node/migrations"
)

// openSQLiteStore returns a store over a freshly migrated database file.
func openSQLiteStore(t *testing.T) *SQLite {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "node.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() {
		db.Close() //nolint:errcheck // Test cleanup
	})

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLite(db.DB)
}

func TestSQLite(t *testing.T) {
	exerciseStore(t, openSQLiteStore(t))
}

func TestSQLite_ListPrefixIsLiteral(t *testing.T) {
	s := openSQLiteStore(t)
	ctx := context.Background()

	// "_" and "%" are LIKE wildcards; List must not treat them as such.
	for _, name := range []string{"queue_x.txt", "queueAx.txt", "q%.txt"} {
		if err := s.Write(ctx, name, []byte("x")); err != nil {
			t.Fatalf("Write(%s) error = %v", name, err)
		}
	}

	names, err := s.List(ctx, "queue_")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 1 || names[0] != "queue_x.txt" {
		t.Errorf("List(queue_) = %v, want [queue_x.txt]", names)
	}
}
