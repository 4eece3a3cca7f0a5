package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFS(t *testing.T) {
	exerciseStore(t, NewFS(t.TempDir()))
}

func TestFS_MissingRoot(t *testing.T) {
	s := NewFS(filepath.Join(t.TempDir(), "not-yet-created"))

	names, err := s.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List() = %v, want empty", names)
	}

	if err := s.Write(context.Background(), "queue/1.txt", []byte("x")); err != nil {
		t.Fatalf("Write() into missing root error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "queue", "1.txt")); err != nil {
		t.Errorf("record file not created: %v", err)
	}
}

func TestFS_SweepRemovesTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFS(dir)
	ctx := context.Background()

	if err := s.Write(ctx, "queue/1.txt", []byte("x")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	stale := filepath.Join(dir, "queue", tempPrefix+"12345")
	if err := os.WriteFile(stale, []byte("half"), 0o600); err != nil {
		t.Fatalf("seeding temp file: %v", err)
	}

	names, err := s.List(ctx, "queue/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 1 || names[0] != "queue/1.txt" {
		t.Errorf("List() = %v, temp file must be hidden", names)
	}

	removed, err := s.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Sweep() removed = %d, want 1", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("temp file still present after Sweep()")
	}
}

func TestFS_WriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	s := NewFS(dir)

	if err := s.Write(context.Background(), "quiet.txt", []byte("3.7")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "quiet.txt" {
		t.Errorf("directory entries = %v, want only quiet.txt", entries)
	}
}

func TestFS_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewFS(t.TempDir()).Write(ctx, "a.txt", nil); err == nil {
		t.Error("Write() with cancelled context should fail")
	}
}
