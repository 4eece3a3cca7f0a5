package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// dirPermissions is the permission mode for record directories.
	dirPermissions = 0750

	// filePermissions is the permission mode for record files.
	filePermissions = 0640

	// tempPrefix marks in-flight writes; such files are never records.
	tempPrefix = ".tmp-"
)

// FS stores each record as a file below a root directory.
type FS struct {
	root string
}

// NewFS returns a store rooted at dir. The directory is created lazily on
// the first write so that a cold, empty medium is valid.
func NewFS(dir string) *FS {
	return &FS{root: dir}
}

// Root returns the directory backing the store.
func (s *FS) Root() string {
	return s.root
}

// path resolves a record name to a file path.
func (s *FS) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(name)), nil
}

// Read returns the content of the named record.
func (s *FS) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// Write replaces the named record via temp file, fsync and rename.
func (s *FS) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.path(name)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, Classify(err))
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, Classify(err))
	}
	tmpName := tmp.Name()

	if err := writeAndSync(tmp, data); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // Best effort cleanup on error path
		return fmt.Errorf("writing %s: %w", name, Classify(err))
	}

	if err := os.Chmod(tmpName, filePermissions); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // Best effort cleanup on error path
		return fmt.Errorf("writing %s: %w", name, Classify(err))
	}

	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // Best effort cleanup on error path
		return fmt.Errorf("committing %s: %w", name, Classify(err))
	}

	syncDir(dir)
	return nil
}

// writeAndSync writes data, fsyncs and closes f.
func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close() //nolint:errcheck,gosec // Write error takes precedence
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close() //nolint:errcheck,gosec // Sync error takes precedence
		return err
	}
	return f.Close()
}

// syncDir flushes directory metadata so a rename survives power loss.
// Some filesystems (FAT) do not support it; failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()  //nolint:errcheck // Not supported everywhere
	_ = d.Close() //nolint:errcheck // Read-only handle
}

// Append adds data to the end of the named record and fsyncs it.
func (s *FS) Append(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), dirPermissions); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, Classify(err))
	}

	f, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePermissions)
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, Classify(err))
	}

	if err := writeAndSync(f, data); err != nil {
		return fmt.Errorf("appending to %s: %w", name, Classify(err))
	}
	return nil
}

// Delete removes the named record; an absent record is not an error.
func (s *FS) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", name, Classify(err))
	}
	return nil
}

// List returns every record name beginning with prefix, in lexical order.
// In-flight temporary files and directories are never returned.
func (s *FS) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var names []string
	err := s.walk(func(name string, isTemp bool) {
		if !isTemp && strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}

// Sweep removes temporary files left behind by writes interrupted by a
// reset. It returns the number of files removed.
func (s *FS) Sweep(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var stale []string
	err := s.walk(func(name string, isTemp bool) {
		if isTemp {
			stale = append(stale, name)
		}
	})
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, name := range stale {
		if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(name))); err == nil {
			removed++
		}
	}
	return removed, nil
}

// walk visits every regular file under the root with its slash-separated
// name relative to the root. A missing root is an empty store.
func (s *FS) walk(visit func(name string, isTemp bool)) error {
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == s.root {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		visit(filepath.ToSlash(rel), strings.HasPrefix(d.Name(), tempPrefix))
		return nil
	})
	if err != nil {
		return fmt.Errorf("listing %s: %w", s.root, err)
	}
	return nil
}
