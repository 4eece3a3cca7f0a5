package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"
)

// Store is a flat, named-record persistence medium.
//
// Names are slash-separated ("queue/1700000000.txt"). Every operation is
// synchronous; a record written successfully must survive power loss.
// Implementations report a full medium as ErrFull and a medium that
// refuses writes as ErrReadOnly, wrapped around the underlying cause.
type Store interface {
	// Read returns the record content, or ErrNotFound.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write replaces the record content atomically.
	Write(ctx context.Context, name string, data []byte) error

	// Append adds data to the end of the record, creating it if needed.
	Append(ctx context.Context, name string, data []byte) error

	// Delete removes the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names starting with prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// ValidateName rejects names that could escape the store root.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// Classify maps an operating system write error onto the store taxonomy.
//
// Errors that are neither "full" nor "read-only" are returned unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrFull), errors.Is(err, ErrReadOnly):
		return err
	case errors.Is(err, syscall.ENOSPC):
		return fmt.Errorf("%w: %w", ErrFull, err)
	case errors.Is(err, syscall.EROFS),
		errors.Is(err, syscall.EACCES),
		errors.Is(err, syscall.EPERM),
		errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrReadOnly, err)
	default:
		return err
	}
}

// IsUnwritable reports whether err means the medium cannot take writes.
func IsUnwritable(err error) bool {
	return errors.Is(err, ErrFull) || errors.Is(err, ErrReadOnly)
}
