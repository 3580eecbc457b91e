// internal/audit/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey is returned for keys that do not fit the audit layout.
var ErrInvalidKey = errors.New("invalid audit key")

// validateKey enforces the audit trail's key shape: relative,
// slash-separated paths like "trades/2026-08-29/<id>.json". Absolute
// paths and traversal segments are rejected before they reach a backend.
func validateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	case strings.HasPrefix(key, "/"):
		return fmt.Errorf("%w: absolute path %q", ErrInvalidKey, key)
	case strings.Contains(key, "\\"):
		return fmt.Errorf("%w: backslash in %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: traversal in %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// Storage defines the interface for audit trail storage backends
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}
