// Package store persists small settings values (the selected contacts) in a
// JSON file or a SQLite table.
package store

import (
	"context"
	"errors"
	"fmt"

	"icabridge/internal/config"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// KV is a flat key/value settings store. Values are raw JSON.
type KV interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Save flushes pending writes.
	Save(ctx context.Context) error
	Close() error
}

// Open opens the backend named by backend at path.
func Open(backend, path string) (KV, error) {
	switch backend {
	case config.BackendFile, "":
		return OpenFile(path)
	case config.BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
