package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoState is returned by a Backend when nothing has been persisted yet.
	ErrNoState = errors.New("no persisted state")

	// ErrUnknownBackend is returned by OpenBackend for an unsupported kind.
	ErrUnknownBackend = errors.New("backend type must be file, sqlite, or memory")
)

// Backend is the durable medium behind a Store. Load returns the persisted
// items in order; Save replaces everything previously saved.
type Backend interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
}

// OpenBackend opens the backend of the given kind. For "file" the DSN is the
// path of the JSON state file, for "sqlite" the database path. "memory"
// ignores the DSN.
func OpenBackend(kind, dsn string) (Backend, error) {
	switch kind {
	case "", "file":
		if dsn == "" {
			return nil, fmt.Errorf("file backend requires a path")
		}
		return NewFileBackend(dsn), nil
	case "sqlite":
		if dsn == "" {
			return nil, fmt.Errorf("sqlite backend requires a database path")
		}
		return NewSQLiteBackend(dsn)
	case "memory":
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}

// Close releases the backend's resources if it holds any.
func Close(b Backend) error {
	if c, ok := b.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
