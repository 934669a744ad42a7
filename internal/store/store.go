package store

import (
	"context"
	"time"
)

// KV is the byte-level key-value store the ledger persists into. Each key
// holds one full value; there are no partial writes.
type KV interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Stamped is implemented by stores that record when each key was last
// written. Callers use it to notice writes made by another process.
type Stamped interface {
	// UpdatedAt returns ErrNotFound when the key is absent.
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}
