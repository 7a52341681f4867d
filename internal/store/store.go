package store

import (
	"context"
	"errors"

	"github.com/nhle/inbox/internal/model"
)

// ErrMalformed marks a stored value that could not be decoded.
var ErrMalformed = errors.New("malformed stored value")

// KV is the raw on-device key-value surface.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Loader is the read accessor the inbox aggregator depends on.
type Loader interface {
	// LoadRaw returns the stored list for identity and category.
	// A missing key yields an empty list and no error.
	LoadRaw(ctx context.Context, identity string, category model.Category) ([]model.Notification, error)
}

// Appender is the write accessor used by notification ingestion.
type Appender interface {
	Append(ctx context.Context, identity string, n model.Notification) error
}

// Store defines the persistence interface for locally kept notifications.
type Store interface {
	KV
	Loader
	Appender

	// Clear removes one category list for identity.
	Clear(ctx context.Context, identity string, category model.Category) error

	// ClearAll removes every category list for identity.
	ClearAll(ctx context.Context, identity string) error
}

// Key returns the storage key for an identity's category list.
func Key(identity string, category model.Category) string {
	return identity + "_" + string(category)
}

var _ Store = (*SQLiteStore)(nil)
