// Package metadata stores small client-side values (the persisted session,
// preferences) in the local SQLite database under string keys.
package metadata

import (
	"context"
)

// Repository is a key/value store. Get returns common.ErrorNotFound for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
