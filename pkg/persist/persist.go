// Package persist defines the optional key/value persistence contract the
// cache mirrors its entry set into. The cache serializes all entries as a
// single blob under its storage key; persistence failures are logged by
// the cache and never surfaced to callers.
package persist

import "context"

// Store is a generic key/value blob store.
type Store interface {
	// Get retrieves the blob stored under key. The boolean reports
	// whether a blob was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a blob under key, replacing any previous value.
	Set(ctx context.Context, key string, blob []byte) error

	// Delete removes the blob stored under key, if any.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}
