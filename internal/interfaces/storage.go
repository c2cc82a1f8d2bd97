package interfaces

import "context"

// BlobStore is an opaque key-value blob store. Used for the local catalog
// and portfolio caches; keys may contain "/" for subdirectories.
type BlobStore interface {
	// Get retrieves a blob by key. Returns the store's not-found sentinel
	// when the key has never been written.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores a blob atomically.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes a blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
