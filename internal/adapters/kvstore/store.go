// Package kvstore defines the durable key-value storage port used by every
// engine component, plus its in-memory, redis and no-op implementations.
//
// Records are JSON blobs. A missing key is a valid empty state, never an
// error: Get reports presence through its second return value.
package kvstore

import "context"

// Store provides atomic single-key reads and writes plus prefix enumeration.
type Store interface {
	// Get returns the value for key. The bool reports whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set writes the value for key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Keys returns every key starting with prefix, in unspecified order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
