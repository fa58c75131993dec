package kvstore

import "context"

// NoopStore is the null-object backend for execution contexts without a
// durable store. Every read reports absent and every write is dropped, so
// components degrade to default values without branching on availability.
type NoopStore struct{}

// NewNoopStore creates a NoopStore.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

// Get always reports the key as absent.
func (NoopStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set silently discards the write.
func (NoopStore) Set(ctx context.Context, key string, value []byte) error {
	return nil
}

// Delete is a no-op.
func (NoopStore) Delete(ctx context.Context, key string) error {
	return nil
}

// Keys always returns an empty set.
func (NoopStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	return nil, nil
}
