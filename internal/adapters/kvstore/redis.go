package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/campusengage/engine/pkg/metrics"
)

const scanBatchSize = 100

// RedisConfig carries the connection settings for a RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore implements Store on top of a redis instance. Values are stored
// as plain strings; prefix enumeration uses SCAN so large keyspaces never
// block the server.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Get returns the value for key and whether it exists.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	metrics.RecordStoreOp("get")
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		metrics.RecordStoreError("get")
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set writes the value for key without expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	metrics.RecordStoreOp("set")
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		metrics.RecordStoreError("set")
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key if present.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	metrics.RecordStoreOp("delete")
	if err := s.client.Del(ctx, key).Err(); err != nil {
		metrics.RecordStoreError("delete")
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Keys returns every key starting with prefix.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	metrics.RecordStoreOp("keys")
	// Escape glob metacharacters in the prefix itself.
	replacer := strings.NewReplacer("*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)
	pattern := replacer.Replace(prefix) + "*"

	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		metrics.RecordStoreError("keys")
		return nil, fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	return keys, nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
