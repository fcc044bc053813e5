package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the token under a single key of a Redis server, so several
// console hosts can share one session.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// Compile-time check to ensure RedisStore implements TokenStore
var _ TokenStore = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore using the given client and key.
// The store takes ownership of the client; Close releases it.
func NewRedisStore(client redis.UniversalClient, key string) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	return &RedisStore{
		client: client,
		key:    key,
	}, nil
}

// Read returns the value stored under the key. Returns ErrNotFound if the key is absent or empty.
func (r *RedisStore) Read(ctx context.Context) (string, error) {
	value, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", r.key, err)
	}
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// Write stores the value without expiry.
func (r *RedisStore) Write(ctx context.Context, value string) error {
	if err := r.client.Set(ctx, r.key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

// Delete removes the key.
func (r *RedisStore) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}

// Close closes the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
