package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Get when the key does not exist or has expired
var ErrNotFound = errors.New("key not found")

// RedisStorage is a prefixed JSON key/value store with TTLs
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage parses redisURL, connects and pings the server
func NewRedisStorage(ctx context.Context, redisURL, prefix string) (*RedisStorage, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStorageWithClient(client, prefix), nil
}

// NewRedisStorageWithClient wraps an existing client
func NewRedisStorageWithClient(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

// WithPrefix returns a view of the same connection under another key prefix
func (r *RedisStorage) WithPrefix(prefix string) *RedisStorage {
	return &RedisStorage{client: r.client, prefix: prefix}
}

func (r *RedisStorage) key(id string) string {
	return r.prefix + id
}

// Set stores data as JSON with TTL. A zero TTL keeps the key forever.
func (r *RedisStorage) Set(ctx context.Context, id string, data any, ttl time.Duration) error {
	jsonData, err := sonic.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := r.client.Set(ctx, r.key(id), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}
	return nil
}

// Get decodes the JSON stored under id into dest
func (r *RedisStorage) Get(ctx context.Context, id string, dest any) error {
	jsonData, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get value: %w", err)
	}

	if err := sonic.Unmarshal(jsonData, dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return nil
}

// Claim sets id only if it is absent. It reports whether this call created the key.
func (r *RedisStorage) Claim(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.key(id), time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim key: %w", err)
	}
	return ok, nil
}

// Ping tests the Redis connection
func (r *RedisStorage) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisStorage) Close() error {
	return r.client.Close()
}
