package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanCount = 200

// RedisStore is a Redis-backed Store. Every key is namespaced with a prefix so
// several gateways can share one database.
type RedisStore struct {
	client    *redis.Client
	ttl       time.Duration
	namespace string
}

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	URL       string        // Redis connection URL (e.g., "redis://localhost:6379/0")
	TTL       time.Duration // Server-side expiry applied on Set (0 = none)
	Namespace string        // Prefix for all keys (default: "apilocale:")
}

// NewRedisStore connects to Redis and checks the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisStoreFromClient(client, cfg.TTL, cfg.Namespace), nil
}

// NewRedisStoreFromClient creates a RedisStore from an existing client.
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "apilocale:"
	}

	return &RedisStore{
		client:    client,
		ttl:       max(ttl, 0),
		namespace: namespace,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.namespace+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	err := s.client.Set(ctx, s.namespace+key, value, s.ttl).Err()
	if err != nil && strings.Contains(err.Error(), "OOM") {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return err
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.namespace+key).Err()
}

// Keys walks the keyspace with SCAN. The cost is linear in the number of
// keys in the database, not only in the matching ones.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	match := escapeGlob(s.namespace+prefix) + "*"

	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, match, scanCount).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.namespace))
		}
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ Store = (*RedisStore)(nil)
