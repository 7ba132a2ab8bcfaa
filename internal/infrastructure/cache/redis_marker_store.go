package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces processed markers in a shared Redis
const DefaultKeyPrefix = "revrec:processed:"

var _ shared.IdempotencyStore = (*RedisMarkerStore)(nil)

// RedisMarkerStore keeps processed markers in Redis so that every worker
// instance sees the same markers
type RedisMarkerStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisMarkerStore connects to Redis and verifies the connection
func NewRedisMarkerStore(ctx context.Context, cfg config.RedisConfig) (*RedisMarkerStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisMarkerStoreWithClient(client, DefaultKeyPrefix), nil
}

// NewRedisMarkerStoreWithClient creates a store with an existing Redis client
func NewRedisMarkerStoreWithClient(client *redis.Client, keyPrefix string) *RedisMarkerStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisMarkerStore{client: client, keyPrefix: keyPrefix}
}

// MarkProcessed sets the marker with SETNX.
// Returns true if the key was newly marked, false if it was already present.
func (s *RedisMarkerStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to store processed marker: %w", err)
	}
	return ok, nil
}

// IsProcessed reports whether the marker exists
func (s *RedisMarkerStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check processed marker: %w", err)
	}
	return n > 0, nil
}

// Forget removes a marker so the record version is processed again
func (s *RedisMarkerStore) Forget(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to remove processed marker: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisMarkerStore) Close() error {
	return s.client.Close()
}
