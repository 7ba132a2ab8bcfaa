package cache

import (
	"context"
	"fmt"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/infrastructure/config"
	"go.uber.org/zap"
)

// MarkerStoreFactory picks the processed marker store for the configured environment
type MarkerStoreFactory struct {
	redisConfig   config.RedisConfig
	logger        *zap.Logger
	allowFallback bool
}

// FactoryOption configures a MarkerStoreFactory
type FactoryOption func(*MarkerStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *MarkerStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// in-memory markers. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *MarkerStoreFactory) {
		f.allowFallback = allow
	}
}

// NewMarkerStoreFactory creates a new factory
func NewMarkerStoreFactory(cfg config.RedisConfig, opts ...FactoryOption) *MarkerStoreFactory {
	f := &MarkerStoreFactory{
		redisConfig:   cfg,
		logger:        zap.NewNop(),
		allowFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store, or an in-memory store when Redis is
// unreachable and fallback is allowed
func (f *MarkerStoreFactory) CreateStore(ctx context.Context) (shared.IdempotencyStore, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("Redis not configured, using in-memory processed markers")
		return NewMemoryMarkerStore(0), nil
	}
	store, err := NewRedisMarkerStore(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis processed markers", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}
	if !f.allowFallback {
		return nil, fmt.Errorf("redis required for processed markers but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory processed markers. "+
		"Records may be processed again by other worker instances.",
		zap.Error(err),
	)
	return NewMemoryMarkerStore(0), nil
}
