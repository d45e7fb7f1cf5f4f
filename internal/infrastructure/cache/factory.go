package cache

import (
	"context"
	"fmt"

	"github.com/stockflow/backend/internal/domain/dashboard"
	"github.com/stockflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SummaryStore is a summary cache that holds resources until closed
type SummaryStore interface {
	dashboard.SummaryCache
	Close() error
}

// SummaryCacheFactory creates summary caches based on configuration
type SummaryCacheFactory struct {
	redisConfig           config.RedisConfig
	dashboardConfig       config.DashboardConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SummaryCacheFactoryOption is a functional option for configuring the factory
type SummaryCacheFactoryOption func(*SummaryCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SummaryCacheFactoryOption {
	return func(f *SummaryCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) SummaryCacheFactoryOption {
	return func(f *SummaryCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSummaryCacheFactory creates a new factory
func NewSummaryCacheFactory(redisCfg config.RedisConfig, dashboardCfg config.DashboardConfig, opts ...SummaryCacheFactoryOption) *SummaryCacheFactory {
	f := &SummaryCacheFactory{
		redisConfig:           redisCfg,
		dashboardConfig:       dashboardCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis cache when Redis is enabled and reachable,
// otherwise an in-memory cache if fallback is allowed.
func (f *SummaryCacheFactory) CreateStore(ctx context.Context) (SummaryStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory dashboard cache")
		return NewInMemorySummaryCache(f.dashboardConfig.CacheTTL), nil
	}

	store, err := NewRedisSummaryCache(ctx, f.redisConfig,
		WithCacheTTL(f.dashboardConfig.CacheTTL),
		WithCacheLogger(f.logger))
	if err == nil {
		f.logger.Info("Using Redis dashboard cache", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for dashboard cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory dashboard cache. "+
		"Invalidations will not reach other instances.",
		zap.Error(err))
	return NewInMemorySummaryCache(f.dashboardConfig.CacheTTL), nil
}
