package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stockflow/backend/internal/domain/dashboard"
	"github.com/stockflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RedisSummaryCache implements dashboard.SummaryCache using Redis.
// Summaries are stored as JSON under dashboard:<ownerId> with a TTL.
type RedisSummaryCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	ttl        time.Duration
	logger     *zap.Logger
}

// RedisSummaryCacheOption is a functional option for configuring the cache
type RedisSummaryCacheOption func(*RedisSummaryCache)

// WithCacheTTL sets the default TTL of cached summaries
func WithCacheTTL(ttl time.Duration) RedisSummaryCacheOption {
	return func(c *RedisSummaryCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisSummaryCacheOption {
	return func(c *RedisSummaryCache) {
		c.logger = logger
	}
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.OpTimeout,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
		MaxRetries:   1,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisSummaryCache creates a cache with its own Redis client
func NewRedisSummaryCache(ctx context.Context, cfg config.RedisConfig, opts ...RedisSummaryCacheOption) (*RedisSummaryCache, error) {
	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c := NewRedisSummaryCacheWithClient(client, opts...)
	c.ownsClient = true
	return c, nil
}

// NewRedisSummaryCacheWithClient creates a cache with an existing Redis client.
// The caller retains ownership of the client.
func NewRedisSummaryCacheWithClient(client *redis.Client, opts ...RedisSummaryCacheOption) *RedisSummaryCache {
	c := &RedisSummaryCache{
		client: client,
		ttl:    dashboard.DefaultCacheTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a summary from cache
func (c *RedisSummaryCache) Get(ctx context.Context, ownerID int64) (*dashboard.Summary, error) {
	key := dashboard.CacheKey(ownerID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.logger.Debug("Cache miss for dashboard summary", zap.String("key", key))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary from cache: %w", err)
	}

	var summary dashboard.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		// Delete corrupted cache entry
		_ = c.client.Del(ctx, key)
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}

	c.logger.Debug("Cache hit for dashboard summary", zap.String("key", key))
	return &summary, nil
}

// Set stores a summary in cache
func (c *RedisSummaryCache) Set(ctx context.Context, ownerID int64, summary *dashboard.Summary, ttl time.Duration) error {
	if summary == nil {
		return nil
	}
	if ttl == 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := c.client.Set(ctx, dashboard.CacheKey(ownerID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set summary in cache: %w", err)
	}
	return nil
}

// Delete removes a summary from cache
func (c *RedisSummaryCache) Delete(ctx context.Context, ownerID int64) error {
	if err := c.client.Del(ctx, dashboard.CacheKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("failed to delete summary from cache: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (c *RedisSummaryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client if the cache owns it
func (c *RedisSummaryCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

var _ dashboard.SummaryCache = (*RedisSummaryCache)(nil)
