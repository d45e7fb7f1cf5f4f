package cache

import (
	"context"
	"sync"
	"time"

	"github.com/stockflow/backend/internal/domain/dashboard"
)

// cacheEntry wraps a cached value with expiration time
type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e *cacheEntry[T]) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// InMemorySummaryCache implements dashboard.SummaryCache in process memory.
// Used when Redis is disabled or unreachable; entries are not shared across
// instances. Expired entries are dropped on read.
type InMemorySummaryCache struct {
	mu      sync.RWMutex
	entries map[int64]cacheEntry[dashboard.Summary]
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemorySummaryCache creates a new in-memory summary cache
func NewInMemorySummaryCache(ttl time.Duration) *InMemorySummaryCache {
	if ttl <= 0 {
		ttl = dashboard.DefaultCacheTTL
	}
	return &InMemorySummaryCache{
		entries: make(map[int64]cacheEntry[dashboard.Summary]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves a summary from cache
func (c *InMemorySummaryCache) Get(_ context.Context, ownerID int64) (*dashboard.Summary, error) {
	c.mu.RLock()
	entry, ok := c.entries[ownerID]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if entry.isExpired(c.now()) {
		c.mu.Lock()
		delete(c.entries, ownerID)
		c.mu.Unlock()
		return nil, nil
	}
	summary := entry.value
	return &summary, nil
}

// Set stores a copy of the summary
func (c *InMemorySummaryCache) Set(_ context.Context, ownerID int64, summary *dashboard.Summary, ttl time.Duration) error {
	if summary == nil {
		return nil
	}
	if ttl == 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ownerID] = cacheEntry[dashboard.Summary]{value: *summary, expiresAt: c.now().Add(ttl)}
	return nil
}

// Delete removes a summary from cache
func (c *InMemorySummaryCache) Delete(_ context.Context, ownerID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, ownerID)
	return nil
}

// Close is a no-op
func (c *InMemorySummaryCache) Close() error {
	return nil
}

var _ dashboard.SummaryCache = (*InMemorySummaryCache)(nil)
