package dashboard

import (
	"context"
	"time"
)

// DefaultCacheTTL is how long a cached summary stays valid
const DefaultCacheTTL = 60 * time.Second

// DefaultCacheTimeout bounds a single cache read or write
const DefaultCacheTimeout = 500 * time.Millisecond

// SummaryCache stores per-owner summaries under CacheKey(ownerID).
type SummaryCache interface {
	// Get returns the cached summary.
	// Returns nil, nil on a cache miss.
	Get(ctx context.Context, ownerID int64) (*Summary, error)

	// Set stores a summary with the given TTL; 0 means DefaultCacheTTL.
	Set(ctx context.Context, ownerID int64, summary *Summary, ttl time.Duration) error

	// Delete removes the owner's cached summary
	Delete(ctx context.Context, ownerID int64) error
}
