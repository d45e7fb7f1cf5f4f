package cache

import (
	"context"
	"time"

	"github.com/stockflow/backend/internal/domain/dashboard"
	"go.uber.org/zap"
)

// DefaultInvalidationTimeout bounds a single invalidation call
const DefaultInvalidationTimeout = 500 * time.Millisecond

// SummaryInvalidator drops an owner's cached dashboard summary after a write.
// It is best effort: failures are logged and never returned, and the entry
// still expires with its TTL.
type SummaryInvalidator struct {
	cache   dashboard.SummaryCache
	timeout time.Duration
	logger  *zap.Logger
}

// NewSummaryInvalidator creates a new SummaryInvalidator
func NewSummaryInvalidator(cache dashboard.SummaryCache, timeout time.Duration, logger *zap.Logger) *SummaryInvalidator {
	if timeout <= 0 {
		timeout = DefaultInvalidationTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryInvalidator{cache: cache, timeout: timeout, logger: logger}
}

// Invalidate deletes dashboard:<ownerID>
func (i *SummaryInvalidator) Invalidate(ctx context.Context, ownerID int64) {
	// The write already committed; a cancelled request must not skip invalidation.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.timeout)
	defer cancel()

	if err := i.cache.Delete(ctx, ownerID); err != nil {
		i.logger.Warn("Failed to invalidate dashboard cache",
			zap.String("key", dashboard.CacheKey(ownerID)),
			zap.Error(err))
	}
}
