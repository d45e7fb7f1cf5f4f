package dashboard

import (
	"context"
	"time"

	"github.com/stockflow/backend/internal/domain/dashboard"
	"github.com/stockflow/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Config holds dashboard read path settings
type Config struct {
	CacheTTL time.Duration
	// CacheTimeout bounds each cache call; a slow cache is bypassed
	CacheTimeout      time.Duration
	LowStockThreshold int
}

// DefaultConfig returns the default dashboard settings
func DefaultConfig() Config {
	return Config{
		CacheTTL:          dashboard.DefaultCacheTTL,
		CacheTimeout:      dashboard.DefaultCacheTimeout,
		LowStockThreshold: 5,
	}
}

// Service serves dashboard summaries through a read-through cache.
// A cache failure never fails the request: the summary is computed from the store.
type Service struct {
	repo   dashboard.SummaryRepository
	cache  dashboard.SummaryCache
	config Config
	group  singleflight.Group
	logger *zap.Logger
}

// NewService creates a new dashboard Service. cache may be nil to always compute.
func NewService(repo dashboard.SummaryRepository, cache dashboard.SummaryCache, config Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = dashboard.DefaultCacheTTL
	}
	if config.CacheTimeout <= 0 {
		config.CacheTimeout = dashboard.DefaultCacheTimeout
	}
	return &Service{
		repo:   repo,
		cache:  cache,
		config: config,
		logger: logger,
	}
}

// GetSummary returns the owner's dashboard summary
func (s *Service) GetSummary(ctx context.Context, ownerID int64) (*dashboard.Summary, error) {
	if summary := s.cached(ctx, ownerID); summary != nil {
		return summary, nil
	}

	// Concurrent misses for one owner share a single computation.
	v, err, _ := s.group.Do(dashboard.CacheKey(ownerID), func() (interface{}, error) {
		if summary := s.cached(ctx, ownerID); summary != nil {
			return summary, nil
		}
		summary, err := s.repo.Summarize(ctx, ownerID, s.config.LowStockThreshold)
		if err != nil {
			return nil, err
		}
		if summary.LowStockProducts == nil {
			summary.LowStockProducts = []dashboard.LowStockProduct{}
		}
		s.store(ctx, ownerID, summary)
		return summary, nil
	})
	if err != nil {
		if !shared.IsDomainError(err) {
			s.logger.Error("Failed to compute dashboard summary", zap.Int64("owner_id", ownerID), zap.Error(err))
		}
		return nil, shared.AsInternal(err, "Failed to fetch dashboard")
	}
	return v.(*dashboard.Summary), nil
}

func (s *Service) cached(ctx context.Context, ownerID int64) *dashboard.Summary {
	if s.cache == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.CacheTimeout)
	defer cancel()

	summary, err := s.cache.Get(ctx, ownerID)
	if err != nil {
		s.logger.Warn("Dashboard cache read failed, computing from store",
			zap.Int64("owner_id", ownerID), zap.Error(err))
		return nil
	}
	return summary
}

func (s *Service) store(ctx context.Context, ownerID int64, summary *dashboard.Summary) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.CacheTimeout)
	defer cancel()

	if err := s.cache.Set(ctx, ownerID, summary, s.config.CacheTTL); err != nil {
		s.logger.Warn("Dashboard cache write failed",
			zap.Int64("owner_id", ownerID), zap.Error(err))
	}
}
