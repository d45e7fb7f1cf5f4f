package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stockflow/backend/internal/domain/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type failingCache struct {
	dashboard.SummaryCache
	deadline bool
}

func (f *failingCache) Delete(ctx context.Context, _ int64) error {
	_, f.deadline = ctx.Deadline()
	return errors.New("redis: i/o timeout")
}

func TestSummaryInvalidator_DeletesEntry(t *testing.T) {
	ctx := context.Background()
	c := NewInMemorySummaryCache(time.Minute)
	require.NoError(t, c.Set(ctx, 3, testSummary(), 0))

	NewSummaryInvalidator(c, 0, nil).Invalidate(ctx, 3)

	got, err := c.Get(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSummaryInvalidator_LogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := &failingCache{}

	NewSummaryInvalidator(c, 100*time.Millisecond, zap.New(core)).Invalidate(context.Background(), 3)

	assert.True(t, c.deadline, "invalidation runs with a timeout")
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Failed to invalidate dashboard cache", entry.Message)
	assert.Equal(t, "dashboard:3", entry.ContextMap()["key"])
}

func TestSummaryInvalidator_IgnoresCancelledRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewInMemorySummaryCache(time.Minute)
	require.NoError(t, c.Set(ctx, 3, testSummary(), 0))
	cancel()

	NewSummaryInvalidator(c, 0, nil).Invalidate(ctx, 3)

	got, _ := c.Get(context.Background(), 3)
	assert.Nil(t, got)
}
