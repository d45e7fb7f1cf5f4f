package persistence

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormDashboardRepository_Summarize(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormDashboardRepository(db)

	plenty := seedProduct(t, db, 1, "2", 50)
	low := seedProduct(t, db, 1, "2", 4)
	empty := seedProduct(t, db, 1, "2", 0)
	seedProduct(t, db, 1, "2", 5)
	foreign := seedProduct(t, db, 2, "2", 1)

	newPersistedSale(t, db, 1, line(plenty, 2, "2.5"))
	newPersistedSale(t, db, 1, line(plenty, 1, "10"), line(low, 1, "1"))
	newPersistedSale(t, db, 2, line(foreign, 1, "99"))

	t.Run("aggregates one owner", func(t *testing.T) {
		summary, err := repo.Summarize(ctx, 1, 5)
		require.NoError(t, err)

		assert.Equal(t, int64(4), summary.TotalProducts)
		assert.Equal(t, int64(2), summary.TotalSales)
		assert.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(16)), "revenue was %s", summary.TotalRevenue)

		require.Len(t, summary.LowStockProducts, 2)
		assert.Equal(t, empty.ID, summary.LowStockProducts[0].ID)
		assert.Equal(t, 0, summary.LowStockProducts[0].StockQuantity)
		assert.Equal(t, low.ID, summary.LowStockProducts[1].ID)
		assert.Equal(t, low.Name, summary.LowStockProducts[1].Name)
	})

	t.Run("owner without data", func(t *testing.T) {
		summary, err := repo.Summarize(ctx, 3, 5)
		require.NoError(t, err)

		assert.Zero(t, summary.TotalProducts)
		assert.Zero(t, summary.TotalSales)
		assert.True(t, summary.TotalRevenue.IsZero())
		assert.NotNil(t, summary.LowStockProducts)
		assert.Empty(t, summary.LowStockProducts)
	})
}
