package dashboard

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
)

// KeyPrefix prefixes every cached summary key
const KeyPrefix = "dashboard:"

// CacheKey returns the cache key of an owner's summary
func CacheKey(ownerID int64) string {
	return KeyPrefix + strconv.FormatInt(ownerID, 10)
}

// LowStockProduct is a product under the low stock threshold
type LowStockProduct struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	StockQuantity int    `json:"stockQuantity"`
}

// Summary is the per-owner dashboard read model
type Summary struct {
	TotalProducts    int64             `json:"totalProducts"`
	TotalSales       int64             `json:"totalSales"`
	TotalRevenue     decimal.Decimal   `json:"totalRevenue"`
	LowStockProducts []LowStockProduct `json:"lowStockProducts"`
}

// SummaryRepository computes summaries from the store
type SummaryRepository interface {
	// Summarize aggregates the owner's products and sales; products with
	// stock below lowStockThreshold are listed by ascending stock.
	Summarize(ctx context.Context, ownerID int64, lowStockThreshold int) (*Summary, error)
}
