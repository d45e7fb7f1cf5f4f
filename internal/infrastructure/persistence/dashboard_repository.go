package persistence

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/dashboard"
	"github.com/stockflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDashboardRepository computes dashboard summaries with aggregate queries
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewGormDashboardRepository creates a new GormDashboardRepository
func NewGormDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

type salesTotals struct {
	TotalSales   int64
	TotalRevenue decimal.Decimal
}

// Summarize reads every aggregate in one read-only transaction so the counts
// and the revenue describe the same snapshot.
func (r *GormDashboardRepository) Summarize(ctx context.Context, ownerID int64, lowStockThreshold int) (*dashboard.Summary, error) {
	summary := &dashboard.Summary{LowStockProducts: []dashboard.LowStockProduct{}}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ProductModel{}).
			Scopes(OwnedBy(ownerID)).
			Count(&summary.TotalProducts).Error; err != nil {
			return err
		}

		var totals salesTotals
		if err := tx.Model(&models.SaleModel{}).
			Select("COUNT(*) AS total_sales, COALESCE(SUM(total), 0) AS total_revenue").
			Scopes(OwnedBy(ownerID)).
			Scan(&totals).Error; err != nil {
			return err
		}
		summary.TotalSales = totals.TotalSales
		summary.TotalRevenue = totals.TotalRevenue

		var low []models.ProductModel
		if err := tx.Select("id", "name", "stock_quantity").
			Scopes(OwnedBy(ownerID)).
			Where("stock_quantity < ?", lowStockThreshold).
			Order("stock_quantity ASC").
			Order("id ASC").
			Find(&low).Error; err != nil {
			return err
		}
		for _, p := range low {
			summary.LowStockProducts = append(summary.LowStockProducts, dashboard.LowStockProduct{
				ID:            p.ID,
				Name:          p.Name,
				StockQuantity: p.StockQuantity,
			})
		}
		return nil
	}, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

var _ dashboard.SummaryRepository = (*GormDashboardRepository)(nil)
