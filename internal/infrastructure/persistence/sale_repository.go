package persistence

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/sales"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements sales.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// withItems preloads the sale lines, in insertion order, and their products
func withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sale_items.id ASC")
		}).
		Preload("Items.Product")
}

// FindByIDWithItems finds a sale with its items and products
func (r *GormSaleRepository) FindByIDWithItems(ctx context.Context, id int64) (*sales.Sale, error) {
	var model models.SaleModel
	if err := withItems(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the sale row, then loads its items and products.
// Concurrent mutations of the same sale queue on the lock and read the lines
// the previous one committed.
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, id int64) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("sale_id = ?", id).
		Order("sale_items.id ASC").
		Find(&model.Items).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForOwner finds one page of the owner's sales, newest first
func (r *GormSaleRepository) FindAllForOwner(ctx context.Context, ownerID int64, filter shared.Filter) ([]sales.Sale, error) {
	var saleModels []models.SaleModel
	query := withItems(r.db.WithContext(ctx)).
		Scopes(OwnedBy(ownerID)).
		Order("created_at DESC").
		Order("id DESC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&saleModels).Error; err != nil {
		return nil, err
	}

	result := make([]sales.Sale, len(saleModels))
	for i := range saleModels {
		result[i] = *saleModels[i].ToDomain()
	}
	return result, nil
}

// CountForOwner counts the owner's sales
func (r *GormSaleRepository) CountForOwner(ctx context.Context, ownerID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Scopes(OwnedBy(ownerID)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts the sale row, then its items
func (r *GormSaleRepository) Create(ctx context.Context, sale *sales.Sale) error {
	model := models.SaleModelFromDomain(sale)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return err
	}
	sale.BaseEntity = model.BaseModel.ToDomain()
	sale.AssignID(model.ID)
	return r.CreateItems(ctx, sale.Items)
}

// CreateItems inserts sale lines and writes the assigned ids back into items
func (r *GormSaleRepository) CreateItems(ctx context.Context, items []sales.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	itemModels := models.SaleItemModelsFromDomain(items)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&itemModels).Error; err != nil {
		return err
	}
	for i := range itemModels {
		items[i].ID = itemModels[i].ID
	}
	return nil
}

// DeleteItems removes every line of the sale
func (r *GormSaleRepository) DeleteItems(ctx context.Context, saleID int64) error {
	return r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Delete(&models.SaleItemModel{}).Error
}

// UpdateTotal stores a recomputed total
func (r *GormSaleRepository) UpdateTotal(ctx context.Context, saleID int64, total decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("id = ?", saleID).
		Update("total", total)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the sale row; remaining items go with it through the cascade
func (r *GormSaleRepository) Delete(ctx context.Context, saleID int64) error {
	result := r.db.WithContext(ctx).Delete(&models.SaleModel{}, "id = ?", saleID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ sales.SaleRepository = (*GormSaleRepository)(nil)
