package persistence

import (
	"context"
	"errors"

	"github.com/stockflow/backend/internal/domain/catalog"
	"github.com/stockflow/backend/internal/domain/sales"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository and the stock
// side of the sales workflow (sales.StockRepository) using GORM.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByIDForOwner finds a product by ID within an owner's catalog
func (r *GormProductRepository) FindByIDForOwner(ctx context.Context, ownerID, id int64) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Scopes(OwnedBy(ownerID)).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySKU finds a product by SKU within an owner's catalog
func (r *GormProductRepository) FindBySKU(ctx context.Context, ownerID int64, sku string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Scopes(OwnedBy(ownerID)).Where("sku = ?", sku).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForOwner finds one page of the owner's products
func (r *GormProductRepository) FindAllForOwner(ctx context.Context, ownerID int64, filter shared.Filter) ([]catalog.Product, error) {
	var productModels []models.ProductModel
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).Scopes(OwnedBy(ownerID))
	query = applyPage(query, filter, ProductSortFields, "id")
	if err := query.Find(&productModels).Error; err != nil {
		return nil, err
	}
	return toProducts(productModels), nil
}

// ListByName returns all of the owner's products ordered by name
func (r *GormProductRepository) ListByName(ctx context.Context, ownerID int64) ([]catalog.Product, error) {
	var productModels []models.ProductModel
	if err := r.db.WithContext(ctx).
		Scopes(OwnedBy(ownerID)).
		Order("name ASC").
		Order("id ASC").
		Find(&productModels).Error; err != nil {
		return nil, err
	}
	return toProducts(productModels), nil
}

// CountForOwner counts the owner's products
func (r *GormProductRepository) CountForOwner(ctx context.Context, ownerID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Scopes(OwnedBy(ownerID)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates a new product or updates an existing one
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	var err error
	if product.IsNew() {
		err = r.db.WithContext(ctx).Create(model).Error
	} else {
		err = r.db.WithContext(ctx).Save(model).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewConflictError("Product with SKU %q already exists", product.SKU)
		}
		return err
	}
	product.BaseEntity = model.BaseModel.ToDomain()
	return nil
}

// DeleteForOwner deletes a product within an owner's catalog
func (r *GormProductRepository) DeleteForOwner(ctx context.Context, ownerID, id int64) error {
	result := r.db.WithContext(ctx).Scopes(OwnedBy(ownerID)).Delete(&models.ProductModel{}, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
			return catalog.ErrProductInUse
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByOwnerAndIDs returns the products among ids that belong to ownerID
func (r *GormProductRepository) FindByOwnerAndIDs(ctx context.Context, ownerID int64, ids []int64) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var productModels []models.ProductModel
	if err := r.db.WithContext(ctx).
		Scopes(OwnedBy(ownerID)).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&productModels).Error; err != nil {
		return nil, err
	}
	return toProducts(productModels), nil
}

// DecrementStock takes quantity units only while enough are left. The guard in
// the WHERE clause makes the check and the write one statement, so two
// concurrent sales can never both take the last unit.
func (r *GormProductRepository) DecrementStock(ctx context.Context, ownerID, productID int64, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND owner_id = ? AND stock_quantity >= ?", productID, ownerID, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInsufficientStock
	}
	return nil
}

// IncrementStock gives quantity units back to the product
func (r *GormProductRepository) IncrementStock(ctx context.Context, productID int64, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", productID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toProducts(productModels []models.ProductModel) []catalog.Product {
	products := make([]catalog.Product, len(productModels))
	for i := range productModels {
		products[i] = *productModels[i].ToDomain()
	}
	return products
}

var (
	_ catalog.ProductRepository = (*GormProductRepository)(nil)
	_ sales.StockRepository     = (*GormProductRepository)(nil)
)
