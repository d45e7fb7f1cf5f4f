package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/stockflow/backend/internal/domain/catalog"
	"github.com/stockflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductDeletedMessage is returned after a successful delete
const ProductDeletedMessage = "Product deleted successfully"

// ErrProductNotFound is returned for a missing product or one of another owner
var ErrProductNotFound = shared.NewNotFoundError("Product not found")

// CacheInvalidator drops the owner's cached dashboard summary
type CacheInvalidator interface {
	Invalidate(ctx context.Context, ownerID int64)
}

// ProductService handles product-related business operations
type ProductService struct {
	productRepo catalog.ProductRepository
	invalidator CacheInvalidator
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, invalidator CacheInvalidator, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo: productRepo,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, ownerID int64, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(ownerID, req.Name, req.SKU, req.Price, req.StockQuantity)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSKUFree(ctx, ownerID, product.SKU); err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, s.internal(err, "Failed to create product")
	}
	s.invalidate(ctx, ownerID)

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves one of the owner's products
func (s *ProductService) GetByID(ctx context.Context, ownerID, productID int64) (*ProductResponse, error) {
	product, err := s.find(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves one page of the owner's products
func (s *ProductService) List(ctx context.Context, ownerID int64, page, limit int) (*ProductListResponse, error) {
	filter := shared.Filter{Page: page, PageSize: limit, OrderBy: "id", OrderDir: "asc"}.Normalize()

	products, err := s.productRepo.FindAllForOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, s.internal(err, "Failed to fetch products")
	}
	total, err := s.productRepo.CountForOwner(ctx, ownerID)
	if err != nil {
		return nil, s.internal(err, "Failed to fetch products")
	}

	data := make([]ProductResponse, len(products))
	for i := range products {
		data[i] = ToProductResponse(&products[i])
	}
	return &ProductListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.PageSize,
		TotalPages: shared.LastPage(total, filter.PageSize),
	}, nil
}

// Update applies a partial update to a product
func (s *ProductService) Update(ctx context.Context, ownerID, productID int64, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.find(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}

	changes := req.changes()
	if changes.SKUChanged(product.SKU) {
		if err := s.ensureSKUFree(ctx, ownerID, strings.TrimSpace(*changes.SKU)); err != nil {
			return nil, err
		}
	}
	if err := product.Apply(changes); err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, s.internal(err, "Failed to update product")
	}
	s.invalidate(ctx, ownerID)

	response := ToProductResponse(product)
	return &response, nil
}

// Delete deletes a product. Products referenced by sales cannot be deleted.
func (s *ProductService) Delete(ctx context.Context, ownerID, productID int64) (*DeleteProductResponse, error) {
	if _, err := s.find(ctx, ownerID, productID); err != nil {
		return nil, err
	}
	if err := s.productRepo.DeleteForOwner(ctx, ownerID, productID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, s.internal(err, "Failed to delete product")
	}
	s.invalidate(ctx, ownerID)

	return &DeleteProductResponse{Message: ProductDeletedMessage}, nil
}

func (s *ProductService) find(ctx context.Context, ownerID, productID int64) (*catalog.Product, error) {
	product, err := s.productRepo.FindByIDForOwner(ctx, ownerID, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, s.internal(err, "Failed to fetch product")
	}
	return product, nil
}

func (s *ProductService) ensureSKUFree(ctx context.Context, ownerID int64, sku string) error {
	_, err := s.productRepo.FindBySKU(ctx, ownerID, sku)
	switch {
	case err == nil:
		return shared.NewConflictError("Product with SKU %q already exists", sku)
	case errors.Is(err, shared.ErrNotFound):
		return nil
	default:
		return s.internal(err, "Failed to check product SKU")
	}
}

func (s *ProductService) invalidate(ctx context.Context, ownerID int64) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, ownerID)
	}
}

func (s *ProductService) internal(err error, message string) error {
	if !shared.IsDomainError(err) {
		s.logger.Error(message, zap.Error(err))
	}
	return shared.AsInternal(err, message)
}
