package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/catalog"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name          string          `json:"name" binding:"required,min=1,max=200"`
	SKU           string          `json:"sku" binding:"required,min=1,max=64"`
	Price         decimal.Decimal `json:"price" binding:"gte=0"`
	StockQuantity int             `json:"stockQuantity" binding:"gte=0"`
}

// UpdateProductRequest represents a partial product update; absent fields are kept
type UpdateProductRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	SKU           *string          `json:"sku" binding:"omitempty,min=1,max=64"`
	Price         *decimal.Decimal `json:"price" binding:"omitempty,gte=0"`
	StockQuantity *int             `json:"stockQuantity" binding:"omitempty,gte=0"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"userId"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductListResponse is one page of products
type ProductListResponse struct {
	Data       []ProductResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
}

// DeleteProductResponse is returned after a successful delete
type DeleteProductResponse struct {
	Message string `json:"message"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		UserID:        p.OwnerID,
		Name:          p.Name,
		SKU:           p.SKU,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (r UpdateProductRequest) changes() catalog.ProductChanges {
	return catalog.ProductChanges{
		Name:          r.Name,
		SKU:           r.SKU,
		Price:         r.Price,
		StockQuantity: r.StockQuantity,
	}
}
