package sales

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/catalog"
	"github.com/stockflow/backend/internal/domain/sales"
)

// SaleItemInput is one requested line
type SaleItemInput struct {
	ProductID int64           `json:"productId" binding:"required,gt=0"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	Price     decimal.Decimal `json:"price" binding:"required,gt=0"`
}

// CreateSaleRequest represents a request to record a sale
type CreateSaleRequest struct {
	Items []SaleItemInput `json:"items" binding:"dive"`
}

// UpdateSaleRequest represents a request to update a sale. Absent or empty
// Items leave the sale's items, stock and total untouched.
type UpdateSaleRequest struct {
	Items []SaleItemInput `json:"items" binding:"omitempty,dive"`
}

// ProductResponse is the product embedded in sale items and the product dropdown
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

// SaleItemResponse represents a sale line in API responses
type SaleItemResponse struct {
	ID        int64            `json:"id"`
	SaleID    int64            `json:"saleId"`
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	Product   *ProductResponse `json:"product,omitempty"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"userId"`
	Total     decimal.Decimal    `json:"total"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Items     []SaleItemResponse `json:"items"`
}

// ListMeta is the paging block of a sale list
type ListMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	LastPage int   `json:"lastPage"`
}

// SaleListResponse is one page of sales
type SaleListResponse struct {
	Data []SaleResponse `json:"data"`
	Meta ListMeta       `json:"meta"`
}

// DeleteSaleResponse acknowledges a deletion
type DeleteSaleResponse struct {
	Message string `json:"message"`
}

// ToItemRequests converts input lines to domain item requests
func ToItemRequests(items []SaleItemInput) []sales.ItemRequest {
	out := make([]sales.ItemRequest, len(items))
	for i, item := range items {
		out[i] = sales.ItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		}
	}
	return out
}

// ToProductResponse converts a product to its response shape
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

// ToSaleResponse converts a sale with its items to a response
func ToSaleResponse(s *sales.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = SaleItemResponse{
			ID:        item.ID,
			SaleID:    item.SaleID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice,
		}
		if item.Product != nil {
			p := ToProductResponse(item.Product)
			items[i].Product = &p
		}
	}
	return SaleResponse{
		ID:        s.ID,
		UserID:    s.OwnerID,
		Total:     s.Total,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Items:     items,
	}
}
