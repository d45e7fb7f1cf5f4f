package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	salesapp "github.com/stockflow/backend/internal/application/sales"
)

// SaleService records and reads the caller's sales
type SaleService interface {
	ListProducts(ctx context.Context, ownerID int64) ([]salesapp.ProductResponse, error)
	Create(ctx context.Context, ownerID int64, req salesapp.CreateSaleRequest) (*salesapp.SaleResponse, error)
	GetByID(ctx context.Context, ownerID, saleID int64) (*salesapp.SaleResponse, error)
	List(ctx context.Context, ownerID int64, page, pageSize int) (*salesapp.SaleListResponse, error)
	Update(ctx context.Context, ownerID, saleID int64, req salesapp.UpdateSaleRequest) (*salesapp.SaleResponse, error)
	Delete(ctx context.Context, ownerID, saleID int64) (*salesapp.DeleteSaleResponse, error)
}

// SaleHandler handles sale-related HTTP requests
type SaleHandler struct {
	BaseHandler
	saleService SaleService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// ListProducts returns the caller's products for the sale form, by name
// GET /sales/products
func (h *SaleHandler) ListProducts(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	products, err := h.saleService.ListProducts(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// Create records a sale and takes its quantities from stock
// POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req salesapp.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	sale, err := h.saleService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// List returns a page of sales, newest first
// GET /sales?page=
func (h *SaleHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	list, err := h.saleService.List(c.Request.Context(), ownerID, queryInt(c, "page"), 0)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// GetByID returns one sale with its items
// GET /sales/:id
func (h *SaleHandler) GetByID(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Update replaces a sale's items
// PATCH /sales/:id
func (h *SaleHandler) Update(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req salesapp.UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	sale, err := h.saleService.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Delete removes a sale and returns its quantities to stock
// DELETE /sales/:id
func (h *SaleHandler) Delete(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.saleService.Delete(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
