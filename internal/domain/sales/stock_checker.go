package sales

import (
	"fmt"

	"github.com/stockflow/backend/internal/domain/catalog"
	"github.com/stockflow/backend/internal/domain/shared"
)

// Errors produced while checking a sale against the owner's stock
var (
	ErrEmptySale        = shared.NewValidationError("Sale must have at least one item")
	ErrForbiddenProduct = shared.NewForbiddenError("One or more products do not belong to you")
	ErrSaleNotFound     = shared.NewNotFoundError("Sale not found")
	ErrAccessDenied     = shared.NewForbiddenError("Access denied")
)

// InsufficientStockError reports a line asking for more units than the product has.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Not enough stock for %q. You requested %d, but only %d available.",
		e.ProductName, e.Requested, e.Available)
}

// Unwrap exposes the error as an INSUFFICIENT_STOCK domain error carrying the detailed message
func (e *InsufficientStockError) Unwrap() error {
	return shared.NewDomainError(shared.CodeInsufficientStock, e.Error())
}

// NewProductNotFoundError reports a requested product missing from the candidate set
func NewProductNotFoundError(productID int64) error {
	return shared.NewNotFoundError("Product with ID %d not found", productID)
}

// CheckAvailability validates requested lines against the owner's candidate
// products, keyed by product id. It fails with:
//   - ErrEmptySale when nothing is requested
//   - ErrForbiddenProduct when the number of distinct requested ids differs
//     from the number of candidates owned by ownerID
//   - a not-found error when a line's product is missing from candidates
//   - *InsufficientStockError when a line asks for more than the stock
//
// It has no side effects.
func CheckAvailability(ownerID int64, requested []ItemRequest, candidates map[int64]*catalog.Product) error {
	if len(requested) == 0 {
		return ErrEmptySale
	}

	distinct := make(map[int64]struct{}, len(requested))
	for _, r := range requested {
		distinct[r.ProductID] = struct{}{}
	}
	owned := 0
	for id, p := range candidates {
		if _, wanted := distinct[id]; wanted && p != nil && p.IsOwnedBy(ownerID) {
			owned++
		}
	}
	if owned != len(distinct) {
		return ErrForbiddenProduct
	}

	for _, r := range requested {
		product, ok := candidates[r.ProductID]
		if !ok || product == nil {
			return NewProductNotFoundError(r.ProductID)
		}
		if !product.HasStock(r.Quantity) {
			return &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   r.Quantity,
				Available:   product.StockQuantity,
			}
		}
	}
	return nil
}

// IndexProducts keys products by id
func IndexProducts(products []catalog.Product) map[int64]*catalog.Product {
	out := make(map[int64]*catalog.Product, len(products))
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out
}
