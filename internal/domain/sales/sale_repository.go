package sales

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/catalog"
	"github.com/stockflow/backend/internal/domain/shared"
)

// SaleRepository defines the interface for sale persistence.
// All methods compose inside one transaction when the repository is bound to it.
type SaleRepository interface {
	// FindByIDWithItems loads a sale with its items and their products.
	// Returns shared.ErrNotFound when absent.
	FindByIDWithItems(ctx context.Context, id int64) (*Sale, error)

	// FindByIDForUpdate is FindByIDWithItems holding a row lock on the sale
	// until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id int64) (*Sale, error)

	// FindAllForOwner returns one page of the owner's sales, newest first, with items and products
	FindAllForOwner(ctx context.Context, ownerID int64, filter shared.Filter) ([]Sale, error)

	// CountForOwner counts the owner's sales
	CountForOwner(ctx context.Context, ownerID int64) (int64, error)

	// Create inserts the sale row and its items, assigning ids
	Create(ctx context.Context, sale *Sale) error

	// CreateItems inserts items for an existing sale
	CreateItems(ctx context.Context, items []SaleItem) error

	// DeleteItems removes every item of the sale
	DeleteItems(ctx context.Context, saleID int64) error

	// UpdateTotal stores a recomputed total
	UpdateTotal(ctx context.Context, saleID int64, total decimal.Decimal) error

	// Delete removes the sale row
	Delete(ctx context.Context, saleID int64) error
}

// StockRepository is the product store as seen by the sales workflow
type StockRepository interface {
	// FindByOwnerAndIDs returns the products among ids that belong to ownerID
	FindByOwnerAndIDs(ctx context.Context, ownerID int64, ids []int64) ([]catalog.Product, error)

	// DecrementStock takes quantity units from the product only if enough are left.
	// Returns shared.ErrInsufficientStock when the guard rejects the update.
	DecrementStock(ctx context.Context, ownerID, productID int64, quantity int) error

	// IncrementStock gives quantity units back to the product
	IncrementStock(ctx context.Context, productID int64, quantity int) error
}
