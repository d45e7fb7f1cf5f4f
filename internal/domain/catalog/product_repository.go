package catalog

import (
	"context"

	"github.com/stockflow/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence.
// Every lookup is scoped to an owner; a product of another owner is reported as not found.
type ProductRepository interface {
	// FindByIDForOwner finds a product by ID within an owner's catalog
	FindByIDForOwner(ctx context.Context, ownerID, id int64) (*Product, error)

	// FindBySKU returns the owner's product with the given SKU, or shared.ErrNotFound
	FindBySKU(ctx context.Context, ownerID int64, sku string) (*Product, error)

	// FindAllForOwner returns one page of the owner's products ordered by id
	FindAllForOwner(ctx context.Context, ownerID int64, filter shared.Filter) ([]Product, error)

	// ListByName returns all of the owner's products ordered by name ascending
	ListByName(ctx context.Context, ownerID int64) ([]Product, error)

	// CountForOwner counts the owner's products
	CountForOwner(ctx context.Context, ownerID int64) (int64, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// DeleteForOwner deletes a product within an owner's catalog
	DeleteForOwner(ctx context.Context, ownerID, id int64) error
}

// ErrProductInUse is returned when deleting a product that sale items still reference
var ErrProductInUse = shared.NewConflictError("Product is referenced by existing sales")
