package sales

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/catalog"
	"github.com/stockflow/backend/internal/domain/shared"
)

// AggregateTypeSale is the aggregate type name for Sale
const AggregateTypeSale = "Sale"

// ItemRequest is one requested line of a sale: a product, how many units, and
// the unit price the caller wants to charge.
type ItemRequest struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// SaleItem is a persisted line of a sale. UnitPrice is a snapshot taken at
// sale time and never follows later product price changes.
type SaleItem struct {
	ID        int64
	SaleID    int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Product   *catalog.Product
}

// Subtotal returns quantity x unit price
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Sale is the aggregate root of the sales context.
// Total is always derived from Items.
type Sale struct {
	shared.OwnedAggregateRoot
	Total decimal.Decimal
	Items []SaleItem
}

// ProductQuantity is the total quantity of one product across a sale's lines
type ProductQuantity struct {
	ProductID int64
	Quantity  int
}

// NewSale creates a new, unsaved sale for ownerID from the requested lines.
// Stock is not checked here; see CheckAvailability.
func NewSale(ownerID int64, requested []ItemRequest) (*Sale, error) {
	if ownerID <= 0 {
		return nil, shared.NewValidationError("Owner is required")
	}
	if err := ValidateItemRequests(requested); err != nil {
		return nil, err
	}

	sale := &Sale{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
	}
	sale.setItems(requested)
	return sale, nil
}

// ReplaceItems swaps every line of the sale for the requested ones and
// recomputes the total. Lines are replaced wholesale, never diffed.
func (s *Sale) ReplaceItems(requested []ItemRequest) error {
	if err := ValidateItemRequests(requested); err != nil {
		return err
	}
	s.setItems(requested)
	s.Touch()
	return nil
}

func (s *Sale) setItems(requested []ItemRequest) {
	items := make([]SaleItem, 0, len(requested))
	for _, r := range requested {
		items = append(items, SaleItem{
			SaleID:    s.ID,
			ProductID: r.ProductID,
			Quantity:  r.Quantity,
			UnitPrice: r.UnitPrice,
		})
	}
	s.Items = items
	s.Total = CalculateTotal(items)
}

// AssignID sets the store generated id on the sale and its lines
func (s *Sale) AssignID(id int64) {
	s.ID = id
	for i := range s.Items {
		s.Items[i].SaleID = id
	}
}

// QuantitiesByProduct sums line quantities per product, ordered by product id.
// Stock updates are applied in this order so that concurrent sales lock
// product rows in the same sequence.
func (s *Sale) QuantitiesByProduct() []ProductQuantity {
	return sumByProduct(s.Items)
}

// CalculateTotal returns Σ quantity x unit price over items
func CalculateTotal(items []SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func sumByProduct(items []SaleItem) []ProductQuantity {
	byID := make(map[int64]int, len(items))
	for _, item := range items {
		byID[item.ProductID] += item.Quantity
	}
	out := make([]ProductQuantity, 0, len(byID))
	for id, qty := range byID {
		out = append(out, ProductQuantity{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// ValidateItemRequests checks the shape of requested lines: at least one line,
// positive product id, positive quantity, positive unit price in whole cents.
func ValidateItemRequests(requested []ItemRequest) error {
	if len(requested) == 0 {
		return ErrEmptySale
	}
	for i, r := range requested {
		if r.ProductID <= 0 {
			return shared.NewValidationError("Item %d: productId must be a positive integer", i+1)
		}
		if r.Quantity <= 0 {
			return shared.NewValidationError("Item %d: quantity must be a positive integer", i+1)
		}
		if !r.UnitPrice.IsPositive() {
			return shared.NewValidationError("Item %d: price must be a positive number", i+1)
		}
		if !catalog.FitsPriceScale(r.UnitPrice) {
			return shared.NewValidationError("Item %d: price cannot have more than %d decimal places", i+1, catalog.PriceScale)
		}
	}
	return nil
}
