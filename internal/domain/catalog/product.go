package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/shared"
)

// LowStockThreshold is the stock level below which a product is reported as low stock.
const LowStockThreshold = 5

// Product represents a sellable item owned by one user.
// Stock is a single pool per product; StockQuantity never goes negative.
type Product struct {
	shared.OwnedAggregateRoot
	Name          string
	SKU           string
	Price         decimal.Decimal
	StockQuantity int
}

// NewProduct creates a new product
func NewProduct(ownerID int64, name, sku string, price decimal.Decimal, stock int) (*Product, error) {
	if ownerID <= 0 {
		return nil, shared.NewValidationError("Owner is required")
	}
	name = strings.TrimSpace(name)
	sku = strings.TrimSpace(sku)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if err := validateStock(stock); err != nil {
		return nil, err
	}

	product := &Product{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Name:               name,
		SKU:                sku,
		Price:              price,
		StockQuantity:      stock,
	}
	return product, nil
}

// ProductChanges carries a partial update; nil fields are left untouched.
type ProductChanges struct {
	Name          *string
	SKU           *string
	Price         *decimal.Decimal
	StockQuantity *int
}

// SKUChanged reports whether the changes set a SKU different from current
func (c ProductChanges) SKUChanged(current string) bool {
	return c.SKU != nil && strings.TrimSpace(*c.SKU) != current
}

// Apply validates and applies changes. Nothing is modified when any field is invalid.
func (p *Product) Apply(c ProductChanges) error {
	name, sku, price, stock := p.Name, p.SKU, p.Price, p.StockQuantity
	if c.Name != nil {
		name = strings.TrimSpace(*c.Name)
		if err := validateName(name); err != nil {
			return err
		}
	}
	if c.SKU != nil {
		sku = strings.TrimSpace(*c.SKU)
		if err := validateSKU(sku); err != nil {
			return err
		}
	}
	if c.Price != nil {
		price = *c.Price
		if err := validatePrice(price); err != nil {
			return err
		}
	}
	if c.StockQuantity != nil {
		stock = *c.StockQuantity
		if err := validateStock(stock); err != nil {
			return err
		}
	}

	p.Name, p.SKU, p.Price, p.StockQuantity = name, sku, price, stock
	p.Touch()
	return nil
}

// HasStock reports whether quantity units can be taken from the product
func (p *Product) HasStock(quantity int) bool {
	return quantity <= p.StockQuantity
}

// IsLowStock reports whether the product is under the low stock threshold
func (p *Product) IsLowStock() bool {
	return p.StockQuantity < LowStockThreshold
}

func validateName(name string) error {
	if name == "" {
		return shared.NewValidationError("Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewValidationError("Product name cannot exceed 200 characters")
	}
	return nil
}

func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewValidationError("Product SKU cannot be empty")
	}
	if len(sku) > 64 {
		return shared.NewValidationError("Product SKU cannot exceed 64 characters")
	}
	return nil
}

// PriceScale is the number of decimal places stored for prices and totals
const PriceScale int32 = 2

// FitsPriceScale reports whether price is stored without rounding
func FitsPriceScale(price decimal.Decimal) bool {
	return price.Equal(price.Truncate(PriceScale))
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewValidationError("Price cannot be negative")
	}
	if !FitsPriceScale(price) {
		return shared.NewValidationError("Price cannot have more than %d decimal places", PriceScale)
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return shared.NewValidationError("Stock quantity cannot be negative")
	}
	return nil
}
