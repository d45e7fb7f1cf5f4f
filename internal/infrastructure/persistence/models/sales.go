package models

import (
	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/sales"
)

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	OwnedModel
	Total decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Items []SaleItemModel `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// SaleItemModel is the persistence model for a sale line.
type SaleItemModel struct {
	BaseModel
	SaleID    int64           `gorm:"not null;index"`
	ProductID int64           `gorm:"not null;index"`
	Quantity  int             `gorm:"not null;check:chk_sale_items_quantity_positive,quantity > 0"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Product   *ProductModel   `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the persistence model to a domain Sale. Items and their
// products are included when they were preloaded.
func (m *SaleModel) ToDomain() *sales.Sale {
	s := &sales.Sale{
		Total: m.Total,
		Items: make([]sales.SaleItem, len(m.Items)),
	}
	m.PopulateOwnedAggregateRoot(&s.OwnedAggregateRoot)
	for i := range m.Items {
		s.Items[i] = m.Items[i].ToDomain()
	}
	return s
}

// FromDomain populates the persistence model from a domain Sale, items included.
func (m *SaleModel) FromDomain(s *sales.Sale) {
	m.FromDomainOwnedAggregateRoot(s.OwnedAggregateRoot)
	m.Total = s.Total
	m.Items = SaleItemModelsFromDomain(s.Items)
}

// SaleModelFromDomain creates a new persistence model from a domain Sale.
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}

// ToDomain converts the persistence model to a domain SaleItem.
func (m *SaleItemModel) ToDomain() sales.SaleItem {
	item := sales.SaleItem{
		ID:        m.ID,
		SaleID:    m.SaleID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
	}
	if m.Product != nil {
		item.Product = m.Product.ToDomain()
	}
	return item
}

// SaleItemModelsFromDomain converts sale lines, leaving ids for the store to assign
// when they are zero.
func SaleItemModelsFromDomain(items []sales.SaleItem) []SaleItemModel {
	out := make([]SaleItemModel, len(items))
	for i, item := range items {
		out[i] = SaleItemModel{
			BaseModel: BaseModel{ID: item.ID},
			SaleID:    item.SaleID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return out
}

// AllModels lists every model, in dependency order, for schema creation in tests
// and for AutoMigrate in development.
func AllModels() []any {
	return []any{
		&UserModel{},
		&ProductModel{},
		&SaleModel{},
		&SaleItemModel{},
	}
}
