package models

import (
	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product domain entity.
// OwnerID is declared here rather than through OwnedModel so that it can lead
// the (owner_id, sku) unique index.
type ProductModel struct {
	BaseModel
	OwnerID       int64           `gorm:"not null;uniqueIndex:idx_products_owner_sku,priority:1"`
	Name          string          `gorm:"type:varchar(200);not null"`
	SKU           string          `gorm:"column:sku;type:varchar(64);not null;uniqueIndex:idx_products_owner_sku,priority:2"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	StockQuantity int             `gorm:"not null;default:0;check:chk_products_stock_non_negative,stock_quantity >= 0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		Name:          m.Name,
		SKU:           m.SKU,
		Price:         m.Price,
		StockQuantity: m.StockQuantity,
	}
	p.BaseEntity = m.BaseModel.ToDomain()
	p.OwnerID = m.OwnerID
	return p
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.OwnerID = p.OwnerID
	m.Name = p.Name
	m.SKU = p.SKU
	m.Price = p.Price
	m.StockQuantity = p.StockQuantity
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
