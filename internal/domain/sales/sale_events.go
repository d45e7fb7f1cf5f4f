package sales

import (
	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/shared"
)

// Sale event types
const (
	EventTypeSaleCreated = "sale.created"
	EventTypeSaleUpdated = "sale.updated"
	EventTypeSaleDeleted = "sale.deleted"
)

// SaleEventItem is one line in a sale event payload
type SaleEventItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SaleEvent is emitted after a sale mutation commits
type SaleEvent struct {
	shared.BaseDomainEvent
	SaleID int64           `json:"sale_id"`
	Total  decimal.Decimal `json:"total"`
	Items  []SaleEventItem `json:"items"`
}

func newSaleEvent(eventType string, sale *Sale) *SaleEvent {
	items := make([]SaleEventItem, len(sale.Items))
	for i, item := range sale.Items {
		items[i] = SaleEventItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return &SaleEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeSale, sale.ID, sale.OwnerID),
		SaleID:          sale.ID,
		Total:           sale.Total,
		Items:           items,
	}
}

// NewSaleCreatedEvent creates a sale.created event
func NewSaleCreatedEvent(sale *Sale) *SaleEvent {
	return newSaleEvent(EventTypeSaleCreated, sale)
}

// NewSaleUpdatedEvent creates a sale.updated event
func NewSaleUpdatedEvent(sale *Sale) *SaleEvent {
	return newSaleEvent(EventTypeSaleUpdated, sale)
}

// NewSaleDeletedEvent creates a sale.deleted event. Items are the lines whose stock was restored.
func NewSaleDeletedEvent(sale *Sale) *SaleEvent {
	return newSaleEvent(EventTypeSaleDeleted, sale)
}
