package sales

import (
	"context"
	"errors"

	"github.com/stockflow/backend/internal/domain/catalog"
	"github.com/stockflow/backend/internal/domain/sales"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Mutation names reported to Metrics
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// SaleDeletedMessage is returned after a successful delete
const SaleDeletedMessage = "Sale deleted successfully"

// SaleService coordinates the sale workflow: every create, update and delete
// runs as one unit of work spanning the sale row, its items and product stock,
// followed by dashboard cache invalidation.
type SaleService struct {
	txScope        TransactionScope
	saleRepo       sales.SaleRepository
	productRepo    catalog.ProductRepository
	invalidator    CacheInvalidator
	eventPublisher shared.EventPublisher
	metrics        Metrics
	logger         *zap.Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(
	txScope TransactionScope,
	saleRepo sales.SaleRepository,
	productRepo catalog.ProductRepository,
	invalidator CacheInvalidator,
	logger *zap.Logger,
) *SaleService {
	if invalidator == nil {
		invalidator = noopInvalidator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		txScope:        txScope,
		saleRepo:       saleRepo,
		productRepo:    productRepo,
		invalidator:    invalidator,
		eventPublisher: shared.NoopEventPublisher{},
		metrics:        noopMetrics{},
		logger:         logger,
	}
}

// SetEventPublisher sets the publisher for sale events
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the mutation metrics recorder
func (s *SaleService) SetMetrics(metrics Metrics) {
	s.metrics = metrics
}

// ListProducts returns the owner's products ordered by name, for the sale form
func (s *SaleService) ListProducts(ctx context.Context, ownerID int64) ([]ProductResponse, error) {
	products, err := s.productRepo.ListByName(ctx, ownerID)
	if err != nil {
		return nil, s.internal(err, "Failed to fetch products")
	}
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out, nil
}

// Create records a new sale, taking its quantities from stock
func (s *SaleService) Create(ctx context.Context, ownerID int64, req CreateSaleRequest) (resp *SaleResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", OperationCreate,
		telemetry.WithAttribute(telemetry.SpanAttrOwnerID, ownerID),
		telemetry.WithAttribute(telemetry.SpanAttrItemCount, len(req.Items)))
	defer func() { s.finish(span, OperationCreate, err) }()

	sale, err := sales.NewSale(ownerID, ToItemRequests(req.Items))
	if err != nil {
		return nil, err
	}
	requested := ToItemRequests(req.Items)

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := s.checkAvailability(ctx, repos.StockRepo(), ownerID, requested); err != nil {
			return err
		}
		if err := repos.SaleRepo().Create(ctx, sale); err != nil {
			return err
		}
		return s.takeStock(ctx, repos.StockRepo(), sale)
	})
	if err != nil {
		return nil, s.internal(err, "Failed to create sale")
	}

	s.invalidator.Invalidate(ctx, ownerID)
	s.publish(ctx, sales.NewSaleCreatedEvent(sale))

	return s.reload(ctx, sale.ID)
}

// GetByID returns one of the owner's sales with items and products
func (s *SaleService) GetByID(ctx context.Context, ownerID, saleID int64) (*SaleResponse, error) {
	sale, err := s.findOwned(ctx, s.saleRepo.FindByIDWithItems, ownerID, saleID)
	if err != nil {
		return nil, err
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// List returns one page of the owner's sales, newest first
func (s *SaleService) List(ctx context.Context, ownerID int64, page, pageSize int) (*SaleListResponse, error) {
	filter := shared.Filter{Page: page, PageSize: pageSize}.Normalize()

	list, err := s.saleRepo.FindAllForOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, s.internal(err, "Failed to fetch sales")
	}
	total, err := s.saleRepo.CountForOwner(ctx, ownerID)
	if err != nil {
		return nil, s.internal(err, "Failed to fetch sales")
	}

	data := make([]SaleResponse, len(list))
	for i := range list {
		data[i] = ToSaleResponse(&list[i])
	}
	return &SaleListResponse{
		Data: data,
		Meta: ListMeta{
			Total:    total,
			Page:     filter.Page,
			LastPage: shared.LastPage(total, filter.PageSize),
		},
	}, nil
}

// Update replaces a sale's items. Old quantities go back to stock, the new
// lines are validated against the restored stock, then taken from it again.
// Without items the sale is returned unchanged.
func (s *SaleService) Update(ctx context.Context, ownerID, saleID int64, req UpdateSaleRequest) (resp *SaleResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", OperationUpdate,
		telemetry.WithAttribute(telemetry.SpanAttrOwnerID, ownerID), telemetry.WithAttribute(telemetry.SpanAttrSaleID, saleID),
		telemetry.WithAttribute(telemetry.SpanAttrItemCount, len(req.Items)))
	defer func() { s.finish(span, OperationUpdate, err) }()

	existing, err := s.findOwned(ctx, s.saleRepo.FindByIDWithItems, ownerID, saleID)
	if err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		resp := ToSaleResponse(existing)
		return &resp, nil
	}

	requested := ToItemRequests(req.Items)
	if err := sales.ValidateItemRequests(requested); err != nil {
		return nil, err
	}

	var updated *sales.Sale
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// The row lock makes a concurrent update or delete of this sale wait,
		// so the restore below always sees the committed lines.
		sale, err := s.findOwned(ctx, repos.SaleRepo().FindByIDForUpdate, ownerID, saleID)
		if err != nil {
			return err
		}
		if err := s.restoreStock(ctx, repos.StockRepo(), sale); err != nil {
			return err
		}
		if err := s.checkAvailability(ctx, repos.StockRepo(), ownerID, requested); err != nil {
			return err
		}
		if err := sale.ReplaceItems(requested); err != nil {
			return err
		}
		if err := repos.SaleRepo().DeleteItems(ctx, sale.ID); err != nil {
			return err
		}
		if err := repos.SaleRepo().CreateItems(ctx, sale.Items); err != nil {
			return err
		}
		if err := s.takeStock(ctx, repos.StockRepo(), sale); err != nil {
			return err
		}
		if err := repos.SaleRepo().UpdateTotal(ctx, sale.ID, sale.Total); err != nil {
			return err
		}
		updated = sale
		return nil
	})
	if err != nil {
		return nil, s.internal(err, "Failed to update sale")
	}

	s.invalidator.Invalidate(ctx, ownerID)
	s.publish(ctx, sales.NewSaleUpdatedEvent(updated))

	return s.reload(ctx, saleID)
}

// Delete removes a sale and gives its quantities back to stock
func (s *SaleService) Delete(ctx context.Context, ownerID, saleID int64) (resp *DeleteSaleResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", OperationDelete,
		telemetry.WithAttribute(telemetry.SpanAttrOwnerID, ownerID), telemetry.WithAttribute(telemetry.SpanAttrSaleID, saleID))
	defer func() { s.finish(span, OperationDelete, err) }()

	if _, err := s.findOwned(ctx, s.saleRepo.FindByIDWithItems, ownerID, saleID); err != nil {
		return nil, err
	}

	var deleted *sales.Sale
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		sale, err := s.findOwned(ctx, repos.SaleRepo().FindByIDForUpdate, ownerID, saleID)
		if err != nil {
			return err
		}
		if err := s.restoreStock(ctx, repos.StockRepo(), sale); err != nil {
			return err
		}
		if err := repos.SaleRepo().DeleteItems(ctx, sale.ID); err != nil {
			return err
		}
		if err := repos.SaleRepo().Delete(ctx, sale.ID); err != nil {
			return err
		}
		deleted = sale
		return nil
	})
	if err != nil {
		return nil, s.internal(err, "Failed to delete sale")
	}

	s.invalidator.Invalidate(ctx, ownerID)
	s.publish(ctx, sales.NewSaleDeletedEvent(deleted))

	return &DeleteSaleResponse{Message: SaleDeletedMessage}, nil
}

type saleLoader func(ctx context.Context, id int64) (*sales.Sale, error)

// findOwned loads a sale and enforces ownership
func (s *SaleService) findOwned(ctx context.Context, load saleLoader, ownerID, saleID int64) (*sales.Sale, error) {
	sale, err := load(ctx, saleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, sales.ErrSaleNotFound
		}
		return nil, s.internal(err, "Failed to fetch sale")
	}
	if !sale.IsOwnedBy(ownerID) {
		return nil, sales.ErrAccessDenied
	}
	return sale, nil
}

// checkAvailability loads the owner's candidate products and runs the stock checker
func (s *SaleService) checkAvailability(ctx context.Context, stock sales.StockRepository, ownerID int64, requested []sales.ItemRequest) error {
	products, err := stock.FindByOwnerAndIDs(ctx, ownerID, distinctProductIDs(requested))
	if err != nil {
		return err
	}
	return sales.CheckAvailability(ownerID, requested, sales.IndexProducts(products))
}

// takeStock applies the guarded decrement for every product of the sale.
// A rejected decrement is reported with the product's current stock.
func (s *SaleService) takeStock(ctx context.Context, stock sales.StockRepository, sale *sales.Sale) error {
	for _, q := range sale.QuantitiesByProduct() {
		err := stock.DecrementStock(ctx, sale.OwnerID, q.ProductID, q.Quantity)
		if err == nil {
			telemetry.AddEvent(trace.SpanFromContext(ctx), "stock_taken",
				telemetry.SpanAttrProductID, q.ProductID, telemetry.SpanAttrQuantity, q.Quantity)
			continue
		}
		if !errors.Is(err, shared.ErrInsufficientStock) {
			return err
		}
		return s.stockShortfall(ctx, stock, sale.OwnerID, q)
	}
	return nil
}

func (s *SaleService) stockShortfall(ctx context.Context, stock sales.StockRepository, ownerID int64, q sales.ProductQuantity) error {
	products, err := stock.FindByOwnerAndIDs(ctx, ownerID, []int64{q.ProductID})
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return sales.NewProductNotFoundError(q.ProductID)
	}
	return &sales.InsufficientStockError{
		ProductID:   q.ProductID,
		ProductName: products[0].Name,
		Requested:   q.Quantity,
		Available:   products[0].StockQuantity,
	}
}

func (s *SaleService) restoreStock(ctx context.Context, stock sales.StockRepository, sale *sales.Sale) error {
	for _, q := range sale.QuantitiesByProduct() {
		if err := stock.IncrementStock(ctx, q.ProductID, q.Quantity); err != nil {
			return err
		}
		telemetry.AddEvent(trace.SpanFromContext(ctx), "stock_restored",
			telemetry.SpanAttrProductID, q.ProductID, telemetry.SpanAttrQuantity, q.Quantity)
	}
	return nil
}

// reload fetches the committed sale for the response
func (s *SaleService) reload(ctx context.Context, saleID int64) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDWithItems(ctx, saleID)
	if err != nil {
		return nil, s.internal(err, "Failed to fetch sale")
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

func (s *SaleService) publish(ctx context.Context, event shared.DomainEvent) {
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish sale event",
			zap.String("event_type", event.EventType()),
			zap.Int64("sale_id", event.AggregateID()),
			zap.Error(err))
	}
}

// internal logs unexpected errors and hides them behind message; domain errors pass through
func (s *SaleService) internal(err error, message string) error {
	if !shared.IsDomainError(err) {
		s.logger.Error(message, zap.Error(err))
	}
	return shared.AsInternal(err, message)
}

// finish ends the mutation span and counts the outcome
func (s *SaleService) finish(span trace.Span, operation string, err error) {
	defer span.End()
	if err != nil {
		telemetry.RecordError(span, err)
	} else {
		telemetry.SetOK(span)
	}

	outcome := "ok"
	if err != nil {
		outcome = shared.CodeInternal
		var de *shared.DomainError
		if errors.As(err, &de) {
			outcome = de.Code
		}
	}
	s.metrics.ObserveMutation(operation, outcome)
}

func distinctProductIDs(requested []sales.ItemRequest) []int64 {
	seen := make(map[int64]struct{}, len(requested))
	ids := make([]int64, 0, len(requested))
	for _, r := range requested {
		if _, ok := seen[r.ProductID]; ok {
			continue
		}
		seen[r.ProductID] = struct{}{}
		ids = append(ids, r.ProductID)
	}
	return ids
}
