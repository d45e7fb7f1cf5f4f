package sales

import (
	"context"

	"github.com/stockflow/backend/internal/domain/sales"
)

// TransactionScope provides transactional access to the sales and stock repositories.
// Everything done through the repositories handed to fn commits or rolls back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error (or panics) the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories bound to one transaction
type TransactionalRepositories interface {
	// SaleRepo returns the sale repository scoped to the current transaction
	SaleRepo() sales.SaleRepository
	// StockRepo returns the product stock repository scoped to the current transaction
	StockRepo() sales.StockRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// Used by tests that mock the repositories.
type NoOpTransactionScope struct {
	saleRepo  sales.SaleRepository
	stockRepo sales.StockRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(saleRepo sales.SaleRepository, stockRepo sales.StockRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{saleRepo: saleRepo, stockRepo: stockRepo}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// SaleRepo returns the sale repository.
func (s *NoOpTransactionScope) SaleRepo() sales.SaleRepository {
	return s.saleRepo
}

// StockRepo returns the stock repository.
func (s *NoOpTransactionScope) StockRepo() sales.StockRepository {
	return s.stockRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
