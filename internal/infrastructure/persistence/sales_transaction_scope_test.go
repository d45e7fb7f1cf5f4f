package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	appsales "github.com/stockflow/backend/internal/application/sales"
	"github.com/stockflow/backend/internal/domain/catalog"
	"github.com/stockflow/backend/internal/domain/sales"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSaleService(db *gorm.DB) *appsales.SaleService {
	return appsales.NewSaleService(
		NewGormTransactionScope(db),
		NewGormSaleRepository(db),
		NewGormProductRepository(db),
		nil,
		nil,
	)
}

func itemInput(product *catalog.Product, quantity int, price string) appsales.SaleItemInput {
	return appsales.SaleItemInput{
		ProductID: product.ID,
		Quantity:  quantity,
		Price:     decimal.RequireFromString(price),
	}
}

func countSales(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.SaleModel{}).Count(&n).Error)
	return n
}

func TestGormTransactionScope_RollsBack(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	product := seedProduct(t, db, 1, "1", 5)
	scope := NewGormTransactionScope(db)

	t.Run("on error", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos appsales.TransactionalRepositories) error {
			require.NoError(t, repos.StockRepo().DecrementStock(ctx, 1, product.ID, 2))
			return assert.AnError
		})

		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 5, stockOf(t, db, product.ID))
	})

	t.Run("on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = scope.Execute(ctx, func(repos appsales.TransactionalRepositories) error {
				require.NoError(t, repos.StockRepo().DecrementStock(ctx, 1, product.ID, 2))
				panic("boom")
			})
		})

		assert.Equal(t, 5, stockOf(t, db, product.ID))
	})

	t.Run("commits on success", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos appsales.TransactionalRepositories) error {
			return repos.StockRepo().DecrementStock(ctx, 1, product.ID, 2)
		})

		require.NoError(t, err)
		assert.Equal(t, 3, stockOf(t, db, product.ID))
	})
}

func TestSaleWorkflow_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements stock and totals the lines", func(t *testing.T) {
		db := newSQLiteDB(t)
		svc := newSaleService(db)
		a := seedProduct(t, db, 1, "10", 10)
		b := seedProduct(t, db, 1, "4", 3)

		resp, err := svc.Create(ctx, 1, appsales.CreateSaleRequest{Items: []appsales.SaleItemInput{
			itemInput(a, 2, "10"),
			itemInput(b, 3, "4.5"),
		}})

		require.NoError(t, err)
		assert.True(t, resp.Total.Equal(decimal.RequireFromString("33.5")), "total was %s", resp.Total)
		require.Len(t, resp.Items, 2)
		require.NotNil(t, resp.Items[0].Product)
		assert.Equal(t, 8, stockOf(t, db, a.ID))
		assert.Equal(t, 0, stockOf(t, db, b.ID))
	})

	t.Run("empty sale writes nothing", func(t *testing.T) {
		db := newSQLiteDB(t)
		svc := newSaleService(db)

		_, err := svc.Create(ctx, 1, appsales.CreateSaleRequest{})

		assert.ErrorIs(t, err, sales.ErrEmptySale)
		assert.Zero(t, countSales(t, db))
	})

	t.Run("foreign product is forbidden and leaves stock alone", func(t *testing.T) {
		db := newSQLiteDB(t)
		svc := newSaleService(db)
		mine := seedProduct(t, db, 1, "1", 5)
		theirs := seedProduct(t, db, 2, "1", 5)

		_, err := svc.Create(ctx, 1, appsales.CreateSaleRequest{Items: []appsales.SaleItemInput{
			itemInput(mine, 1, "1"),
			itemInput(theirs, 1, "1"),
		}})

		assert.ErrorIs(t, err, sales.ErrForbiddenProduct)
		assert.Equal(t, 5, stockOf(t, db, mine.ID))
		assert.Equal(t, 5, stockOf(t, db, theirs.ID))
		assert.Zero(t, countSales(t, db))
	})

	t.Run("partial insufficiency rolls back every line", func(t *testing.T) {
		db := newSQLiteDB(t)
		svc := newSaleService(db)
		a := seedProduct(t, db, 1, "1", 5)
		b := seedProduct(t, db, 1, "1", 5)

		// Each line fits on its own; together the two b lines exceed the stock,
		// so the guarded decrement fails after the sale row was written.
		_, err := svc.Create(ctx, 1, appsales.CreateSaleRequest{Items: []appsales.SaleItemInput{
			itemInput(a, 2, "1"),
			itemInput(b, 3, "1"),
			itemInput(b, 3, "1"),
		}})

		var stockErr *sales.InsufficientStockError
		require.True(t, errors.As(err, &stockErr), "got %v", err)
		assert.Equal(t, b.ID, stockErr.ProductID)
		assert.Equal(t, 6, stockErr.Requested)
		assert.Equal(t, 5, stockErr.Available)
		assert.Equal(t, 5, stockOf(t, db, a.ID))
		assert.Equal(t, 5, stockOf(t, db, b.ID))
		assert.Zero(t, countSales(t, db))
	})

	// The single sqlite connection runs these one after the other, so the
	// loser is turned away by the stock check. Racing transactions against the
	// guarded decrement are covered by TestPostgres_SaleWorkflow.
	t.Run("competing sales of the last unit", func(t *testing.T) {
		db := newSQLiteDB(t)
		svc := newSaleService(db)
		product := seedProduct(t, db, 1, "1", 1)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			shortfall int
		)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Create(ctx, 1, appsales.CreateSaleRequest{Items: []appsales.SaleItemInput{
					itemInput(product, 1, "1"),
				}})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, shared.ErrInsufficientStock):
					shortfall++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, 1, shortfall)
		assert.Equal(t, 0, stockOf(t, db, product.ID))
		assert.Equal(t, int64(1), countSales(t, db))
	})
}

func TestSaleWorkflow_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	svc := newSaleService(db)
	a := seedProduct(t, db, 1, "2", 10)
	b := seedProduct(t, db, 1, "3", 10)

	created, err := svc.Create(ctx, 1, appsales.CreateSaleRequest{Items: []appsales.SaleItemInput{
		itemInput(a, 4, "2"),
	}})
	require.NoError(t, err)
	require.Equal(t, 6, stockOf(t, db, a.ID))

	t.Run("repeated updates track the current items", func(t *testing.T) {
		_, err := svc.Update(ctx, 1, created.ID, appsales.UpdateSaleRequest{Items: []appsales.SaleItemInput{
			itemInput(a, 1, "2"),
			itemInput(b, 2, "3"),
		}})
		require.NoError(t, err)

		updated, err := svc.Update(ctx, 1, created.ID, appsales.UpdateSaleRequest{Items: []appsales.SaleItemInput{
			itemInput(b, 5, "3"),
		}})
		require.NoError(t, err)

		assert.Equal(t, 10, stockOf(t, db, a.ID))
		assert.Equal(t, 5, stockOf(t, db, b.ID))
		assert.True(t, updated.Total.Equal(decimal.NewFromInt(15)), "total was %s", updated.Total)
		require.Len(t, updated.Items, 1)
		assert.Equal(t, b.ID, updated.Items[0].ProductID)
	})

	t.Run("update may reuse the stock it gives back", func(t *testing.T) {
		// 5 of b are held by the sale and 5 are left: 10 fits only after the restore.
		updated, err := svc.Update(ctx, 1, created.ID, appsales.UpdateSaleRequest{Items: []appsales.SaleItemInput{
			itemInput(b, 10, "3"),
		}})
		require.NoError(t, err)

		assert.Equal(t, 0, stockOf(t, db, b.ID))
		assert.True(t, updated.Total.Equal(decimal.NewFromInt(30)))
	})

	t.Run("insufficient update keeps the old items", func(t *testing.T) {
		_, err := svc.Update(ctx, 1, created.ID, appsales.UpdateSaleRequest{Items: []appsales.SaleItemInput{
			itemInput(b, 11, "3"),
		}})

		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, 0, stockOf(t, db, b.ID))
		current, err := svc.GetByID(ctx, 1, created.ID)
		require.NoError(t, err)
		require.Len(t, current.Items, 1)
		assert.Equal(t, 10, current.Items[0].Quantity)
	})

	t.Run("other owners cannot touch the sale", func(t *testing.T) {
		_, err := svc.Delete(ctx, 2, created.ID)
		assert.ErrorIs(t, err, sales.ErrAccessDenied)
	})

	t.Run("delete restores stock", func(t *testing.T) {
		resp, err := svc.Delete(ctx, 1, created.ID)
		require.NoError(t, err)
		assert.Equal(t, appsales.SaleDeletedMessage, resp.Message)

		assert.Equal(t, 10, stockOf(t, db, a.ID))
		assert.Equal(t, 10, stockOf(t, db, b.ID))

		_, err = svc.GetByID(ctx, 1, created.ID)
		assert.ErrorIs(t, err, sales.ErrSaleNotFound)
	})
}

func TestSaleWorkflow_List(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	svc := newSaleService(db)
	product := seedProduct(t, db, 1, "1", 100)

	for i := 0; i < 10; i++ {
		_, err := svc.Create(ctx, 1, appsales.CreateSaleRequest{Items: []appsales.SaleItemInput{
			itemInput(product, 1, "1"),
		}})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, 1, 1, 8)
	require.NoError(t, err)

	assert.Len(t, page.Data, 8)
	assert.Equal(t, int64(10), page.Meta.Total)
	assert.Equal(t, 1, page.Meta.Page)
	assert.Equal(t, 2, page.Meta.LastPage)
}
