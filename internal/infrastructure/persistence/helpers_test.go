package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/catalog"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newMockGormDB opens GORM on a sqlmock connection with the postgres dialector
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

// newSQLiteDB opens a private in-memory database with the full schema.
// One connection keeps every statement on the same in-memory database and
// serializes transactions the way row locks would.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := OpenDatabase(sqlite.Open("file::memory:?_foreign_keys=on"), nil)
	require.NoError(t, err)

	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.DB.AutoMigrate(models.AllModels()...))
	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

func seedUser(t *testing.T, db *gorm.DB) *identity.User {
	t.Helper()

	user := &identity.User{
		Name:         gofakeit.Name(),
		Username:     gofakeit.Username() + gofakeit.DigitN(6),
		PasswordHash: "$2a$10$" + gofakeit.LetterN(53),
	}
	require.NoError(t, NewGormUserRepository(db).Create(context.Background(), user))
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, ownerID int64, price string, stock int) *catalog.Product {
	t.Helper()

	product, err := catalog.NewProduct(ownerID, gofakeit.ProductName(), gofakeit.LetterN(4)+"-"+gofakeit.DigitN(6), decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Save(context.Background(), product))
	return product
}

func stockOf(t *testing.T, db *gorm.DB, productID int64) int {
	t.Helper()

	var model models.ProductModel
	require.NoError(t, db.First(&model, "id = ?", productID).Error)
	return model.StockQuantity
}
