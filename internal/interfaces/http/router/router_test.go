package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	catalogapp "github.com/stockflow/backend/internal/application/catalog"
	dashboardapp "github.com/stockflow/backend/internal/application/dashboard"
	identityapp "github.com/stockflow/backend/internal/application/identity"
	salesapp "github.com/stockflow/backend/internal/application/sales"
	"github.com/stockflow/backend/internal/infrastructure/auth"
	"github.com/stockflow/backend/internal/infrastructure/cache"
	"github.com/stockflow/backend/internal/infrastructure/config"
	"github.com/stockflow/backend/internal/infrastructure/persistence"
	"github.com/stockflow/backend/internal/infrastructure/persistence/models"
	"github.com/stockflow/backend/internal/infrastructure/telemetry"
	"github.com/stockflow/backend/internal/interfaces/http/dto"
	"github.com/stockflow/backend/internal/interfaces/http/handler"
	"github.com/stockflow/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func TestRouter_UseAppliesToAPIGroupOnly(t *testing.T) {
	engine := gin.New()
	engine.GET("/outside", func(c *gin.Context) { c.Status(http.StatusOK) })

	r := NewRouter(engine, WithAPIVersion("v2"))
	r.Use(func(c *gin.Context) {
		c.Header("X-Group", "api")
		c.Next()
	})
	r.Register(NewDomainGroup("things", "/things").GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	}))
	r.Setup()

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/things/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
	assert.Equal(t, "api", rec.Header().Get("X-Group"))

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/outside", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Group"))
}

func TestDomainGroup_NestedGroupsAndMiddleware(t *testing.T) {
	engine := gin.New()
	calls := 0

	group := NewDomainGroup("parent", "/parent").Use(func(c *gin.Context) {
		calls++
		c.Next()
	})
	group.Group("child", "/child").
		PATCH("/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) }).
		DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r := NewRouter(engine)
	r.Register(group)
	r.Setup()

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/parent/child/9", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "9", rec.Body.String())

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/parent/child/9", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "parent", group.Name())
	assert.Equal(t, "/parent", group.Prefix())
}

// testApp is the full engine over an in-memory SQLite store
type testApp struct {
	engine *gin.Engine
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	database, err := persistence.OpenDatabase(sqlite.Open("file::memory:?_foreign_keys=on"), nil)
	require.NoError(t, err)
	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.DB.AutoMigrate(models.AllModels()...))
	t.Cleanup(func() { _ = database.Close() })

	db := database.DB
	summaries := cache.NewInMemorySummaryCache(time.Minute)
	invalidator := cache.NewSummaryInvalidator(summaries, time.Second, nil)
	jwtService := auth.NewJWTService(config.JWTConfig{Secret: "router-test-secret", Expiration: time.Hour, Issuer: "test"})
	metrics := telemetry.NewMetrics("test")

	saleService := salesapp.NewSaleService(
		persistence.NewGormTransactionScope(db),
		persistence.NewGormSaleRepository(db),
		persistence.NewGormProductRepository(db),
		invalidator,
		nil,
	)
	saleService.SetMetrics(metrics)

	handlers := Handlers{
		Auth: handler.NewAuthHandler(identityapp.NewAuthService(persistence.NewGormUserRepository(db), jwtService, nil)),
		Product: handler.NewProductHandler(catalogapp.NewProductService(
			persistence.NewGormProductRepository(db), invalidator, nil)),
		Sale: handler.NewSaleHandler(saleService),
		Dashboard: handler.NewDashboardHandler(dashboardapp.NewService(
			persistence.NewGormDashboardRepository(db), summaries, dashboardapp.DefaultConfig(), nil)),
		Health: handler.NewHealthHandler(database, "test"),
	}

	engine, err := NewEngine(EngineConfig{
		HTTP:    config.HTTPConfig{CORSAllowOrigins: []string{"http://localhost:3000"}},
		Tokens:  jwtService,
		Metrics: metrics,
	}, handlers)
	require.NoError(t, err)
	return &testApp{engine: engine}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, json.RawMessage, *dto.ErrorInfo) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *dto.ErrorInfo  `json:"error"`
	}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope.Data, envelope.Error
}

func (a *testApp) register(t *testing.T) string {
	t.Helper()

	rec, data, _ := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     gofakeit.Name(),
		"username": "user" + gofakeit.DigitN(8),
		"password": gofakeit.Password(true, true, true, false, false, 12),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result identityapp.AuthResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

func (a *testApp) createProduct(t *testing.T, token, price string, stock int) catalogapp.ProductResponse {
	t.Helper()

	rec, data, _ := a.do(t, http.MethodPost, "/api/v1/products", token, map[string]any{
		"name":          gofakeit.ProductName(),
		"sku":           "SKU-" + gofakeit.DigitN(8),
		"price":         json.Number(price),
		"stockQuantity": stock,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var product catalogapp.ProductResponse
	require.NoError(t, json.Unmarshal(data, &product))
	return product
}

func TestEngine_SaleLifecycle(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t)
	product := app.createProduct(t, token, "10.50", 5)

	line := func(qty int) map[string]any {
		return map[string]any{"items": []map[string]any{
			{"productId": product.ID, "quantity": qty, "price": json.Number("10.50")},
		}}
	}

	rec, data, _ := app.do(t, http.MethodPost, "/api/v1/sales", token, line(2))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sale salesapp.SaleResponse
	require.NoError(t, json.Unmarshal(data, &sale))
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(21)), sale.Total.String())
	require.Len(t, sale.Items, 1)

	rec, data, _ = app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", product.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reloaded catalogapp.ProductResponse
	require.NoError(t, json.Unmarshal(data, &reloaded))
	assert.Equal(t, 3, reloaded.StockQuantity)

	rec, _, errInfo := app.do(t, http.MethodPost, "/api/v1/sales", token, line(4))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, dto.ErrCodeInsufficientStock, errInfo.Code)

	rec, _, errInfo = app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", product.ID), token, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, dto.ErrCodeAlreadyExists, errInfo.Code)

	rec, data, _ = app.do(t, http.MethodGet, "/api/v1/dashboard/get", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		TotalProducts int64 `json:"totalProducts"`
		TotalSales    int64 `json:"totalSales"`
	}
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, int64(1), summary.TotalProducts)
	assert.Equal(t, int64(1), summary.TotalSales)

	rec, _, _ = app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/sales/%d", sale.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, data, _ = app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", product.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(data, &reloaded))
	assert.Equal(t, 5, reloaded.StockQuantity)
}

func TestEngine_OwnersAreIsolated(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t)
	bob := app.register(t)
	product := app.createProduct(t, alice, "3", 10)

	rec, _, errInfo := app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", product.ID), bob, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, dto.ErrCodeNotFound, errInfo.Code)

	rec, _, errInfo = app.do(t, http.MethodPost, "/api/v1/sales", bob, map[string]any{"items": []map[string]any{
		{"productId": product.ID, "quantity": 1, "price": 3},
	}})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, dto.ErrCodeForbidden, errInfo.Code)
}

func TestEngine_Authentication(t *testing.T) {
	app := newTestApp(t)

	rec, _, errInfo := app.do(t, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, errInfo.Code)

	rec, _, errInfo = app.do(t, http.MethodGet, "/api/v1/sales", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenInvalid, errInfo.Code)

	rec, _, errInfo = app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "nobody", "password": "whatever",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeInvalidCredentials, errInfo.Code)
}

func TestEngine_OperationalRoutes(t *testing.T) {
	app := newTestApp(t)

	rec, _, _ := app.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	rec, _, errInfo := app.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, dto.ErrCodeRouteNotFound, errInfo.Code)

	rec, _, _ = app.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}

func TestEngine_CORSPreflight(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequestWithContext(context.Background(), http.MethodOptions, "/api/v1/products", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
