package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/stockflow/backend/internal/infrastructure/config"
	"github.com/stockflow/backend/internal/infrastructure/logger"
	"github.com/stockflow/backend/internal/infrastructure/telemetry"
	"github.com/stockflow/backend/internal/interfaces/http/handler"
	"github.com/stockflow/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by NewEngine
type Handlers struct {
	Auth      *handler.AuthHandler
	Product   *handler.ProductHandler
	Sale      *handler.SaleHandler
	Dashboard *handler.DashboardHandler
	Health    *handler.HealthHandler
}

// EngineConfig carries what NewEngine needs besides the handlers
type EngineConfig struct {
	HTTP      config.HTTPConfig
	Telemetry config.TelemetryConfig
	Logger    *zap.Logger

	// Tokens validates bearer tokens on every /api/v1 route except auth
	Tokens middleware.TokenValidator

	// Metrics is optional; when set, requests are recorded and /metrics is served
	Metrics *telemetry.Metrics

	// RateLimiter is optional; the caller owns it and must Stop it
	RateLimiter *middleware.RateLimiter

	// TracerProvider defaults to the global provider
	TracerProvider trace.TracerProvider
}

// publicAPIPaths skip JWT authentication
var publicAPIPaths = []string{
	"/api/v1/auth/register",
	"/api/v1/auth/login",
}

// NewEngine builds the gin engine with the full middleware chain and every route
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			return nil, fmt.Errorf("set trusted proxies: %w", err)
		}
	} else if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("disable trusted proxies: %w", err)
	}

	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Enabled:        cfg.Telemetry.Enabled,
		TracerProvider: cfg.TracerProvider,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Metrics != nil {
		engine.Use(middleware.HTTPMetrics(cfg.Metrics))
	}
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodyBytes))
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	engine.NoRoute(middleware.NoRoute())
	engine.GET("/health", h.Health.Health)
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		Validator: cfg.Tokens,
		SkipPaths: publicAPIPaths,
		Logger:    log,
	}))
	r.Use(middleware.SpanAttributes())

	groups := []*DomainGroup{
		authRoutes(h.Auth),
		productRoutes(h.Product),
		saleRoutes(h.Sale),
		dashboardRoutes(h.Dashboard),
	}
	for _, g := range groups {
		r.Register(g)
		log.Debug("Registered route group", zap.String("group", g.Name()), zap.String("prefix", g.Prefix()))
	}
	r.Setup()

	return engine, nil
}

func authRoutes(h *handler.AuthHandler) *DomainGroup {
	return NewDomainGroup("auth", "/auth").
		POST("/register", h.Register).
		POST("/login", h.Login)
}

func productRoutes(h *handler.ProductHandler) *DomainGroup {
	return NewDomainGroup("products", "/products").
		GET("", h.List).
		POST("", h.Create).
		GET("/:id", h.GetByID).
		PATCH("/:id", h.Update).
		DELETE("/:id", h.Delete)
}

func saleRoutes(h *handler.SaleHandler) *DomainGroup {
	return NewDomainGroup("sales", "/sales").
		GET("/products", h.ListProducts).
		GET("", h.List).
		POST("", h.Create).
		GET("/:id", h.GetByID).
		PATCH("/:id", h.Update).
		DELETE("/:id", h.Delete)
}

func dashboardRoutes(h *handler.DashboardHandler) *DomainGroup {
	return NewDomainGroup("dashboard", "/dashboard").
		GET("/get", h.Get)
}
