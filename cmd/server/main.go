package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	catalogapp "github.com/stockflow/backend/internal/application/catalog"
	dashboardapp "github.com/stockflow/backend/internal/application/dashboard"
	identityapp "github.com/stockflow/backend/internal/application/identity"
	salesapp "github.com/stockflow/backend/internal/application/sales"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/auth"
	"github.com/stockflow/backend/internal/infrastructure/cache"
	"github.com/stockflow/backend/internal/infrastructure/config"
	"github.com/stockflow/backend/internal/infrastructure/event"
	"github.com/stockflow/backend/internal/infrastructure/logger"
	"github.com/stockflow/backend/internal/infrastructure/migration"
	"github.com/stockflow/backend/internal/infrastructure/persistence"
	"github.com/stockflow/backend/internal/infrastructure/telemetry"
	"github.com/stockflow/backend/internal/interfaces/http/handler"
	"github.com/stockflow/backend/internal/interfaces/http/middleware"
	"github.com/stockflow/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Money is rendered as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// Bootstrap logger for telemetry setup; replaced once the OTLP core exists
	bootLog, err := logger.New(logger.FromAppConfig(cfg))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger provider", zap.Error(err))
	}

	log, err := logger.New(logger.FromAppConfig(cfg),
		loggerProvider.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting StockFlow backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.GormConfig{
		Level:         logger.MapGormLogLevel(cfg.Log.Level),
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
		FullSQL:       cfg.Telemetry.DBLogFullSQL,
	})
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	metrics := telemetry.NewMetrics(telemetry.DefaultNamespace)
	if cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.NewDBTracing(cfg.Telemetry, log).Register(db.DB); err != nil {
			log.Fatal("Failed to enable database tracing", zap.Error(err))
		}
	}
	if err := db.DB.Use(telemetry.NewDBMetricsPlugin(metrics)); err != nil {
		log.Fatal("Failed to enable database metrics", zap.Error(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access database pool", zap.Error(err))
	}
	if err := metrics.RegisterDBStats(sqlDB, cfg.Database.DBName); err != nil {
		log.Fatal("Failed to register database pool metrics", zap.Error(err))
	}

	if cfg.App.AutoMigrate {
		if err := runMigrations(db, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	summaryStore, err := cache.NewSummaryCacheFactory(cfg.Redis, cfg.Dashboard,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create dashboard cache", zap.Error(err))
	}
	invalidator := cache.NewSummaryInvalidator(summaryStore, cfg.Redis.OpTimeout, log)

	publisher, closePublisher := newEventPublisher(cfg.Kafka, log)

	jwtService := auth.NewJWTService(cfg.JWT)
	productRepo := persistence.NewGormProductRepository(db.DB)

	authService := identityapp.NewAuthService(persistence.NewGormUserRepository(db.DB), jwtService, log)
	productService := catalogapp.NewProductService(productRepo, invalidator, log)
	saleService := salesapp.NewSaleService(
		persistence.NewGormTransactionScope(db.DB),
		persistence.NewGormSaleRepository(db.DB),
		productRepo,
		invalidator,
		log,
	)
	saleService.SetEventPublisher(publisher)
	saleService.SetMetrics(metrics)
	dashboardService := dashboardapp.NewService(
		persistence.NewGormDashboardRepository(db.DB),
		summaryStore,
		dashboardapp.Config{
			CacheTTL:          cfg.Dashboard.CacheTTL,
			CacheTimeout:      cfg.Redis.OpTimeout,
			LowStockThreshold: cfg.Dashboard.LowStockThreshold,
		},
		log,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitBurst)
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine, err := router.NewEngine(router.EngineConfig{
		HTTP:        cfg.HTTP,
		Telemetry:   cfg.Telemetry,
		Logger:      log,
		Tokens:      jwtService,
		Metrics:     metrics,
		RateLimiter: rateLimiter,
	}, router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Product:   handler.NewProductHandler(productService),
		Sale:      handler.NewSaleHandler(saleService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Health:    handler.NewHealthHandler(db, version),
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if rateLimiter != nil {
		rateLimiter.Stop()
	}
	if err := closePublisher(); err != nil {
		log.Error("Error closing event publisher", zap.Error(err))
	}
	if err := summaryStore.Close(); err != nil {
		log.Error("Error closing dashboard cache", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited")
}

// runMigrations applies the embedded SQL migrations
func runMigrations(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, "", log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the shared pool
	return m.Up()
}

// newEventPublisher returns the Kafka publisher when enabled, otherwise a no-op.
// The returned func closes whatever was created.
func newEventPublisher(cfg config.KafkaConfig, log *zap.Logger) (shared.EventPublisher, func() error) {
	if !cfg.Enabled {
		log.Info("Kafka disabled, sale events are not published")
		return shared.NoopEventPublisher{}, func() error { return nil }
	}

	writer, err := event.NewKafkaWriter(cfg)
	if err != nil {
		log.Fatal("Failed to create Kafka writer", zap.Error(err))
	}
	publisher := event.NewKafkaEventPublisher(writer, event.NewSaleEventSerializer(), log)
	log.Info("Publishing sale events to Kafka",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)
	return publisher, publisher.Close
}
