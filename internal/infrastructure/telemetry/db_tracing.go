package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/stockflow/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type queryStartKey struct{}

// DBTracing adds otelgorm spans to GORM statements and annotates them with
// rows affected and a slow-query event.
type DBTracing struct {
	slowThreshold time.Duration
	logFullSQL    bool
	logger        *zap.Logger
}

// NewDBTracing creates the database tracing registration from config
func NewDBTracing(cfg config.TelemetryConfig, logger *zap.Logger) *DBTracing {
	threshold := cfg.DBSlowQueryThresh
	if threshold <= 0 {
		threshold = 200 * time.Millisecond
	}
	return &DBTracing{slowThreshold: threshold, logFullSQL: cfg.DBLogFullSQL, logger: logger}
}

// Register installs the otelgorm plugin and the annotation callbacks on db
func (t *DBTracing) Register(db *gorm.DB) error {
	opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
	if !t.logFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	// annotate must run before otelgorm ends the span, so register first
	if err := t.registerCallbacks(db); err != nil {
		return err
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	t.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", t.logFullSQL),
		zap.Duration("slow_query_threshold", t.slowThreshold),
	)
	return nil
}

func (t *DBTracing) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("stockflow_trace:before_create", markQueryStart); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("stockflow_trace:before_query", markQueryStart); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("stockflow_trace:before_update", markQueryStart); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("stockflow_trace:before_delete", markQueryStart); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("stockflow_trace:before_row", markQueryStart); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("stockflow_trace:before_raw", markQueryStart); err != nil {
		return err
	}

	if err := cb.Create().After("gorm:create").Register("stockflow_trace:after_create", t.annotate); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("stockflow_trace:after_query", t.annotate); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("stockflow_trace:after_update", t.annotate); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("stockflow_trace:after_delete", t.annotate); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("stockflow_trace:after_row", t.annotate); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("stockflow_trace:after_raw", t.annotate)
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (t *DBTracing) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		RecordError(span, db.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > t.slowThreshold {
		span.SetAttributes(attribute.Bool("db.slow_query", true))
		AddEvent(span, "slow_query",
			"duration_ms", elapsed.Milliseconds(),
			"threshold_ms", t.slowThreshold.Milliseconds(),
		)
	}
}
