package logger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(cfg GormConfig) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), cfg), recorded
}

func sqlOf(s string) func() (string, int64) {
	return func() (string, int64) { return s, 1 }
}

func TestNewGormLogger_DefaultSlowThreshold(t *testing.T) {
	l, _ := newObservedGormLogger(GormConfig{Level: gormlogger.Warn})
	assert.Equal(t, 200*time.Millisecond, l.cfg.SlowThreshold)
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	l, _ := newObservedGormLogger(GormConfig{Level: gormlogger.Info})
	changed, ok := l.LogMode(gormlogger.Error).(*GormLogger)
	require.True(t, ok)

	assert.Equal(t, gormlogger.Info, l.cfg.Level)
	assert.Equal(t, gormlogger.Error, changed.cfg.Level)
}

func TestGormLogger_TraceError(t *testing.T) {
	l, recorded := newObservedGormLogger(GormConfig{Level: gormlogger.Warn})
	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-sql")

	l.Trace(ctx, time.Now(), sqlOf("UPDATE products SET stock_quantity = stock_quantity - 1"), errors.New("deadlock"))

	entries := recorded.FilterMessage("SQL error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-sql", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "deadlock", entries[0].ContextMap()["error"])
}

func TestGormLogger_IgnoresRecordNotFound(t *testing.T) {
	l, recorded := newObservedGormLogger(GormConfig{Level: gormlogger.Info})

	l.Trace(context.Background(), time.Now(), sqlOf("SELECT 1"), gormlogger.ErrRecordNotFound)

	assert.Zero(t, recorded.Len())
}

func TestGormLogger_SlowQuery(t *testing.T) {
	l, recorded := newObservedGormLogger(GormConfig{Level: gormlogger.Warn, SlowThreshold: time.Millisecond})

	l.Trace(context.Background(), time.Now().Add(-time.Second), sqlOf("SELECT * FROM sales"), nil)

	entries := recorded.FilterMessage("Slow SQL").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestGormLogger_InfoLevelLogsStatementsAtDebug(t *testing.T) {
	l, recorded := newObservedGormLogger(GormConfig{Level: gormlogger.Info, SlowThreshold: time.Hour})

	l.Trace(context.Background(), time.Now(), sqlOf("SELECT 1"), nil)

	entries := recorded.FilterMessage("SQL").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
}

func TestGormLogger_TruncatesLongSQL(t *testing.T) {
	long := "SELECT " + strings.Repeat("x", 2*maxLoggedSQL)

	l, recorded := newObservedGormLogger(GormConfig{Level: gormlogger.Info, SlowThreshold: time.Hour})
	l.Trace(context.Background(), time.Now(), sqlOf(long), nil)
	logged := recorded.All()[0].ContextMap()["sql"].(string)
	assert.Len(t, logged, maxLoggedSQL+3)

	full, recordedFull := newObservedGormLogger(GormConfig{Level: gormlogger.Info, SlowThreshold: time.Hour, FullSQL: true})
	full.Trace(context.Background(), time.Now(), sqlOf(long), nil)
	assert.Equal(t, long, recordedFull.All()[0].ContextMap()["sql"])
}

func TestGormLogger_SilentLogsNothing(t *testing.T) {
	l, recorded := newObservedGormLogger(GormConfig{Level: gormlogger.Silent})

	l.Trace(context.Background(), time.Now(), sqlOf("SELECT 1"), errors.New("boom"))
	l.Error(context.Background(), "oops %d", 1)

	assert.Zero(t, recorded.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}
