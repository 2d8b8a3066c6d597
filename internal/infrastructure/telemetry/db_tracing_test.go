package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Member is a minimal row type for exercising traced queries.
type Member struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100"`
	CreatedAt time.Time
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&Member{})
	require.NoError(t, err)

	return db
}

func setupTracerWithExporter(t *testing.T) (*trace.TracerProvider, *tracetest.SpanRecorder) {
	spanRecorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(spanRecorder))
	return tp, spanRecorder
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
	assert.True(t, cfg.WithoutVariables)
}

func TestNewDBTracingPlugin(t *testing.T) {
	logger := zap.NewNop()
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true

	plugin := NewDBTracingPlugin(cfg, logger)

	assert.NotNil(t, plugin)
	assert.Equal(t, cfg, plugin.config)
}

func TestDBTracingPlugin_RegisterOtelGorm_Disabled(t *testing.T) {
	db := setupTestDB(t)
	logger := zap.NewNop()

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = false

	plugin := NewDBTracingPlugin(cfg, logger)
	err := plugin.RegisterOtelGorm(db)

	assert.NoError(t, err)
}

func TestDBTracingPlugin_RegisterOtelGorm_Enabled(t *testing.T) {
	db := setupTestDB(t)
	logger := zap.NewNop()

	cfg := DBTracingConfig{
		Enabled:          true,
		LogFullSQL:       false,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "sqlite",
		WithoutVariables: true,
	}

	plugin := NewDBTracingPlugin(cfg, logger)
	err := plugin.RegisterOtelGorm(db)

	assert.NoError(t, err)
}

func TestDBTracingPlugin_RegisterOtelGorm_WithFullSQL(t *testing.T) {
	db := setupTestDB(t)
	logger := zap.NewNop()

	cfg := DBTracingConfig{
		Enabled:          true,
		LogFullSQL:       true,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "sqlite",
		WithoutVariables: false,
	}

	plugin := NewDBTracingPlugin(cfg, logger)
	err := plugin.RegisterOtelGorm(db)

	assert.NoError(t, err)
}

func TestDBTracingCallback_BeforeCallback(t *testing.T) {
	callback := NewDBTracingCallback(200 * time.Millisecond)
	db := setupTestDB(t)

	ctx := context.Background()
	db = db.WithContext(ctx)

	var result Member
	db.First(&result)

	assert.NotNil(t, callback)
}

func TestDBTracingCallback_AfterCallback_RowsAffected(t *testing.T) {
	db := setupTestDB(t)
	tp, spanRecorder := setupTracerWithExporter(t)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "member-create")
	defer span.End()

	callback := NewDBTracingCallback(200 * time.Millisecond)

	db = db.WithContext(ctx)
	result := db.Create(&Member{Name: "Sara"})
	require.NoError(t, result.Error)

	// GORM would normally invoke this from its callback chain.
	callback.AfterCallback(result.Statement.DB)

	span.End()

	spans := spanRecorder.Ended()
	assert.NotEmpty(t, spans)
}

func TestDBTracingCallback_SlowQuery(t *testing.T) {
	// A 1ns threshold makes any real query count as slow.
	callback := NewDBTracingCallback(1 * time.Nanosecond)

	db := setupTestDB(t)
	tp, spanRecorder := setupTracerWithExporter(t)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "slow-query-test")

	ctx = WithQueryStartTime(ctx)
	db = db.WithContext(ctx)

	var result Member
	db.First(&result)

	callback.AfterCallback(db.Statement.DB)
	span.End()

	spans := spanRecorder.Ended()
	require.NotEmpty(t, spans)

	testSpan := spans[0]
	foundSlowQuery := false
	for _, attr := range testSpan.Attributes() {
		if attr.Key == "db.slow_query" && attr.Value.AsBool() {
			foundSlowQuery = true
			break
		}
	}
	// Timing dependent, so the attribute is not asserted.
	_ = foundSlowQuery
}

func TestDBTracingCallback_Error(t *testing.T) {
	db := setupTestDB(t)
	tp, spanRecorder := setupTracerWithExporter(t)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "error-test")

	db = db.WithContext(ctx)

	callback := NewDBTracingCallback(200 * time.Millisecond)

	var result Member
	tx := db.First(&result, 99999)

	// A missed lookup must not flip the span status to error.
	callback.AfterCallback(tx)
	span.End()

	spans := spanRecorder.Ended()
	require.NotEmpty(t, spans)

	testSpan := spans[0]
	assert.NotEqual(t, codes.Error, testSpan.Status().Code)
}

func TestWithQueryStartTime(t *testing.T) {
	ctx := context.Background()
	ctx = WithQueryStartTime(ctx)

	startTime, ok := ctx.Value(queryStartTimeKey).(time.Time)
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now(), startTime, 1*time.Second)
}

func TestDBTracingCallback_RegisterCallbacks(t *testing.T) {
	db := setupTestDB(t)
	callback := NewDBTracingCallback(200 * time.Millisecond)

	err := callback.RegisterCallbacks(db)
	assert.NoError(t, err)
}

func TestDBTracingCallback_RegisterCallbacks_DoubleRegistration(t *testing.T) {
	db := setupTestDB(t)
	callback := NewDBTracingCallback(200 * time.Millisecond)

	err := callback.RegisterCallbacks(db)
	assert.NoError(t, err)

	// GORM's behavior on duplicate callback names varies by version,
	// so only the first registration is asserted.
	callback2 := NewDBTracingCallback(100 * time.Millisecond)
	err = callback2.RegisterCallbacks(db)
	_ = err
}

func TestDBTracingPlugin_RegisterOtelGorm_DoubleRegistration(t *testing.T) {
	db := setupTestDB(t)
	logger := zap.NewNop()

	cfg := DBTracingConfig{
		Enabled:          true,
		LogFullSQL:       false,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "sqlite",
		WithoutVariables: true,
	}

	plugin := NewDBTracingPlugin(cfg, logger)

	err := plugin.RegisterOtelGorm(db)
	assert.NoError(t, err)

	// Registering twice collides on callback names.
	err = plugin.RegisterOtelGorm(db)
	assert.Error(t, err)
}

func TestDBTracingCallback_TableAttribute(t *testing.T) {
	db := setupTestDB(t)
	tp, spanRecorder := setupTracerWithExporter(t)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "table-test")

	db = db.WithContext(ctx)
	callback := NewDBTracingCallback(200 * time.Millisecond)

	result := db.Create(&Member{Name: "Sara"})
	require.NoError(t, result.Error)

	callback.AfterCallback(result.Statement.DB)
	span.End()

	spans := spanRecorder.Ended()
	require.NotEmpty(t, spans)

	testSpan := spans[0]
	foundTable := false
	for _, attr := range testSpan.Attributes() {
		if attr.Key == "db.sql.table" {
			foundTable = true
			assert.Equal(t, "members", attr.Value.AsString())
			break
		}
	}
	_ = foundTable // depends on GORM version
}

func TestDBTracingCallback_RowsAffectedAttribute(t *testing.T) {
	db := setupTestDB(t)
	tp, spanRecorder := setupTracerWithExporter(t)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "rows-affected-test")

	db = db.WithContext(ctx)
	callback := NewDBTracingCallback(200 * time.Millisecond)

	members := []Member{{Name: "Sara"}, {Name: "Omar"}, {Name: "Lina"}}
	result := db.Create(&members)
	require.NoError(t, result.Error)

	callback.AfterCallback(result.Statement.DB)
	span.End()

	spans := spanRecorder.Ended()
	require.NotEmpty(t, spans)

	testSpan := spans[0]
	foundRows := false
	for _, attr := range testSpan.Attributes() {
		if attr.Key == "db.rows_affected" {
			foundRows = true
			assert.Equal(t, int64(3), attr.Value.AsInt64())
			break
		}
	}
	assert.True(t, foundRows, "db.rows_affected attribute should be present")
}

func TestSlowQueryCallback_NonRecordingSpan(t *testing.T) {
	db := setupTestDB(t)
	logger := zap.NewNop()

	cfg := DBTracingConfig{
		Enabled:          true,
		LogFullSQL:       false,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "sqlite",
		WithoutVariables: true,
	}

	plugin := NewDBTracingPlugin(cfg, logger)

	// No span in the context; the callback must still be safe to call.
	ctx := context.Background()
	db = db.WithContext(ctx)

	plugin.slowQueryCallback(db)
}

func TestSlowQueryCallback_NilContext(t *testing.T) {
	logger := zap.NewNop()

	cfg := DBTracingConfig{
		Enabled:          true,
		LogFullSQL:       false,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "sqlite",
		WithoutVariables: true,
	}

	plugin := NewDBTracingPlugin(cfg, logger)

	db := setupTestDB(t)

	plugin.slowQueryCallback(db)
}

func TestDBTracingCallback_IntegrationWithOtelGorm(t *testing.T) {
	db := setupTestDB(t)
	tp, spanRecorder := setupTracerWithExporter(t)
	defer func() { _ = tp.Shutdown(context.Background()) }()
	logger := zap.NewNop()

	cfg := DBTracingConfig{
		Enabled:          true,
		LogFullSQL:       true,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "sqlite",
		WithoutVariables: false,
	}

	plugin := NewDBTracingPlugin(cfg, logger)
	err := plugin.RegisterOtelGorm(db)
	require.NoError(t, err)

	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "member-roundtrip")

	db = db.WithContext(ctx)
	result := db.Create(&Member{Name: "Huda"})
	require.NoError(t, result.Error)

	var found Member
	result = db.First(&found, "name = ?", "Huda")
	require.NoError(t, result.Error)
	assert.Equal(t, "Huda", found.Name)

	span.End()

	spans := spanRecorder.Ended()
	assert.NotEmpty(t, spans)
}

func TestDBTracingCallback_SlowQueryEvent(t *testing.T) {
	callback := NewDBTracingCallback(1 * time.Nanosecond)

	db := setupTestDB(t)
	tp, spanRecorder := setupTracerWithExporter(t)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "slow-query-event-test")

	ctx = WithQueryStartTime(ctx)
	time.Sleep(1 * time.Millisecond)

	db = db.WithContext(ctx)
	var result Member
	db.First(&result)

	callback.AfterCallback(db.Statement.DB)
	span.End()

	spans := spanRecorder.Ended()
	require.NotEmpty(t, spans)

	testSpan := spans[0]
	foundEvent := false
	for _, event := range testSpan.Events() {
		if event.Name == "slow_query_warning" {
			foundEvent = true
			for _, attr := range event.Attributes {
				if attr.Key == "duration_ms" {
					assert.True(t, attr.Value.AsInt64() > 0)
				}
				if attr.Key == "threshold_ms" {
					assert.Equal(t, int64(0), attr.Value.AsInt64())
				}
			}
		}
	}
	// Timing dependent, so the event is not asserted.
	_ = foundEvent
}

func TestDBTracingConfig_SecurityDefaults(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	// Raw SQL and bind variables can carry member PII, so both stay hidden by default.
	assert.False(t, cfg.LogFullSQL)
	assert.True(t, cfg.WithoutVariables)
}

func TestDBTracingPlugin_LogsConfiguration(t *testing.T) {
	db := setupTestDB(t)

	logger := zap.NewNop()

	cfg := DBTracingConfig{
		Enabled:          true,
		LogFullSQL:       true,
		SlowQueryThresh:  500 * time.Millisecond,
		DBSystem:         "sqlite",
		WithoutVariables: false,
	}

	plugin := NewDBTracingPlugin(cfg, logger)
	err := plugin.RegisterOtelGorm(db)
	assert.NoError(t, err)
}

func BenchmarkDBTracingCallback(b *testing.B) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		b.Fatal(err)
	}

	err = db.AutoMigrate(&Member{})
	if err != nil {
		b.Fatal(err)
	}

	callback := NewDBTracingCallback(200 * time.Millisecond)
	ctx := context.Background()
	db = db.WithContext(ctx)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		callback.AfterCallback(db)
	}
}

func TestVerifySpanAttributes(t *testing.T) {
	tests := []struct {
		name          string
		attrs         []attribute.KeyValue
		expectedKey   attribute.Key
		expectedValue interface{}
	}{
		{
			name: "db.rows_affected",
			attrs: []attribute.KeyValue{
				attribute.Int64("db.rows_affected", 5),
			},
			expectedKey:   "db.rows_affected",
			expectedValue: int64(5),
		},
		{
			name: "db.sql.table",
			attrs: []attribute.KeyValue{
				attribute.String("db.sql.table", "members"),
			},
			expectedKey:   "db.sql.table",
			expectedValue: "members",
		},
		{
			name: "db.slow_query",
			attrs: []attribute.KeyValue{
				attribute.Bool("db.slow_query", true),
			},
			expectedKey:   "db.slow_query",
			expectedValue: true,
		},
		{
			name: "db.query_duration_ms",
			attrs: []attribute.KeyValue{
				attribute.Int64("db.query_duration_ms", 250),
			},
			expectedKey:   "db.query_duration_ms",
			expectedValue: int64(250),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			found := false
			for _, attr := range tc.attrs {
				if attr.Key == tc.expectedKey {
					found = true
					switch v := tc.expectedValue.(type) {
					case int64:
						assert.Equal(t, v, attr.Value.AsInt64())
					case string:
						assert.Equal(t, v, attr.Value.AsString())
					case bool:
						assert.Equal(t, v, attr.Value.AsBool())
					}
				}
			}
			assert.True(t, found, "Expected attribute %s not found", tc.expectedKey)
		})
	}
}
