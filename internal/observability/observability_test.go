package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestCtxHandler_AddsContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&ctxHandler{slog.NewTextHandler(&buf, nil)})

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithCorrelationID(ctx, "corr-1")
	ctx = WithUserID(ctx, 42)
	logger.InfoContext(ctx, "hello")

	out := buf.String()
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "correlation_id=corr-1")
	assert.Contains(t, out, "user_id=42")
	assert.Equal(t, "corr-1", ExtractCorrelationID(ctx))
}

func TestCtxHandler_TraceIDFromSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&ctxHandler{slog.NewTextHandler(&buf, nil)})

	tid := trace.TraceID{0x0a, 0x0b, 0x0c}
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: trace.SpanID{1}})
	logger.InfoContext(trace.ContextWithSpanContext(context.Background(), sc), "traced")

	assert.Contains(t, buf.String(), "trace_id="+tid.String())
}

func TestRepoLogger_DebugOnly(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	NewRepoLogger("Wheel").LogCreate(context.Background(), map[string]any{"id": 1})
	assert.Empty(t, buf.String())

	Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rl := NewRepoLogger("Wheel")
	rl.LogUpdate(context.Background(), map[string]any{"status": "active"})
	rl.LogError(context.Background(), assert.AnError, "update")
	out := buf.String()
	assert.Contains(t, out, "table=Wheel")
	assert.Contains(t, out, "op=update")
	assert.Contains(t, out, "status=active")
	assert.Contains(t, out, "statement failed")
}

func TestRecordEvent(t *testing.T) {
	before := testutil.ToFloat64(DomainEvents.WithLabelValues(EventCommunityCreated))
	RecordEvent(EventCommunityCreated)
	RecordEvent(EventCommunityCreated)
	assert.Equal(t, before+2, testutil.ToFloat64(DomainEvents.WithLabelValues(EventCommunityCreated)))
}

type metricsProbe struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestMetricsPlugin_ObservesQueries(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Use(MetricsPlugin{}))
	require.NoError(t, db.AutoMigrate(&metricsProbe{}))

	require.NoError(t, db.Create(&metricsProbe{Name: "a"}).Error)
	var got metricsProbe
	require.NoError(t, db.First(&got).Error)

	assert.Positive(t, testutil.CollectAndCount(DatabaseQueryLatency))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{ServiceName: "rockae-test"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	span, ctx := StartServiceSpan(context.Background(), "community", "Create")
	assert.NotNil(t, ctx)
	span.SetError(assert.AnError)
	span.End()
}

func TestInitTracing_StdoutExportsServiceSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(context.Background(), TracingConfig{
		ServiceName:  "rockae-test",
		Environment:  "test",
		Enabled:      true,
		Exporter:     "stdout",
		SamplerRatio: 1,
		Writer:       &buf,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
		Tracer = otel.Tracer("rockae")
	})

	failed := func() (err error) {
		span, _ := StartServiceSpan(context.Background(), "wheel", "Acknowledge")
		defer span.Finish(&err)
		return assert.AnError
	}
	require.Error(t, failed())
	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "wheel.Acknowledge")
	assert.Contains(t, out, assert.AnError.Error())
}
