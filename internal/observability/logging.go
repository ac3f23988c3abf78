// Package observability carries the process-wide logger, Prometheus metrics
// and OpenTelemetry tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Logger is the process logger. Configure replaces it once config is loaded.
var Logger *slog.Logger

type contextKey string

// Context keys copied onto every record logged with a context.
const (
	RequestIDKey     contextKey = "request_id"
	CorrelationIDKey contextKey = "correlation_id"
	UserIDKey        contextKey = "user_id"
	TraceIDKey       contextKey = "trace_id"
)

var contextFields = []contextKey{RequestIDKey, CorrelationIDKey, UserIDKey, TraceIDKey}

type ctxHandler struct {
	slog.Handler
}

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, key := range contextFields {
		if v := ctx.Value(key); v != nil {
			r.AddAttrs(slog.Any(string(key), v))
		}
	}
	// Fall back to the active span when no trace_id was set explicitly.
	if ctx.Value(TraceIDKey) == nil {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			r.AddAttrs(slog.String(string(TraceIDKey), sc.TraceID().String()))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

func init() {
	Logger = NewLogger(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
}

// NewLogger writes JSON in production and text everywhere else.
func NewLogger(env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if e := strings.ToLower(env); e == "production" || e == "prod" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(&ctxHandler{h})
}

// Configure swaps in a logger built from loaded config and makes it the slog default.
func Configure(env, level string) {
	Logger = NewLogger(env, level)
	slog.SetDefault(Logger)
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLevel maps LOG_LEVEL onto slog. Anything unrecognised is info.
func ParseLevel(level string) slog.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l
	}
	return slog.LevelInfo
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// WithUserID tags log records with the acting user.
func WithUserID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

func ExtractCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(CorrelationIDKey).(string)
	return id
}

// RepoLogger emits debug records for writes against one table and error
// records for failed statements.
type RepoLogger struct {
	log *slog.Logger
}

func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{log: Logger.With(slog.String("table", table))}
}

func (l *RepoLogger) write(ctx context.Context, op string, fields map[string]any) {
	if !l.log.Enabled(ctx, slog.LevelDebug) {
		return
	}
	attrs := make([]slog.Attr, 0, len(fields)+1)
	attrs = append(attrs, slog.String("op", op))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.log.LogAttrs(ctx, slog.LevelDebug, "row "+op, attrs...)
}

func (l *RepoLogger) LogCreate(ctx context.Context, fields map[string]any) { l.write(ctx, "create", fields) }
func (l *RepoLogger) LogUpdate(ctx context.Context, fields map[string]any) { l.write(ctx, "update", fields) }
func (l *RepoLogger) LogDelete(ctx context.Context, fields map[string]any) { l.write(ctx, "delete", fields) }

func (l *RepoLogger) LogError(ctx context.Context, err error, op string) {
	l.log.ErrorContext(ctx, "statement failed", slog.String("op", op), slog.String("error", err.Error()))
}
