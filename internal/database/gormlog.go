package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rockae/internal/observability"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQuery = 200 * time.Millisecond

// queryLogger forwards GORM output to slog. Missing rows are not errors here;
// the repositories translate them.
type queryLogger struct {
	log   *slog.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

// NewGormLogger builds the slog-backed GORM logger used by Open.
func NewGormLogger(level gormlogger.LogLevel) gormlogger.Interface {
	return &queryLogger{log: observability.Logger, level: level, slow: slowQuery}
}

func (q *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *q
	cp.level = level
	return &cp
}

func (q *queryLogger) Info(ctx context.Context, format string, args ...any) {
	q.emit(ctx, gormlogger.Info, slog.LevelInfo, format, args)
}

func (q *queryLogger) Warn(ctx context.Context, format string, args ...any) {
	q.emit(ctx, gormlogger.Warn, slog.LevelWarn, format, args)
}

func (q *queryLogger) Error(ctx context.Context, format string, args ...any) {
	q.emit(ctx, gormlogger.Error, slog.LevelError, format, args)
}

func (q *queryLogger) emit(ctx context.Context, floor gormlogger.LogLevel, lvl slog.Level, format string, args []any) {
	if q.level < floor {
		return
	}
	q.log.Log(ctx, lvl, fmt.Sprintf(format, args...))
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= gormlogger.Silent {
		return
	}
	took := time.Since(begin)

	var (
		lvl slog.Level
		msg string
	)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && q.level >= gormlogger.Error:
		lvl, msg = slog.LevelError, "sql failed"
	case q.slow > 0 && took > q.slow && q.level >= gormlogger.Warn:
		lvl, msg = slog.LevelWarn, "sql slow"
	case q.level >= gormlogger.Info:
		lvl, msg = slog.LevelInfo, "sql"
	default:
		return
	}

	stmt, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", stmt),
		slog.Int64("rows", rows),
		slog.Duration("took", took),
	}
	if err != nil && lvl == slog.LevelError {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	q.log.LogAttrs(ctx, lvl, msg, attrs...)
}
