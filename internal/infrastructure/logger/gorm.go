package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowSQL = 200 * time.Millisecond

// GormLogger sends GORM output to zap. Statements run inside a request are
// logged through the request logger, so they carry request_id, user_id and
// trace ids.
type GormLogger struct {
	base  *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets when a statement is logged as slow; zero disables
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slow = threshold }
}

func NewGormLogger(base *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	l := &GormLogger{base: base, level: level, slow: defaultSlowSQL}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// forContext prefers the request logger stored on ctx
func (l *GormLogger) forContext(ctx context.Context) *zap.Logger {
	if reqLogger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return WithTraceContext(ctx, reqLogger).Named("gorm")
	}
	return WithTraceContext(ctx, l.base).Named("gorm")
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.forContext(ctx).Info(fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.forContext(ctx).Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.forContext(ctx).Error(fmt.Sprintf(msg, data...))
	}
}

// Trace logs failed and slow statements, and every statement at Info.
// Record-not-found is an expected lookup miss and never an error.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && l.level >= gormlogger.Error
	slow := l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn
	if !failed && !slow && l.level < gormlogger.Info {
		return
	}

	sql, rows := fc()
	log := l.forContext(ctx).With(
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	)
	switch {
	case failed:
		log.Error("SQL error", zap.Error(err))
	case slow:
		log.Warn("Slow SQL", zap.Duration("threshold", l.slow))
	default:
		log.Debug("SQL")
	}
}

// MapGormLogLevel maps the application log level to a GORM log level
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
