package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormConfig tunes the SQL log. SlowThreshold zero turns slow-query
// warnings off; LogNotFound also reports empty lookups as SQL errors.
type GormConfig struct {
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
	LogNotFound   bool
}

// GormLogger writes GORM's query log to zap, tagged with the request and
// caller fields carried by ctx.
type GormLogger struct {
	base *zap.Logger
	cfg  GormConfig
}

var _ gormlogger.Interface = (*GormLogger)(nil)

func NewGormLogger(base *zap.Logger, cfg GormConfig) *GormLogger {
	return &GormLogger{base: base.Named("gorm"), cfg: cfg}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cfg := l.cfg
	cfg.Level = level
	return &GormLogger{base: l.base, cfg: cfg}
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Info {
		For(ctx, l.base).Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Warn {
		For(ctx, l.base).Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Error {
		For(ctx, l.base).Sugar().Errorf(msg, data...)
	}
}

// Trace logs failed statements at error, slow ones at warn and the rest at
// debug, the last only when the level is Info.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	level := l.cfg.Level
	if level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	if err != nil {
		if level < gormlogger.Error || (!l.cfg.LogNotFound && errors.Is(err, gormlogger.ErrRecordNotFound)) {
			return
		}
		l.statement(ctx, elapsed, fc).Error("SQL error", zap.Error(err))
		return
	}
	if slow := l.cfg.SlowThreshold; slow > 0 && elapsed > slow {
		if level >= gormlogger.Warn {
			l.statement(ctx, elapsed, fc).Warn("Slow SQL", zap.Duration("threshold", slow))
		}
		return
	}
	if level >= gormlogger.Info {
		l.statement(ctx, elapsed, fc).Debug("SQL query")
	}
}

func (l *GormLogger) statement(ctx context.Context, elapsed time.Duration, fc func() (string, int64)) *zap.Logger {
	sql, rows := fc()
	return For(ctx, l.base).With(
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	)
}

// MapGormLogLevel converts a zap level name. Debug and info both log every
// statement; unknown names fall back to warn.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	}
	return gormlogger.Warn
}
