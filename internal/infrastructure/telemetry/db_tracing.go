package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/synexa/sis/internal/infrastructure/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQuery = 200 * time.Millisecond

// DBTracingConfig controls SQL spans. LogFullSQL keeps bound values in the
// statement attribute and should stay off outside development, since invoice
// amounts and student ids would end up in the trace backend.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBName          string
}

func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{SlowQueryThresh: defaultSlowQuery, DBName: "postgresql"}
}

type queryStartKey struct{}

// DBTracingPlugin adds otelgorm spans, then annotates them with table, row
// count, tenant and a slow-query flag.
type DBTracingPlugin struct {
	cfg    DBTracingConfig
	logger *zap.Logger
}

func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQuery
	}
	return &DBTracingPlugin{cfg: cfg, logger: logger}
}

// callbackPoint is a position in a GORM callback chain.
type callbackPoint interface {
	Register(name string, fn func(*gorm.DB)) error
}

// Register is a no-op when tracing is disabled.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.cfg.Enabled {
		p.logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.cfg.DBName)}
	if !p.cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("otelgorm: %w", err)
	}

	cb := db.Callback()
	around := map[string][2]callbackPoint{
		"create": {cb.Create().Before("gorm:create"), cb.Create().After("gorm:create")},
		"query":  {cb.Query().Before("gorm:query"), cb.Query().After("gorm:query")},
		"update": {cb.Update().Before("gorm:update"), cb.Update().After("gorm:update")},
		"delete": {cb.Delete().Before("gorm:delete"), cb.Delete().After("gorm:delete")},
		"raw":    {cb.Raw().Before("gorm:raw"), cb.Raw().After("gorm:raw")},
	}
	for op, at := range around {
		if err := at[0].Register("sis:db_start_"+op, markQueryStart); err != nil {
			return err
		}
		if err := at[1].Register("sis:db_annotate_"+op, p.annotate); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("full_sql", p.cfg.LogFullSQL),
		zap.Duration("slow_query", p.cfg.SlowQueryThresh),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBTracingPlugin) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	table := db.Statement.Table
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if table != "" {
		span.SetAttributes(attribute.String("db.sql.table", table))
	}
	if tenant := logger.TenantID(ctx); tenant != uuid.Nil {
		span.SetAttributes(attribute.String("tenant.id", tenant.String()))
	}
	if err := db.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.cfg.SlowQueryThresh {
		span.SetAttributes(attribute.Bool("db.slow_query", true), attribute.Int64("db.duration_ms", elapsed.Milliseconds()))
		logger.For(ctx, p.logger).Warn("Slow query", zap.String("table", table), zap.Duration("elapsed", elapsed))
	}
}
