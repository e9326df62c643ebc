package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/synexa/sis/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database is the shared GORM handle over the billing database.
type Database struct {
	DB *gorm.DB
}

// Plugin hooks into the connection once it is open (tracing, metrics).
type Plugin interface {
	Register(db *gorm.DB) error
}

// Option adjusts the GORM config or adds a plugin before NewDatabase connects.
type Option func(*gorm.Config, *[]Plugin)

func WithLogger(l logger.Interface) Option {
	return func(c *gorm.Config, _ *[]Plugin) { c.Logger = l }
}

func WithPlugin(p Plugin) Option {
	return func(_ *gorm.Config, plugins *[]Plugin) { *plugins = append(*plugins, p) }
}

// NewDatabase connects to PostgreSQL, sizes the pool and fails fast when the
// server does not answer a ping. Timestamps are written in UTC.
func NewDatabase(cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	gormCfg := &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	}
	var plugins []Plugin
	for _, opt := range opts {
		opt(gormCfg, &plugins)
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.DBName, err)
	}
	db := &Database{DB: gdb}

	pool, err := db.pool()
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := pool.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s: %w", cfg.DBName, err)
	}
	for _, p := range plugins {
		if err := p.Register(gdb); err != nil {
			return nil, fmt.Errorf("register gorm plugin: %w", err)
		}
	}
	return db, nil
}

func (d *Database) pool() (*sql.DB, error) {
	pool, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("connection pool: %w", err)
	}
	return pool, nil
}

func (d *Database) Close() error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.Close()
}

// Ping backs the /health probe.
func (d *Database) Ping(ctx context.Context) error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

// Stats snapshots the connection pool.
func (d *Database) Stats() (sql.DBStats, error) {
	pool, err := d.pool()
	if err != nil {
		return sql.DBStats{}, err
	}
	return pool.Stats(), nil
}
