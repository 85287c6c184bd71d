package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/bidhouse/backend/internal/infrastructure/config"
	"github.com/bidhouse/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection
type Database struct {
	DB *gorm.DB
}

// DatabaseOption customises NewDatabase
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	gormLogger gormlogger.Interface
	tracing    *telemetry.DBTracingPlugin
}

// WithGormLogger routes SQL logging through the given logger
func WithGormLogger(l gormlogger.Interface) DatabaseOption {
	return func(o *databaseOptions) {
		o.gormLogger = l
	}
}

// WithTracing registers otelgorm on the connection
func WithTracing(plugin *telemetry.DBTracingPlugin) DatabaseOption {
	return func(o *databaseOptions) {
		o.tracing = plugin
	}
}

// NewDatabase opens a PostgreSQL connection pool and pings it
func NewDatabase(cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	o := databaseOptions{gormLogger: gormlogger.Default.LogMode(gormlogger.Silent)}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 o.gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if o.tracing != nil {
		if err := o.tracing.RegisterOtelGorm(db); err != nil {
			return nil, fmt.Errorf("failed to register database tracing: %w", err)
		}
	}

	return &Database{DB: db}, nil
}

// NewDatabaseFromConfig wires the zap-backed gorm logger and tracing from app config
func NewDatabaseFromConfig(cfg *config.Config, gl gormlogger.Interface, log *zap.Logger) (*Database, error) {
	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBName:     cfg.Database.DBName,
	}, log)
	return NewDatabase(&cfg.Database, WithGormLogger(gl), WithTracing(tracing))
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int           `json:"max_open_connections"`
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
}

// Stats returns connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	s := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration,
	}, nil
}

// Transaction executes fn within a database transaction
func (d *Database) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}
