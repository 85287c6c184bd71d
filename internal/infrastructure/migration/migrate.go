// Package migration applies the SQL schema with golang-migrate, either from
// the embedded migrations or from a directory on disk.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Migrator wraps golang-migrate with logging
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// Status describes the applied schema version
type Status struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// New creates a Migrator reading migrations from a directory
func New(db *sql.DB, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{migrate: m, logger: logger}, nil
}

// NewFromFS creates a Migrator reading migrations from an fs.FS, typically
// the embedded migrations package
func NewFromFS(db *sql.DB, fsys fs.FS, dir string, logger *zap.Logger) (*Migrator, error) {
	source, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{migrate: m, logger: logger}, nil
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	m.logger.Info("Running migrations up")
	if err := m.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("Schema is up to date")
			return nil
		}
		return fmt.Errorf("migration up failed: %w", err)
	}
	return m.logApplied("Migrations completed")
}

// Down rolls back every migration
func (m *Migrator) Down() error {
	m.logger.Info("Running migrations down")
	if err := m.migrate.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("No migrations to roll back")
			return nil
		}
		return fmt.Errorf("migration down failed: %w", err)
	}
	m.logger.Info("All migrations rolled back")
	return nil
}

// Steps applies n migrations, negative n rolls back
func (m *Migrator) Steps(n int) error {
	m.logger.Info("Running migration steps", zap.Int("steps", n))
	if err := m.migrate.Steps(n); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration steps failed: %w", err)
	}
	return m.logApplied("Migration steps completed")
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	if err := m.migrate.Migrate(version); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("Already at target version", zap.Uint("version", version))
			return nil
		}
		return fmt.Errorf("migration to version %d failed: %w", version, err)
	}
	return m.logApplied("Migrated to version")
}

// Status returns the current version. Version 0 means nothing was applied.
func (m *Migrator) Status() (Status, error) {
	version, dirty, err := m.migrate.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return Status{}, nil
		}
		return Status{}, fmt.Errorf("failed to get migration version: %w", err)
	}
	return Status{Version: version, Dirty: dirty}, nil
}

// Force records version as applied without running anything. Used to
// recover from a dirty state after a failed migration was fixed by hand.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every table in the database
func (m *Migrator) Drop() error {
	m.logger.Warn("Dropping all database objects")
	if err := m.migrate.Drop(); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}
	return nil
}

func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("failed to close source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close database: %w", dbErr)
	}
	return nil
}

func (m *Migrator) logApplied(msg string) error {
	st, err := m.Status()
	if err != nil {
		return err
	}
	m.logger.Info(msg, zap.Uint("version", st.Version), zap.Bool("dirty", st.Dirty))
	return nil
}
