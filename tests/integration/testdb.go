// Package integration runs the marketplace against a real PostgreSQL started
// with testcontainers. Tests skip under -short.
package integration

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/bidhouse/backend/internal/infrastructure/logger"
	"github.com/bidhouse/backend/internal/infrastructure/migration"
	"github.com/bidhouse/backend/migrations"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const postgresImage = "postgres:16-alpine"

// TestDB is a migrated database in its own container
type TestDB struct {
	DB  *gorm.DB
	DSN string
}

// NewTestDB starts PostgreSQL, applies the embedded migrations and
// terminates the container when t finishes
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test, skipped with -short")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("bidhouse_test"),
		tcpostgres.WithUsername("bidhouse"),
		tcpostgres.WithPassword("bidhouse"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "start postgres")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// the migrator closes its connection, so it gets its own
	migrateDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := migration.NewFromFS(migrateDB, migrations.FS, ".", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up(), "apply migrations")
	require.NoError(t, m.Close())

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLogger(zaptest.NewLogger(t), level),
	})
	require.NoError(t, err, "connect gorm")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &TestDB{DB: db, DSN: dsn}
}

// ExpireAuction moves a listing's end into the past so the next close sweep
// picks it up
func (tdb *TestDB) ExpireAuction(t *testing.T, productID uuid.UUID) {
	t.Helper()
	err := tdb.DB.Exec(`UPDATE products SET ends_at = NOW() - INTERVAL '1 second' WHERE id = ?`, productID).Error
	require.NoError(t, err, "expire auction")
}
