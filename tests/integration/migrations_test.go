package integration

import (
	"database/sql"
	"testing"

	"github.com/bidhouse/backend/internal/infrastructure/migration"
	"github.com/bidhouse/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrations_RoundTrip(t *testing.T) {
	tdb := NewTestDB(t)

	sqlDB, err := sql.Open("postgres", tdb.DSN)
	require.NoError(t, err)
	m, err := migration.NewFromFS(sqlDB, migrations.FS, ".", zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	status, err := m.Status()
	require.NoError(t, err)
	assert.Equal(t, uint(4), status.Version)
	assert.False(t, status.Dirty)

	// dropping bids leaves products in place
	require.NoError(t, m.Steps(-1))
	var bidsTable *string
	require.NoError(t, tdb.DB.Raw(`SELECT to_regclass('public.bids')::text`).Scan(&bidsTable).Error)
	assert.Nil(t, bidsTable)

	require.NoError(t, m.Up())
	status, err = m.Status()
	require.NoError(t, err)
	assert.Equal(t, uint(4), status.Version)

	var indexes int64
	require.NoError(t, tdb.DB.Raw(
		`SELECT COUNT(*) FROM pg_indexes WHERE tablename = 'bids' AND indexname = 'idx_bids_product_amount'`,
	).Scan(&indexes).Error)
	assert.Equal(t, int64(1), indexes)
}
