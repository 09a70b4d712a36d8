package database

import (
	"path/filepath"
	"testing"

	"github.com/frostdev-ops/pma-goveelife/internal/config"
	"github.com/frostdev-ops/pma-goveelife/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "goveelife.db")

	db, err := Initialize(config.DatabaseConfig{Path: path, MaxConnections: 2})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db.DB, migrations.FS))
	// second run is a no-op
	require.NoError(t, Migrate(db.DB, migrations.FS))

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'govee_devices'`))
	assert.Equal(t, 1, count)

	var journal string
	require.NoError(t, db.Get(&journal, `PRAGMA journal_mode`))
	assert.Equal(t, "wal", journal)
}

func TestNewMigrator_DownAndVersion(t *testing.T) {
	db, err := Initialize(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "goveelife.db"), MaxConnections: 1})
	require.NoError(t, err)
	defer db.Close()

	m, err := NewMigrator(db.DB, migrations.FS)
	require.NoError(t, err)

	_, _, err = m.Version()
	assert.ErrorIs(t, err, migrate.ErrNilVersion)

	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	require.NoError(t, m.Down())
	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'govee_devices'`))
	assert.Equal(t, 0, count)
}
