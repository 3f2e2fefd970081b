package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "finsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	version, err := Migrate(db, "migrations")
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	again, err := Migrate(db, "migrations")
	require.NoError(t, err, "nothing pending is not an error")
	assert.Equal(t, version, again)

	for _, table := range []string{"accounts", "transactions", "balances", "sync_history"} {
		var n int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n))
		assert.Equal(t, 1, n, table)
	}
	require.NoError(t, db.Ping(), "db stays usable after migrating")
}

func TestMigrate_MissingDir(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "finsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = Migrate(db, filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
