package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestInitDatabase_InMemory(t *testing.T) {
	database, err := InitDatabase(DBConfig{Path: ":memory:", LogLevel: logger.Silent})
	require.NoError(t, err)

	var enabled int
	require.NoError(t, database.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
	assert.Equal(t, 1, enabled)
}

func TestInitDatabase_CreatesDataDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "livedash-deploy.db")

	_, err := InitDatabase(DBConfig{Path: path, LogLevel: logger.Silent})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestAutoMigrateAll(t *testing.T) {
	database, err := InitDatabase(DBConfig{Path: ":memory:", LogLevel: logger.Silent})
	require.NoError(t, err)

	require.NoError(t, AutoMigrateAll(database))

	for _, table := range []string{"migrations", "deployment_runs", "rollback_runs", "snapshots"} {
		assert.True(t, database.Migrator().HasTable(table), "missing table %s", table)
	}

	// Migration is idempotent
	require.NoError(t, AutoMigrateAll(database))
}
