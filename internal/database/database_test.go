package database

import (
	"testing"

	"github.com/nexxacraft/community-admin/internal/config"
	"github.com/nexxacraft/community-admin/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_SQLiteAndMigrate(t *testing.T) {
	db, err := Connect(&config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Migrate(db))
	require.NoError(t, Ping(db))

	for _, table := range []any{&models.StaffAccount{}, &models.AuthSession{}, &models.PasswordReset{}, &models.Document{}, &models.SystemLog{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}
