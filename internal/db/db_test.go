package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radityapura/medigate/internal/db/models"
)

// TestConnect_SQLite verifies the embedded driver connects and migrates.
func TestConnect_SQLite(t *testing.T) {
	database, err := Connect(Config{
		Driver:   "sqlite",
		Database: ":memory:",
	})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(database))

	assert.True(t, database.Migrator().HasTable(&models.Hospital{}))
	assert.True(t, database.Migrator().HasTable(&models.Doctor{}))
}

// TestConnect_UnsupportedDriver verifies unknown drivers fail fast.
func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(Config{Driver: "oracle"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
