package database

import (
	"io/fs"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndyHydro/plasma-contracts/internal/config"
)

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	assert.Contains(t, names, "migrations/000001_create_migration_runs.up.sql")
	assert.Contains(t, names, "migrations/000001_create_migration_runs.down.sql")

	src, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)
}

func TestMigrateDown_RejectsNonPositiveSteps(t *testing.T) {
	assert.ErrorIs(t, MigrateDown(config.DatabaseConfig{}, 0), ErrInvalidSteps)
	assert.ErrorIs(t, MigrateDown(config.DatabaseConfig{}, -2), ErrInvalidSteps)
}

func TestPoolConfig(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host: "localhost", Port: 5432, User: "plasma", Password: "secret",
		Database: "plasma", SSLMode: "disable",
		MaxOpenConns: 8, MaxIdleConns: 2, ConnMaxLifetime: time.Hour,
	}
	pc, err := poolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(8), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)

	cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime = 0, 0, 0
	defaults, err := poolConfig(cfg)
	require.NoError(t, err)
	assert.Positive(t, defaults.MaxConns)
}
