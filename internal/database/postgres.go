// Package database opens the stores behind run history and the deploy lock.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AndyHydro/plasma-contracts/internal/config"
)

const connectTimeout = 10 * time.Second

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrInvalidSteps is returned by MigrateDown for a non-positive step count.
var ErrInvalidSteps = errors.New("database: rollback needs at least one step")

// Postgres holds the history connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the history database and pings it.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	pc, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping history database %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Postgres{pool: pool}, nil
}

// poolConfig applies the configured limits; zero keeps pgx's default.
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pc.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pc.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	return pc, nil
}

func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// RunMigrations brings the history schema up to date. An up-to-date schema
// is not an error.
func RunMigrations(cfg config.DatabaseConfig) error {
	return withMigrate(cfg, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply history migrations: %w", err)
		}
		return nil
	})
}

// MigrateDown rolls back the newest steps history migrations.
func MigrateDown(cfg config.DatabaseConfig, steps int) error {
	if steps < 1 {
		return ErrInvalidSteps
	}
	return withMigrate(cfg, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("roll back %d history migration(s): %w", steps, err)
		}
		return nil
	})
}

func withMigrate(cfg config.DatabaseConfig, fn func(*migrate.Migrate) error) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.URL())
	if err != nil {
		return fmt.Errorf("connect migrator: %w", err)
	}
	defer m.Close()
	return fn(m)
}
