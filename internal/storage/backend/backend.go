// Package backend opens the storage implementation selected in config.
package backend

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/storage/postgres"
	"github.com/claude/liftlog/internal/storage/sqlite"
)

// Migrate applies all pending migrations for the configured driver.
func Migrate(cfg config.DatabaseConfig) error {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.RunMigrations(cfg.Path)
	case config.DriverPostgres:
		return postgres.RunMigrations(cfg.DSN())
	}
	return fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// Open connects to the configured store. Migrations are not applied.
func Open(ctx context.Context, cfg config.DatabaseConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		st, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DSN())
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
