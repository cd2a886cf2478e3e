// Package factory builds the storage layer selected by configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/Nagraj23/shieldx-back/internal/config"
	"github.com/Nagraj23/shieldx-back/internal/store"
	"github.com/Nagraj23/shieldx-back/internal/store/memstore"
	"github.com/Nagraj23/shieldx-back/internal/store/postgres"
	"github.com/Nagraj23/shieldx-back/internal/store/sqlite"
)

// NewStore opens the configured store and makes sure its schema exists.
func NewStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("SHIELDX_POSTGRES_DSN is required for the postgres driver")
		}
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		return postgres.NewWithDB(db), nil
	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return sqlite.NewWithDB(db)
	case "memory":
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}
