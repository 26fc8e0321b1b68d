package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmcleod/marketplace/internal/config"
	"github.com/jmcleod/marketplace/storage"
	bboltstorage "github.com/jmcleod/marketplace/storage/bbolt"
	"github.com/jmcleod/marketplace/storage/memory"
	"github.com/jmcleod/marketplace/storage/postgres"
)

const bboltFileName = "marketplace.db"

// openStore opens the configured catalog backend and checks it is reachable
// within PingTimeout. Outside production the in-memory store starts with the
// sample data.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Catalog, error) {
	var (
		catalog storage.Catalog
		err     error
	)
	switch cfg.Store.Driver {
	case config.DriverMemory:
		if cfg.Production() {
			catalog = memory.NewCatalog()
		} else {
			catalog = memory.NewSeededCatalog(storage.SampleData())
		}

	case config.DriverBBolt:
		if err := os.MkdirAll(cfg.Store.DataDir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		catalog, err = bboltstorage.NewCatalogFromFile(filepath.Join(cfg.Store.DataDir, bboltFileName), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open bbolt store: %w", err)
		}

	case config.DriverPostgres:
		dsn, err := cfg.Store.SealedDSN().Open()
		if err != nil {
			return nil, fmt.Errorf("postgres dsn: %w", err)
		}
		catalog, err = postgres.NewCatalogFromDSN(ctx, dsn, cfg.Store.MaxConns, cfg.Store.EnsureSchema,
			postgres.WithQueryTimeout(cfg.Store.QueryTimeout))
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	seed := cfg.Store.Seed && cfg.Store.Driver != config.DriverMemory
	if seed && cfg.Production() {
		logger.Warn("ignoring seed in production", "driver", cfg.Store.Driver)
		seed = false
	}
	if seeder, ok := catalog.(storage.Seeder); ok && seed {
		if err := seeder.Seed(ctx, storage.SampleData()); err != nil {
			catalog.Close()
			return nil, fmt.Errorf("seeding %s store: %w", cfg.Store.Driver, err)
		}
		logger.Info("seeded sample catalog", "driver", cfg.Store.Driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Store.PingTimeout)
	defer cancel()
	if err := catalog.Ping(pingCtx); err != nil {
		catalog.Close()
		return nil, fmt.Errorf("store %s unreachable: %w", cfg.Store.Driver, err)
	}
	logger.Info("store ready", "driver", cfg.Store.Driver)
	return catalog, nil
}
