// Package backend opens the configured storage driver.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/calilog/internal/config"
	"github.com/claude/calilog/internal/importer"
	"github.com/claude/calilog/internal/mcp"
	"github.com/claude/calilog/internal/server"
	"github.com/claude/calilog/internal/storage"
	"github.com/claude/calilog/internal/storage/sqlite"
)

// Store is everything the binaries need from a storage driver.
type Store interface {
	server.Store
	mcp.DataSource
	importer.Catalog
	Close() error
}

// postgres adapts storage.DB, whose Close does not fail.
type postgres struct {
	*storage.DB
}

func (p postgres) Close() error {
	p.DB.Close()
	return nil
}

var (
	_ Store = postgres{}
	_ Store = (*sqlite.Store)(nil)
)

// Migrate applies pending migrations. SQLite migrates on open, so only the
// PostgreSQL driver has work to do here.
func Migrate(cfg config.DatabaseConfig, migrationsPath string) error {
	if cfg.Driver != config.DriverPostgres {
		return nil
	}
	return storage.RunMigrations(cfg.DSN(), migrationsPath)
}

// Open connects to the configured database. PostgreSQL migrations are not
// applied; call Migrate first.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := storage.New(ctx, cfg.DSN())
		if err != nil {
			return nil, err
		}
		log.Info("database connected", "driver", cfg.Driver, "host", cfg.Host, "name", cfg.Name)
		return postgres{db}, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		log.Info("database opened", "driver", cfg.Driver, "path", cfg.Path)
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
