// Package store picks the backend holding users and tasks
package store

import (
	"context"
	"fmt"
	"io"

	"github.com/andrebq/dolist/authprogram"
	"github.com/andrebq/dolist/config"
	"github.com/andrebq/dolist/internal/logutil"
	"github.com/andrebq/dolist/store/memstore"
	"github.com/andrebq/dolist/store/sqlstore"
	"github.com/andrebq/dolist/tasks"
)

type (
	Backend interface {
		authprogram.UserStore
		tasks.Store
		io.Closer
	}

	// Migrator is implemented by backends with a schema
	Migrator interface {
		Migrate(context.Context) error
	}
)

// Open returns the backend described by cfg, sql backends are migrated
// to the latest schema when migrate is true.
func Open(ctx context.Context, cfg config.Config, migrate bool) (Backend, error) {
	log := logutil.GetOrDefault(ctx).With().Str("store.kind", cfg.Store).Logger()
	var backend Backend
	switch cfg.Store {
	case config.StoreMemory:
		ms, err := memstore.New()
		if err != nil {
			return nil, err
		}
		log.Warn().Msg("Using in-memory store, data will be lost on exit")
		backend = ms
	case config.StoreSQLite, config.StorePostgres:
		dialect := sqlstore.DialectSQLite
		if cfg.Store == config.StorePostgres {
			dialect = sqlstore.DialectPostgres
		}
		ss, err := sqlstore.Open(ctx, dialect, cfg.DSN)
		if err != nil {
			return nil, err
		}
		backend = ss
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
	if m, ok := backend.(Migrator); ok && migrate {
		if err := m.Migrate(ctx); err != nil {
			backend.Close()
			return nil, err
		}
		log.Info().Msg("Schema migrated")
	}
	return backend, nil
}
