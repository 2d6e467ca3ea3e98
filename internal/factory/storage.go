package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sakina-app/sakina-server/internal/config"
	"github.com/sakina-app/sakina-server/internal/localstate"
	storepkg "github.com/sakina-app/sakina-server/internal/store"
	storepg "github.com/sakina-app/sakina-server/internal/store/postgres"
	storesqlite "github.com/sakina-app/sakina-server/internal/store/sqlite"
)

// NewStore returns the store.Store selected by cfg.DBDriver and a function
// that releases its connection pool.
//
// Postgres launches an async bootstrap and returns immediately for fast
// startup; SQLite applies its schema synchronously since it is local.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, func() error, error) {
	switch cfg.DBDriver {
	case "postgres":
		return newPostgresStore(ctx, cfg, log)
	case "sqlite":
		if err := localstate.EnsureParent(cfg.SQLitePath); err != nil {
			return nil, nil, err
		}
		st, db, err := storesqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("path", cfg.SQLitePath).Msg("sqlite store ready")
		return st, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}

func newPostgresStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, func() error, error) {
	dsn := cfg.PostgresDSN
	if dsn == "" {
		return nil, nil, fmt.Errorf("%s_POSTGRES_DSN is required when DB_DRIVER=postgres", config.EnvPrefix)
	}

	// Open connection synchronously since health checks need it immediately
	db, err := storepg.Open(dsn)
	if err != nil {
		return nil, nil, err
	}

	go func() {
		bootstrapTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
		bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
		defer cancel()

		if err := storepg.EnsureSchema(bootstrapCtx, db); err != nil {
			log.Warn().Err(err).Str("driver", cfg.DBDriver).Msg("store bootstrap failed")
		} else {
			log.Debug().Str("driver", cfg.DBDriver).Msg("store bootstrap completed")
		}
	}()

	return storepg.NewWithDB(db), db.Close, nil
}
