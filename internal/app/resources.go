package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"petshop-manager/internal/adapters/storage/boltstore"
	"petshop-manager/internal/adapters/storage/postgres"
	"petshop-manager/internal/config"
	"petshop-manager/internal/domain/settings"
	"petshop-manager/internal/platform/logger"
)

// Resources son las conexiones externas que el proceso abre y cierra.
type Resources struct {
	Pool          *pgxpool.Pool  // nil en modo memoria
	SettingsStore settings.Store // nil => store en memoria
	bolt          *boltstore.SettingsStore
}

// Open conecta Postgres (si hay DSN) y el archivo de settings (si hay path).
// Con migrate=true aplica las migraciones pendientes.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger, migrate bool) (*Resources, error) {
	res := &Resources{}

	if !cfg.Database.InMemory() {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		res.Pool = pool

		if migrate {
			applied, err := postgres.MigrateUp(ctx, pool)
			if err != nil {
				res.Close()
				return nil, fmt.Errorf("app: migrate: %w", err)
			}
			log.Info("migrations applied", map[string]any{"count": len(applied)})
		}
	} else {
		log.Warn("database dsn empty, using in-memory repositories", nil)
	}

	if cfg.Settings.Path != "" {
		store, err := boltstore.Open(cfg.Settings.Path)
		if err != nil {
			res.Close()
			return nil, fmt.Errorf("app: settings store: %w", err)
		}
		res.bolt = store
		res.SettingsStore = store
	}
	return res, nil
}

// Options arma app.Options con estas conexiones.
func (r *Resources) Options(cfg *config.Config, log logger.Logger) Options {
	return Options{
		Config:        cfg,
		Logger:        log,
		Pool:          r.Pool,
		SettingsStore: r.SettingsStore,
	}
}

func (r *Resources) Close() {
	if r.bolt != nil {
		_ = r.bolt.Close()
	}
	if r.Pool != nil {
		r.Pool.Close()
	}
}
