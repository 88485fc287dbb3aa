package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/catalogd/catalogd/internal/config"
	"github.com/catalogd/catalogd/internal/engine"
	"github.com/catalogd/catalogd/internal/logging"
	"github.com/catalogd/catalogd/internal/pool"
	"github.com/catalogd/catalogd/internal/store"
)

// runtime bundles the collaborators every command needs: config, logger,
// catalog store, pool registry and engine.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.MongoStore
	registry *pool.Registry
	engine   *engine.Engine
}

// newRuntime loads config, connects the store and wires the engine.
// Callers must close() it.
func newRuntime(ctx context.Context, notifier engine.Notifier) (*runtime, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.Setup(level, cfg.Logging.Directory)
	if err != nil {
		return nil, err
	}

	st, err := store.NewMongoStore(ctx, cfg.Store.ConnectionString, cfg.Store.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureIndexes(ctx); err != nil {
		st.Close(ctx)
		return nil, err
	}

	resolver := pool.ChainResolver{
		&pool.ConfigResolver{Tenants: cfg.Tenants},
		&store.Resolver{Store: st},
	}
	registry := pool.NewRegistry(resolver, logger)

	eng := engine.New(registry, st, resolver, logger, engine.Options{Notifier: notifier})

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		registry: registry,
		engine:   eng,
	}, nil
}

func (r *runtime) close(ctx context.Context) {
	r.registry.Shutdown()
	if err := r.store.Close(ctx); err != nil {
		r.logger.Warn("closing catalog store", "error", err)
	}
}
