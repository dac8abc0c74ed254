package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/attaboy/academy/internal/catalog"
	"github.com/attaboy/academy/internal/guard"
	"github.com/attaboy/academy/internal/infra"
	"github.com/attaboy/academy/internal/projection"
	"github.com/attaboy/academy/internal/service"
)

// Backend is an opened progress store plus what health checks and shutdown need.
type Backend struct {
	Name   string
	Store  projection.Store
	Pinger infra.Pinger // nil for the in-process store
	close  func()
}

// Close releases the backend's connections.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// OpenBackend connects the store selected by cfg.Store. Remote stores are wrapped
// in a circuit breaker so an outage fails fast instead of stalling every request.
func OpenBackend(ctx context.Context, cfg *infra.Config, logger *slog.Logger) (*Backend, error) {
	b := &Backend{Name: cfg.Store}

	switch cfg.Store {
	case infra.StoreRedis:
		client, err := projection.NewRedisClient(ctx, projection.RedisConfig{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store := projection.NewRedisStore(client, "")
		b.Store, b.Pinger = store, store
		b.close = func() { _ = client.Close() }
		logger.Info("connected to redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)

	case infra.StorePostgres:
		if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		pool, err := infra.NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.Store, b.Pinger = projection.NewPostgresStore(pool), pool
		b.close = pool.Close
		logger.Info("connected to postgres")

	default:
		b.Store = projection.NewInMemoryStore()
		logger.Warn("using in-memory progress store; progress is lost on exit")
		return b, nil
	}

	breaker := guard.NewCircuitBreaker(cfg.StoreFailThreshold, cfg.StoreResetTimeout)
	b.Store = projection.NewGuardedStore(b.Store, breaker, cfg.Store)
	return b, nil
}

// NewProgressService builds the progress service described by cfg over store.
func NewProgressService(cfg *infra.Config, store projection.Store, notifier service.Notifier, logger *slog.Logger) (*service.ProgressService, error) {
	cat, err := catalog.LoadOrDefault(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	repo := projection.NewSnapshotRepository(store, cfg.StorageKey, logger)
	return service.NewProgressService(repo, cat, notifier, logger,
		service.WithLocation(loc),
		service.WithBadgeBonus(cfg.ApplyBadgeBonus),
	), nil
}
