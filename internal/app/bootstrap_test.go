package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/attaboy/academy/internal/catalog"
	"github.com/attaboy/academy/internal/infra"
	"github.com/attaboy/academy/internal/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *infra.Config {
	return &infra.Config{
		Store:              infra.StoreMemory,
		StorageKey:         "academy:test",
		TimeZone:           "UTC",
		RedisAddr:          "127.0.0.1:1",
		StoreFailThreshold: 3,
		StoreResetTimeout:  time.Second,
	}
}

func TestOpenBackend_Memory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	b, err := OpenBackend(context.Background(), testConfig(), logger)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, infra.StoreMemory, b.Name)
	assert.Nil(t, b.Pinger)
	_, ok := b.Store.(*projection.InMemoryStore)
	assert.True(t, ok)
}

func TestOpenBackend_RedisUnreachable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()
	cfg.Store = infra.StoreRedis

	_, err := OpenBackend(context.Background(), cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect redis")
}

func TestNewProgressService_UsesConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	store := projection.NewInMemoryStore()
	cfg := testConfig()
	cfg.ApplyBadgeBonus = true

	svc, err := NewProgressService(cfg, store, nil, logger)
	require.NoError(t, err)
	_, err = svc.Init(ctx)
	require.NoError(t, err)

	res, err := svc.CompleteLesson(ctx, "ohms-law")
	require.NoError(t, err)
	assert.Equal(t, 20, res.Snapshot.XP, "badge bonus enabled through config")

	_, err = store.Get(ctx, "academy:test")
	assert.NoError(t, err, "snapshot saved under the configured key")
}

func TestNewProgressService_CatalogFile(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()

	data, err := catalog.Marshal(catalog.Default())
	require.NoError(t, err)
	cfg.CatalogPath = filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(cfg.CatalogPath, data, 0o644))

	svc, err := NewProgressService(cfg, projection.NewInMemoryStore(), nil, logger)
	require.NoError(t, err)
	assert.Len(t, svc.Catalog().Badges, len(catalog.Default().Badges))

	cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = NewProgressService(cfg, projection.NewInMemoryStore(), nil, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load catalog")
}

func TestNewProgressService_BadTimeZone(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()
	cfg.TimeZone = "Nowhere/Special"

	_, err := NewProgressService(cfg, projection.NewInMemoryStore(), nil, logger)
	assert.Error(t, err)
}
