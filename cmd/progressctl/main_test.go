package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/attaboy/academy/internal/catalog"
	"github.com/attaboy/academy/internal/domain"
	"github.com/attaboy/academy/internal/infra"
	"github.com/attaboy/academy/internal/projection"
	"github.com/attaboy/academy/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T) (env, *bytes.Buffer, *projection.SnapshotRepository) {
	t.Helper()
	out := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := projection.NewSnapshotRepository(projection.NewInMemoryStore(), "", logger)

	e := env{
		out:    out,
		logger: logger,
		cfg:    &infra.Config{KafkaTopic: "academy.progress"},
		open: func(context.Context) (*service.ProgressService, func(), error) {
			return service.NewProgressService(repo, catalog.Default(), nil, logger), func() {}, nil
		},
	}
	return e, out, repo
}

func TestRun_Usage(t *testing.T) {
	e, _, _ := testEnv(t)

	err := run(context.Background(), nil, e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage: progressctl")

	err = run(context.Background(), []string{"frobnicate"}, e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "frobnicate"`)
}

func TestRun_Show(t *testing.T) {
	e, out, repo := testEnv(t)
	p := domain.NewSnapshot()
	p.XP = 150
	require.NoError(t, repo.Save(context.Background(), p))

	require.NoError(t, run(context.Background(), []string{"show"}, e))

	var shown struct {
		Snapshot struct {
			XP    int `json:"xp"`
			Level int `json:"level"`
		} `json:"snapshot"`
		Modules []json.RawMessage `json:"modules"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &shown))
	assert.Equal(t, 150, shown.Snapshot.XP)
	assert.Equal(t, 2, shown.Snapshot.Level)
	assert.Len(t, shown.Modules, 4)
}

func TestRun_Sync(t *testing.T) {
	e, out, repo := testEnv(t)
	ctx := context.Background()

	require.NoError(t, run(ctx, []string{"sync"}, e))
	assert.Equal(t, "no new badges\n", out.String())

	p, err := repo.Load(ctx)
	require.NoError(t, err)
	p.CompletedLessons.Add("ohms-law")
	require.NoError(t, repo.Save(ctx, p))
	out.Reset()

	require.NoError(t, run(ctx, []string{"sync"}, e))
	assert.Equal(t, "awarded: first-spark\n", out.String())

	stored, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.True(t, stored.Badges.Has("first-spark"))
}

func TestRun_Reset(t *testing.T) {
	e, out, repo := testEnv(t)
	ctx := context.Background()
	p := domain.NewSnapshot()
	p.XP = 900
	require.NoError(t, repo.Save(ctx, p))

	err := run(ctx, []string{"reset"}, e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-yes")

	require.NoError(t, run(ctx, []string{"reset", "-yes"}, e))
	assert.Contains(t, out.String(), "progress reset")

	stored, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.XP)
	assert.NotEqual(t, p.ID, stored.ID)
}

func TestRun_CatalogCheck(t *testing.T) {
	t.Run("built-in", func(t *testing.T) {
		e, out, _ := testEnv(t)
		require.NoError(t, run(context.Background(), []string{"catalog-check"}, e))
		assert.Equal(t, "catalog ok: 7 levels, 4 modules, 14 badges\n", out.String())
	})

	t.Run("dump round-trips through a file", func(t *testing.T) {
		e, out, _ := testEnv(t)
		require.NoError(t, run(context.Background(), []string{"catalog-check", "-dump"}, e))
		assert.Contains(t, out.String(), "levels:")

		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, out.Bytes(), 0o644))
		out.Reset()

		require.NoError(t, run(context.Background(), []string{"catalog-check", "-path", path}, e))
		assert.Equal(t, "catalog ok: 7 levels, 4 modules, 14 badges\n", out.String())
	})

	t.Run("invalid file", func(t *testing.T) {
		e, _, _ := testEnv(t)
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("levels: []\n"), 0o644))

		err := run(context.Background(), []string{"catalog-check", "-path", path}, e)
		assert.Error(t, err)
	})
}

func TestRun_EventsRequiresKafka(t *testing.T) {
	e, _, _ := testEnv(t)
	err := run(context.Background(), []string{"events"}, e)
	assert.ErrorIs(t, err, infra.ErrConsumerDisabled)
}
