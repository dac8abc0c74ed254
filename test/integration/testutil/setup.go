//go:build integration

package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/attaboy/academy/internal/app"
	"github.com/attaboy/academy/internal/guard"
	"github.com/attaboy/academy/internal/infra"
	"github.com/attaboy/academy/internal/projection"
	"github.com/attaboy/academy/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	TestDBHost = "localhost"
	TestDBPort = 5435
	TestDBUser = "academy"
	TestDBPass = "academy"
	TestDBName = "academy_test"
)

// TestEnv holds all resources for an integration test.
type TestEnv struct {
	Server   *httptest.Server
	Pool     *pgxpool.Pool
	Store    *projection.PostgresStore
	Progress *service.ProgressService
	Hub      *infra.Hub
	Key      string
	t        *testing.T
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

func testDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, TestDBName)
}

func bootstrapDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, "academy")
}

func ensureTestDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bPool, err := pgxpool.New(ctx, bootstrapDSN())
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer bPool.Close()

	var exists bool
	err = bPool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", TestDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}

	if !exists {
		if _, err := bPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", TestDBName)); err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func getSharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		if err := ensureTestDB(); err != nil {
			poolErr = err
			return
		}
		if err := infra.RunMigrations(testDSN(), testLogger()); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolCfg, err := pgxpool.ParseConfig(testDSN())
		if err != nil {
			poolErr = fmt.Errorf("parse pool config: %w", err)
			return
		}
		poolCfg.MaxConns = 10
		poolCfg.MinConns = 1

		sharedPool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			poolErr = fmt.Errorf("create pool: %w", err)
		}
	})

	if poolErr != nil {
		t.Fatalf("failed to initialize test pool: %v", poolErr)
	}
	return sharedPool
}

// NewTestEnv starts the real router over the Postgres store. Each test gets its
// own storage key, so tests never see each other's progress.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	pool := getSharedPool(t)
	logger := testLogger()
	key := "academy:it:" + strings.ReplaceAll(t.Name(), "/", ":")

	store := projection.NewPostgresStore(pool)
	cfg := &infra.Config{StorageKey: key, TimeZone: "UTC"}
	hub := infra.NewHub(logger)

	env := &TestEnv{Pool: pool, Store: store, Hub: hub, Key: key, t: t}
	env.Clean()

	progress, err := app.NewProgressService(cfg, store, hub, logger)
	if err != nil {
		t.Fatalf("build progress service: %v", err)
	}
	if _, err := progress.Init(context.Background()); err != nil {
		t.Fatalf("init progress: %v", err)
	}
	env.Progress = progress

	router := app.NewRouter(app.RouterDeps{
		Progress:           progress,
		Logger:             logger,
		Hub:                hub,
		StoreName:          infra.StorePostgres,
		StorePinger:        pool,
		CORSAllowedOrigins: "*",
		Idempotency:        guard.NewIdempotencyGuard(time.Hour),
	})
	env.Server = httptest.NewServer(router)

	t.Cleanup(func() {
		hub.Shutdown(context.Background())
		env.Server.Close()
		env.Clean()
	})
	return env
}

// Clean removes this test's stored snapshot.
func (env *TestEnv) Clean() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = env.Store.Delete(ctx, env.Key)
}
