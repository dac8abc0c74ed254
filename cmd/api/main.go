package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attaboy/academy/internal/app"
	"github.com/attaboy/academy/internal/guard"
	"github.com/attaboy/academy/internal/infra"
	"github.com/attaboy/academy/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return err
	}

	// Progress store
	backend, err := app.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	// Notifications: live streams and the event topic
	hub := infra.NewHub(logger)
	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()
	notifier := service.MultiNotifier{hub, infra.NewEventPublisher(producer, cfg.KafkaTopic)}

	progress, err := app.NewProgressService(cfg, backend.Store, notifier, logger)
	if err != nil {
		return err
	}

	// A storage failure here leaves the session running on in-memory progress.
	if _, err := progress.Init(ctx); err != nil {
		logger.Warn("progress init degraded", "error", err)
	}
	if res, err := progress.UpdateStreak(ctx); err != nil {
		logger.Warn("streak update failed", "error", err)
	} else if res.Changed {
		logger.Info("streak updated", "streak", res.Snapshot.Streak, "xp_gained", res.XPGained)
	}

	r := app.NewRouter(app.RouterDeps{
		Progress:           progress,
		Logger:             logger,
		Hub:                hub,
		StoreName:          backend.Name,
		StorePinger:        backend.Pinger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        guard.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute),
		TrustedProxies:     trustedProxies,
		Idempotency:        guard.NewIdempotencyGuard(24 * time.Hour),
	})

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr, "store", backend.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Open progress streams would otherwise hold Shutdown until the deadline.
	hub.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
