package app

import (
	"log/slog"
	"net/netip"

	"github.com/attaboy/academy/internal/guard"
	"github.com/attaboy/academy/internal/handler"
	"github.com/attaboy/academy/internal/infra"
	"github.com/attaboy/academy/internal/service"
	"github.com/go-chi/chi/v5"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Progress *service.ProgressService
	Logger   *slog.Logger

	// Hub enables GET /progress/stream when set.
	Hub *infra.Hub

	// Store health
	StoreName   string
	StorePinger infra.Pinger

	CORSAllowedOrigins string
	RateLimiter        *guard.RateLimiter
	// TrustedProxies may set X-Forwarded-For for rate limiting.
	TrustedProxies []netip.Prefix
	Idempotency    *guard.IdempotencyGuard
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger

	progressHandler := handler.NewProgressHandler(deps.Progress, deps.Idempotency)

	r := chi.NewRouter()

	// Global middleware
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(deps.CORSAllowedOrigins))
	if deps.RateLimiter != nil {
		r.Use(handler.RateLimit(deps.RateLimiter, deps.TrustedProxies))
	}
	r.Use(handler.JSONContentType)

	// Health check
	r.Get("/health", handler.HealthHandler(deps.StoreName, deps.StorePinger))

	r.Get("/catalog", progressHandler.GetCatalog)

	r.Route("/progress", func(r chi.Router) {
		r.Get("/", progressHandler.GetProgress)
		r.Delete("/", progressHandler.ResetProgress)
		r.Get("/level", progressHandler.GetLevel)
		r.Post("/xp", progressHandler.AddXP)
		r.Post("/streak", progressHandler.UpdateStreak)

		r.Get("/modules", progressHandler.ListModules)
		r.Get("/modules/{moduleID}", progressHandler.GetModule)

		r.Post("/lessons/{lessonID}/complete", progressHandler.CompleteLesson)
		r.Post("/quizzes/{quizID}/complete", progressHandler.CompleteQuiz)
		r.Post("/games/{gameID}/complete", progressHandler.CompleteGame)

		r.Get("/badges", progressHandler.ListBadges)
		r.Post("/badges/sync", progressHandler.SyncBadges)
		r.Post("/badges/{badgeID}/unlock", progressHandler.UnlockBadge)

		if deps.Hub != nil {
			streamHandler := handler.NewStreamHandler(deps.Hub, deps.Progress, logger)
			r.Get("/stream", streamHandler.Stream)
		}
	})

	return r
}
