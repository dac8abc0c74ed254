package handler

import (
	"context"
	"net/http"

	"github.com/attaboy/academy/internal/domain"
	"github.com/attaboy/academy/internal/guard"
	"github.com/attaboy/academy/internal/progression"
	"github.com/attaboy/academy/internal/service"
	"github.com/go-chi/chi/v5"
)

// ProgressHandler exposes the learner's progress and the mutation operations.
type ProgressHandler struct {
	progress *service.ProgressService
	idem     *guard.IdempotencyGuard
}

// NewProgressHandler creates a new ProgressHandler. idem may be nil to accept
// repeated XP grants.
func NewProgressHandler(progress *service.ProgressService, idem *guard.IdempotencyGuard) *ProgressHandler {
	return &ProgressHandler{progress: progress, idem: idem}
}

type progressResponse struct {
	Snapshot *domain.Snapshot      `json:"snapshot"`
	Level    progression.LevelInfo `json:"level"`
}

// GetProgress handles GET /progress.
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, progressResponse{
		Snapshot: h.progress.Snapshot(),
		Level:    h.progress.LevelInfo(),
	})
}

// GetLevel handles GET /progress/level.
func (h *ProgressHandler) GetLevel(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.progress.LevelInfo())
}

// ListModules handles GET /progress/modules.
func (h *ProgressHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.progress.Modules())
}

// GetModule handles GET /progress/modules/{moduleID}.
func (h *ProgressHandler) GetModule(w http.ResponseWriter, r *http.Request) {
	status, err := h.progress.ModuleProgress(chi.URLParam(r, "moduleID"))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, status)
}

// ListBadges handles GET /progress/badges.
func (h *ProgressHandler) ListBadges(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.progress.BadgeBoard())
}

// GetCatalog handles GET /catalog.
func (h *ProgressHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.progress.Catalog())
}

type addXPRequest struct {
	Amount int `json:"amount"`
}

// AddXP handles POST /progress/xp. An Idempotency-Key header makes retries safe.
func (h *ProgressHandler) AddXP(w http.ResponseWriter, r *http.Request) {
	var req addXPRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if h.idem != nil {
		if res := h.idem.Check(r.Context(), key); !res.Allowed {
			RespondError(w, domain.ErrConflict(res.Reason))
			return
		}
	}

	result, err := h.progress.AddXP(r.Context(), req.Amount)
	if err != nil {
		// A failed save still leaves the grant applied in memory, so the key
		// stays claimed and a retry answers 409 instead of granting twice.
		if h.idem != nil && key != "" && !result.Changed {
			h.idem.Remove(key)
		}
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// CompleteLesson handles POST /progress/lessons/{lessonID}/complete.
func (h *ProgressHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	h.respondResult(w, r, func(ctx context.Context) (service.Result, error) {
		return h.progress.CompleteLesson(ctx, chi.URLParam(r, "lessonID"))
	})
}

type completeQuizRequest struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

// CompleteQuiz handles POST /progress/quizzes/{quizID}/complete.
func (h *ProgressHandler) CompleteQuiz(w http.ResponseWriter, r *http.Request) {
	var req completeQuizRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	h.respondResult(w, r, func(ctx context.Context) (service.Result, error) {
		return h.progress.CompleteQuiz(ctx, chi.URLParam(r, "quizID"), req.Score, req.Total)
	})
}

// CompleteGame handles POST /progress/games/{gameID}/complete.
func (h *ProgressHandler) CompleteGame(w http.ResponseWriter, r *http.Request) {
	h.respondResult(w, r, func(ctx context.Context) (service.Result, error) {
		return h.progress.CompleteGame(ctx, chi.URLParam(r, "gameID"))
	})
}

// UnlockBadge handles POST /progress/badges/{badgeID}/unlock.
func (h *ProgressHandler) UnlockBadge(w http.ResponseWriter, r *http.Request) {
	h.respondResult(w, r, func(ctx context.Context) (service.Result, error) {
		return h.progress.UnlockBadge(ctx, chi.URLParam(r, "badgeID"))
	})
}

// SyncBadges handles POST /progress/badges/sync.
func (h *ProgressHandler) SyncBadges(w http.ResponseWriter, r *http.Request) {
	h.respondResult(w, r, h.progress.SyncBadges)
}

// UpdateStreak handles POST /progress/streak.
func (h *ProgressHandler) UpdateStreak(w http.ResponseWriter, r *http.Request) {
	h.respondResult(w, r, h.progress.UpdateStreak)
}

// ResetProgress handles DELETE /progress.
func (h *ProgressHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	h.respondResult(w, r, h.progress.ResetProgress)
}

func (h *ProgressHandler) respondResult(w http.ResponseWriter, r *http.Request, op func(ctx context.Context) (service.Result, error)) {
	result, err := op(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}
