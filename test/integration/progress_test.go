//go:build integration

package integration

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/attaboy/academy/internal/app"
	"github.com/attaboy/academy/internal/infra"
	"github.com/attaboy/academy/internal/progression"
	"github.com/attaboy/academy/internal/service"
	"github.com/attaboy/academy/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_ReportsPostgres(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.GET("/health")
	testutil.AssertStatus(t, resp, http.StatusOK)

	var body map[string]string
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, infra.StorePostgres, body["store"])
}

func TestProgress_InitPersistsDefaultSnapshot(t *testing.T) {
	env := testutil.NewTestEnv(t)

	stored := testutil.StoredSnapshot(t, env)
	assert.Equal(t, 0, stored.XP)
	assert.Equal(t, 1, stored.Level)
	assert.Equal(t, env.Progress.Snapshot().ID, stored.ID)
}

func TestProgress_ModuleRunPersists(t *testing.T) {
	env := testutil.NewTestEnv(t)

	for _, lesson := range []string{"what-is-electricity", "voltage-and-current", "ohms-law"} {
		resp := env.POST("/progress/lessons/"+lesson+"/complete", nil)
		testutil.AssertStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	}

	resp := env.POST("/progress/quizzes/quiz-electricity-basics/complete", map[string]int{"score": 5, "total": 5})
	testutil.AssertStatus(t, resp, http.StatusOK)
	var quiz service.Result
	testutil.DecodeJSON(t, resp, &quiz)
	assert.Equal(t, 50, quiz.XPGained)

	resp = env.POST("/progress/games/game-circuit-builder/complete", nil)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var game service.Result
	testutil.DecodeJSON(t, resp, &game)
	assert.Contains(t, game.NewBadges, "electricity-master")

	stored := testutil.StoredSnapshot(t, env)
	assert.Equal(t, 110, stored.XP)
	assert.Equal(t, 2, stored.Level)
	assert.True(t, stored.CompletedQuizzes.Has("quiz-electricity-basics-perfect"))
	assert.True(t, stored.Badges.Has("first-spark"))
	assert.True(t, stored.Badges.Has("perfectionist"))
	assert.True(t, stored.Badges.Has("electricity-master"))

	resp = env.GET("/progress/modules/electricity-basics")
	testutil.AssertStatus(t, resp, http.StatusOK)
	var mod progression.ModuleStatus
	testutil.DecodeJSON(t, resp, &mod)
	assert.True(t, mod.Complete)
	assert.Equal(t, 100, mod.Percent)
}

func TestProgress_SurvivesRestart(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.POST("/progress/xp", map[string]int{"amount": 320})
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	cfg := &infra.Config{StorageKey: env.Key, TimeZone: "UTC"}
	restarted, err := app.NewProgressService(cfg, env.Store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	_, err = restarted.Init(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 320, restarted.Snapshot().XP)
	assert.Equal(t, 3, restarted.LevelInfo().Current.Level)
}

func TestProgress_IdempotentXP(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.POSTWithKey("/progress/xp", map[string]int{"amount": 40}, "retry-1")
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.POSTWithKey("/progress/xp", map[string]int{"amount": 40}, "retry-1")
	testutil.AssertStatus(t, resp, http.StatusConflict)
	resp.Body.Close()

	assert.Equal(t, 40, testutil.StoredSnapshot(t, env).XP)
}

func TestProgress_Validation(t *testing.T) {
	env := testutil.NewTestEnv(t)

	tests := []struct {
		name string
		path string
		body interface{}
	}{
		{"zero xp", "/progress/xp", map[string]int{"amount": 0}},
		{"score above total", "/progress/quizzes/quiz-capacitors/complete", map[string]int{"score": 6, "total": 5}},
		{"zero total", "/progress/quizzes/quiz-capacitors/complete", map[string]int{"score": 0, "total": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.POST(tt.path, tt.body)
			testutil.AssertStatus(t, resp, http.StatusBadRequest)
			testutil.AssertErrorCode(t, resp, "VALIDATION_ERROR")
		})
	}

	assert.Equal(t, 0, testutil.StoredSnapshot(t, env).XP)
}

func TestProgress_Reset(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.POST("/progress/lessons/ohms-law/complete", nil)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	before := testutil.StoredSnapshot(t, env)

	resp = env.DELETE("/progress")
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	after := testutil.StoredSnapshot(t, env)
	assert.Equal(t, 0, after.XP)
	assert.Empty(t, after.Badges)
	assert.Empty(t, after.CompletedLessons)
	assert.NotEqual(t, before.ID, after.ID)
}

func TestProgress_UnknownModule(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.GET("/progress/modules/quantum-tunnelling")
	testutil.AssertStatus(t, resp, http.StatusNotFound)
	testutil.AssertErrorCode(t, resp, "NOT_FOUND")
}
