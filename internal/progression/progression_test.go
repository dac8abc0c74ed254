package progression

import (
	"testing"
	"time"

	"github.com/attaboy/academy/internal/catalog"
	"github.com/attaboy/academy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLevels = []domain.Level{
	{Level: 1, MinXP: 0, Name: "Novice"},
	{Level: 2, MinXP: 101, Name: "Apprentice"},
	{Level: 3, MinXP: 301, Name: "Tinkerer"},
}

var testRewards = domain.XPRewards{Lesson: 10, QuizPassed: 20, QuizPerfect: 50, Game: 30, StreakBonus: 20}

// --- Level Resolver Tests ---

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		name        string
		xp          int
		wantLevel   int
		wantNext    int
		wantPercent int
	}{
		{"zero xp", 0, 1, 2, 0},
		{"just below level 2", 100, 1, 2, 99},
		{"exactly level 2", 101, 2, 3, 0},
		{"150 reaches level 2", 150, 2, 3, 25},
		{"halfway rounds", 201, 2, 3, 50},
		{"top level", 301, 3, 0, 100},
		{"far beyond top", 99999, 3, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ResolveLevel(testLevels, tt.xp)
			assert.Equal(t, tt.wantLevel, info.Current.Level)
			assert.Equal(t, tt.wantPercent, info.ProgressPercent)
			if tt.wantNext == 0 {
				assert.Nil(t, info.Next)
			} else {
				require.NotNil(t, info.Next)
				assert.Equal(t, tt.wantNext, info.Next.Level)
			}
		})
	}
}

func TestResolveLevel_NegativeXPClampsToFirstLevel(t *testing.T) {
	info := ResolveLevel(testLevels, -50)
	assert.Equal(t, 1, info.Current.Level)
	assert.Equal(t, 0, info.ProgressPercent)
}

func TestResolveLevel_SingleLevelCatalog(t *testing.T) {
	info := ResolveLevel(testLevels[:1], 42)
	assert.Equal(t, 1, info.Current.Level)
	assert.Nil(t, info.Next)
	assert.Equal(t, 100, info.ProgressPercent)
}

// --- Streak Calculator Tests ---

func TestUpdateStreak(t *testing.T) {
	const today = "2026-03-10"

	tests := []struct {
		name    string
		current int
		last    string
		want    StreakResult
	}{
		{"same day is unchanged", 4, today, StreakResult{NewStreak: 4}},
		{"first ever activity", 0, "", StreakResult{NewStreak: 1, Changed: true}},
		{"yesterday without bonus", 1, "2026-03-09", StreakResult{NewStreak: 2, Changed: true}},
		{"yesterday reaches single tier", 2, "2026-03-09", StreakResult{NewStreak: 3, BonusXP: 20, Changed: true}},
		{"single tier continues", 5, "2026-03-09", StreakResult{NewStreak: 6, BonusXP: 20, Changed: true}},
		{"yesterday reaches double tier", 6, "2026-03-09", StreakResult{NewStreak: 7, BonusXP: 40, Changed: true}},
		{"two days ago resets", 9, "2026-03-08", StreakResult{NewStreak: 1, Changed: true}},
		{"long gap resets", 30, "2025-12-01", StreakResult{NewStreak: 1, Changed: true}},
		{"future last date is unchanged", 3, "2026-03-11", StreakResult{NewStreak: 3}},
		{"garbage last date counts as absent", 5, "not-a-date", StreakResult{NewStreak: 1, Changed: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UpdateStreak(tt.current, tt.last, today, testRewards)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUpdateStreak_AcrossMonthAndYear(t *testing.T) {
	got := UpdateStreak(2, "2025-12-31", "2026-01-01", testRewards)
	assert.Equal(t, StreakResult{NewStreak: 3, BonusXP: 20, Changed: true}, got)

	got = UpdateStreak(1, "2028-02-28", "2028-02-29", testRewards)
	assert.Equal(t, 2, got.NewStreak)
}

func TestUpdateStreak_InvalidTodayIsUnchanged(t *testing.T) {
	got := UpdateStreak(2, "2026-03-09", "", testRewards)
	assert.False(t, got.Changed)
	assert.Equal(t, 2, got.NewStreak)
}

func TestDateString(t *testing.T) {
	ts := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-10", DateString(ts, nil))

	tokyo := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, "2026-03-11", DateString(ts, tokyo))
}

func TestDaysBetween(t *testing.T) {
	n, err := DaysBetween("2026-03-01", "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	_, err = DaysBetween("03/01/2026", "2026-03-10")
	assert.Error(t, err)
}

// --- Badge Rule Evaluator Tests ---

func testCatalog() *domain.Catalog {
	return &domain.Catalog{
		Levels:  testLevels,
		Rewards: testRewards,
		Modules: []domain.Module{
			{ID: "m1", Lessons: []string{"l1", "l2"}, QuizID: "q1", GameID: "g1"},
			{ID: "m2", Lessons: []string{"l3"}, QuizID: "q2", GameID: "g2", RequiredXP: 100},
		},
		Badges: []domain.Badge{
			{ID: "first", Condition: domain.FirstLesson{}},
			{ID: "m1-done", Condition: domain.CompleteModule{ModuleID: "m1"}},
			{ID: "perfect-1", Condition: domain.PerfectQuiz{Count: 1}},
			{ID: "perfect-2", Condition: domain.PerfectQuiz{Count: 2}},
			{ID: "streak-3", Condition: domain.StreakReached{Days: 3}},
			{ID: "all-modules", Condition: domain.CompleteAllModules{}},
			{ID: "all-games", Condition: domain.CompleteAllGames{}},
			{ID: "speedy", Condition: domain.SpeedRun{ModuleID: "m1", MaxMinutes: 1}},
			{ID: "xp-100", Condition: domain.XPThreshold{XP: 100}},
		},
	}
}

func TestEvaluate_EmptySnapshotEarnsNothing(t *testing.T) {
	assert.Empty(t, Evaluate(domain.NewSnapshot(), testCatalog()))
}

func TestEvaluate_Conditions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *domain.Snapshot)
		want  []string
	}{
		{
			name:  "first lesson",
			setup: func(p *domain.Snapshot) { p.CompletedLessons.Add("anything") },
			want:  []string{"first"},
		},
		{
			name: "module completion with plain quiz",
			setup: func(p *domain.Snapshot) {
				p.CompletedLessons.Add("l1")
				p.CompletedLessons.Add("l2")
				p.CompletedQuizzes.Add("q1")
				p.CompletedGames.Add("g1")
			},
			want: []string{"first", "m1-done"},
		},
		{
			name: "module completion with perfect quiz only",
			setup: func(p *domain.Snapshot) {
				p.CompletedLessons.Add("l1")
				p.CompletedLessons.Add("l2")
				p.CompletedQuizzes.Add("q1-perfect")
				p.CompletedGames.Add("g1")
			},
			want: []string{"first", "m1-done", "perfect-1"},
		},
		{
			name: "module missing game",
			setup: func(p *domain.Snapshot) {
				p.CompletedLessons.Add("l1")
				p.CompletedLessons.Add("l2")
				p.CompletedQuizzes.Add("q1")
			},
			want: []string{"first"},
		},
		{
			name: "quiz id sharing a prefix does not count",
			setup: func(p *domain.Snapshot) {
				p.CompletedLessons.Add("l1")
				p.CompletedLessons.Add("l2")
				p.CompletedQuizzes.Add("q10")
				p.CompletedGames.Add("g1")
			},
			want: []string{"first"},
		},
		{
			name: "two perfect quizzes",
			setup: func(p *domain.Snapshot) {
				p.CompletedQuizzes.Add("q1-perfect")
				p.CompletedQuizzes.Add("q2-perfect")
			},
			want: []string{"perfect-1", "perfect-2"},
		},
		{
			name:  "streak threshold",
			setup: func(p *domain.Snapshot) { p.Streak = 3 },
			want:  []string{"streak-3"},
		},
		{
			name: "all games without lessons",
			setup: func(p *domain.Snapshot) {
				p.CompletedGames.Add("g1")
				p.CompletedGames.Add("g2")
			},
			want: []string{"all-games"},
		},
		{
			name:  "xp threshold",
			setup: func(p *domain.Snapshot) { p.XP = 100 },
			want:  []string{"xp-100"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.NewSnapshot()
			tt.setup(p)
			assert.Equal(t, tt.want, Evaluate(p, testCatalog()))
		})
	}
}

func TestEvaluate_EverythingDone(t *testing.T) {
	p := domain.NewSnapshot()
	for _, l := range []string{"l1", "l2", "l3"} {
		p.CompletedLessons.Add(l)
	}
	p.CompletedQuizzes.Add("q1-perfect")
	p.CompletedQuizzes.Add("q2-perfect")
	p.CompletedGames.Add("g1")
	p.CompletedGames.Add("g2")
	p.Streak = 10
	p.XP = 5000

	got := Evaluate(p, testCatalog())
	assert.Equal(t, []string{"first", "m1-done", "perfect-1", "perfect-2", "streak-3", "all-modules", "all-games", "xp-100"}, got)
	assert.NotContains(t, got, "speedy")
}

func TestEvaluate_SkipsUnlockedAndDoesNotMutate(t *testing.T) {
	p := domain.NewSnapshot()
	p.CompletedLessons.Add("l1")
	p.XP = 200
	p.Badges.Add("first")

	got := Evaluate(p, testCatalog())
	assert.Equal(t, []string{"xp-100"}, got)
	assert.Equal(t, []string{"first"}, p.Badges.Sorted())
}

func TestEvaluate_DefaultCatalogFirstLesson(t *testing.T) {
	p := domain.NewSnapshot()
	p.CompletedLessons.Add("what-is-capacitor")
	assert.Equal(t, []string{"first-spark"}, Evaluate(p, catalog.Default()))
}

func TestSatisfied_SpeedRunNeverHolds(t *testing.T) {
	p := domain.NewSnapshot()
	p.XP = 1 << 20
	for _, m := range catalog.Default().Modules {
		for _, l := range m.Lessons {
			p.CompletedLessons.Add(l)
		}
		p.CompletedQuizzes.Add(domain.PerfectQuizID(m.QuizID))
		p.CompletedGames.Add(m.GameID)
	}
	assert.False(t, Satisfied(domain.SpeedRun{ModuleID: "capacitors", MaxMinutes: 1000}, p, catalog.Default()))
}

func TestSatisfied_UnknownModuleNeverHolds(t *testing.T) {
	p := domain.NewSnapshot()
	assert.False(t, Satisfied(domain.CompleteModule{ModuleID: "ghost"}, p, testCatalog()))
}

// --- Module Status Tests ---

func TestStatusOf(t *testing.T) {
	c := testCatalog()
	p := domain.NewSnapshot()
	p.XP = 50
	p.CompletedLessons.Add("l1")
	p.CompletedQuizzes.Add("q1-perfect")

	s := StatusOf(c.Modules[0], p)
	assert.Equal(t, "m1", s.ModuleID)
	assert.True(t, s.Unlocked)
	assert.Equal(t, 1, s.LessonsCompleted)
	assert.Equal(t, 2, s.LessonsTotal)
	assert.True(t, s.QuizPassed)
	assert.True(t, s.QuizPerfect)
	assert.False(t, s.GameCompleted)
	assert.False(t, s.Complete)
	assert.Equal(t, 50, s.Percent)

	locked := StatusOf(c.Modules[1], p)
	assert.False(t, locked.Unlocked)
	assert.Equal(t, 0, locked.Percent)

	p.CompletedLessons.Add("l2")
	p.CompletedGames.Add("g1")
	done := StatusOf(c.Modules[0], p)
	assert.True(t, done.Complete)
	assert.Equal(t, 100, done.Percent)
}
