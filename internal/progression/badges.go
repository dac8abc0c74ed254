package progression

import (
	"github.com/attaboy/academy/internal/domain"
)

// Evaluate returns, in catalog order, the badges whose condition holds for p
// and that p has not unlocked yet. It does not modify p.
func Evaluate(p *domain.Snapshot, c *domain.Catalog) []string {
	var earned []string
	for _, b := range c.Badges {
		if p.Badges.Has(b.ID) {
			continue
		}
		if Satisfied(b.Condition, p, c) {
			earned = append(earned, b.ID)
		}
	}
	return earned
}

// Satisfied tests a single condition against p.
func Satisfied(cond domain.Condition, p *domain.Snapshot, c *domain.Catalog) bool {
	switch v := cond.(type) {
	case domain.FirstLesson:
		return len(p.CompletedLessons) >= 1
	case domain.CompleteModule:
		m, ok := c.Module(v.ModuleID)
		return ok && ModuleComplete(m, p)
	case domain.PerfectQuiz:
		return p.PerfectQuizCount() >= v.Count
	case domain.StreakReached:
		return p.Streak >= v.Days
	case domain.CompleteAllModules:
		for _, m := range c.Modules {
			if !ModuleComplete(m, p) {
				return false
			}
		}
		return true
	case domain.CompleteAllGames:
		for _, m := range c.Modules {
			if !p.CompletedGames.Has(m.GameID) {
				return false
			}
		}
		return true
	case domain.SpeedRun:
		// No completion timings are recorded.
		return false
	case domain.XPThreshold:
		return p.XP >= v.XP
	default:
		return false
	}
}

// ModuleComplete reports whether every lesson, the quiz and the game of m are done.
func ModuleComplete(m domain.Module, p *domain.Snapshot) bool {
	for _, l := range m.Lessons {
		if !p.CompletedLessons.Has(l) {
			return false
		}
	}
	return p.QuizPassed(m.QuizID) && p.CompletedGames.Has(m.GameID)
}
