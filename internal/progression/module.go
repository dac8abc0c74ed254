package progression

import (
	"math"

	"github.com/attaboy/academy/internal/domain"
)

// ModuleStatus summarises a learner's progress through one module.
type ModuleStatus struct {
	ModuleID         string `json:"moduleId"`
	Title            string `json:"title"`
	Unlocked         bool   `json:"unlocked"`
	LessonsCompleted int    `json:"lessonsCompleted"`
	LessonsTotal     int    `json:"lessonsTotal"`
	QuizPassed       bool   `json:"quizPassed"`
	QuizPerfect      bool   `json:"quizPerfect"`
	GameCompleted    bool   `json:"gameCompleted"`
	Complete         bool   `json:"complete"`
	Percent          int    `json:"percent"`
}

// StatusOf computes m's status for p. Each lesson, the quiz and the game count as one step.
func StatusOf(m domain.Module, p *domain.Snapshot) ModuleStatus {
	s := ModuleStatus{
		ModuleID:      m.ID,
		Title:         m.Title,
		Unlocked:      p.XP >= m.RequiredXP,
		LessonsTotal:  len(m.Lessons),
		QuizPassed:    p.QuizPassed(m.QuizID),
		QuizPerfect:   p.CompletedQuizzes.Has(domain.PerfectQuizID(m.QuizID)),
		GameCompleted: p.CompletedGames.Has(m.GameID),
	}
	for _, l := range m.Lessons {
		if p.CompletedLessons.Has(l) {
			s.LessonsCompleted++
		}
	}

	done := s.LessonsCompleted
	if s.QuizPassed {
		done++
	}
	if s.GameCompleted {
		done++
	}
	steps := s.LessonsTotal + 2
	s.Percent = int(math.Round(100 * float64(done) / float64(steps)))
	s.Complete = ModuleComplete(m, p)
	return s
}
