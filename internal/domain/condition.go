package domain

// ConditionKind names a badge rule variant.
type ConditionKind string

const (
	KindFirstLesson        ConditionKind = "first_lesson"
	KindCompleteModule     ConditionKind = "complete_module"
	KindPerfectQuiz        ConditionKind = "perfect_quiz"
	KindStreak             ConditionKind = "streak"
	KindCompleteAllModules ConditionKind = "complete_all_modules"
	KindCompleteAllGames   ConditionKind = "complete_all_games"
	KindSpeedRun           ConditionKind = "speed_run"
	KindXPThreshold        ConditionKind = "xp_threshold"
)

// AllConditionKinds lists every variant in declaration order.
var AllConditionKinds = []ConditionKind{
	KindFirstLesson,
	KindCompleteModule,
	KindPerfectQuiz,
	KindStreak,
	KindCompleteAllModules,
	KindCompleteAllGames,
	KindSpeedRun,
	KindXPThreshold,
}

// Condition is the closed set of badge rules. Only types in this package implement it.
type Condition interface {
	Kind() ConditionKind
	condition()
}

// FirstLesson holds once any lesson is completed.
type FirstLesson struct{}

// CompleteModule holds when every lesson, the quiz and the game of a module are done.
type CompleteModule struct {
	ModuleID string
}

// PerfectQuiz holds once Count quizzes were passed with full marks.
type PerfectQuiz struct {
	Count int
}

// StreakReached holds while the streak is at least Days long.
type StreakReached struct {
	Days int
}

// CompleteAllModules holds when CompleteModule holds for every catalog module.
type CompleteAllModules struct{}

// CompleteAllGames holds when every module's game is completed.
type CompleteAllGames struct{}

// SpeedRun describes finishing a module within MaxMinutes. Completion times are
// not recorded, so it never holds.
type SpeedRun struct {
	ModuleID   string
	MaxMinutes int
}

// XPThreshold holds once total XP reaches XP.
type XPThreshold struct {
	XP int
}

func (FirstLesson) Kind() ConditionKind        { return KindFirstLesson }
func (CompleteModule) Kind() ConditionKind     { return KindCompleteModule }
func (PerfectQuiz) Kind() ConditionKind        { return KindPerfectQuiz }
func (StreakReached) Kind() ConditionKind      { return KindStreak }
func (CompleteAllModules) Kind() ConditionKind { return KindCompleteAllModules }
func (CompleteAllGames) Kind() ConditionKind   { return KindCompleteAllGames }
func (SpeedRun) Kind() ConditionKind           { return KindSpeedRun }
func (XPThreshold) Kind() ConditionKind        { return KindXPThreshold }

func (FirstLesson) condition()        {}
func (CompleteModule) condition()     {}
func (PerfectQuiz) condition()        {}
func (StreakReached) condition()      {}
func (CompleteAllModules) condition() {}
func (CompleteAllGames) condition()   {}
func (SpeedRun) condition()           {}
func (XPThreshold) condition()        {}
