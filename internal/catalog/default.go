// Package catalog provides the levels, modules and badges the progression engine reads.
package catalog

import "github.com/attaboy/academy/internal/domain"

// Default returns the built-in electronics curriculum.
func Default() *domain.Catalog {
	return &domain.Catalog{
		Rewards: domain.XPRewards{
			Lesson:      10,
			QuizPassed:  20,
			QuizPerfect: 50,
			Game:        30,
			StreakBonus: 20,
		},
		Levels: []domain.Level{
			{Level: 1, MinXP: 0, Name: "Novice", Icon: "🔌", Color: "#9ca3af"},
			{Level: 2, MinXP: 101, Name: "Apprentice", Icon: "💡", Color: "#60a5fa"},
			{Level: 3, MinXP: 301, Name: "Tinkerer", Icon: "🔧", Color: "#34d399"},
			{Level: 4, MinXP: 601, Name: "Builder", Icon: "🛠️", Color: "#fbbf24"},
			{Level: 5, MinXP: 1001, Name: "Engineer", Icon: "⚙️", Color: "#f97316"},
			{Level: 6, MinXP: 1501, Name: "Inventor", Icon: "🚀", Color: "#a78bfa"},
			{Level: 7, MinXP: 2501, Name: "Master", Icon: "👑", Color: "#f43f5e"},
		},
		Modules: []domain.Module{
			{
				ID:         "electricity-basics",
				Title:      "Electricity Basics",
				RequiredXP: 0,
				Lessons:    []string{"what-is-electricity", "voltage-and-current", "ohms-law"},
				QuizID:     "quiz-electricity-basics",
				GameID:     "game-circuit-builder",
			},
			{
				ID:         "capacitors",
				Title:      "Capacitors",
				RequiredXP: 50,
				Lessons:    []string{"what-is-capacitor", "charging-and-discharging", "capacitors-in-circuits"},
				QuizID:     "quiz-capacitors",
				GameID:     "game-charge-race",
			},
			{
				ID:         "resistors",
				Title:      "Resistors",
				RequiredXP: 150,
				Lessons:    []string{"what-is-resistor", "color-codes", "series-and-parallel"},
				QuizID:     "quiz-resistors",
				GameID:     "game-color-code-match",
			},
			{
				ID:         "transistors",
				Title:      "Transistors",
				RequiredXP: 300,
				Lessons:    []string{"what-is-transistor", "transistor-as-switch", "amplifiers"},
				QuizID:     "quiz-transistors",
				GameID:     "game-logic-gates",
			},
		},
		Badges: []domain.Badge{
			{ID: "first-spark", Name: "First Spark", Description: "Complete your first lesson", Icon: "⚡", XPBonus: 10,
				Condition: domain.FirstLesson{}},
			{ID: "electricity-master", Name: "Current Master", Description: "Complete the Electricity Basics module", Icon: "🔋", XPBonus: 50,
				Condition: domain.CompleteModule{ModuleID: "electricity-basics"}},
			{ID: "capacitor-master", Name: "Charge Keeper", Description: "Complete the Capacitors module", Icon: "🔋", XPBonus: 50,
				Condition: domain.CompleteModule{ModuleID: "capacitors"}},
			{ID: "resistor-master", Name: "Resistance Is Futile", Description: "Complete the Resistors module", Icon: "🧱", XPBonus: 50,
				Condition: domain.CompleteModule{ModuleID: "resistors"}},
			{ID: "transistor-master", Name: "Switch Flipper", Description: "Complete the Transistors module", Icon: "🎛️", XPBonus: 50,
				Condition: domain.CompleteModule{ModuleID: "transistors"}},
			{ID: "perfectionist", Name: "Perfectionist", Description: "Score 100% on a quiz", Icon: "🎯", XPBonus: 25,
				Condition: domain.PerfectQuiz{Count: 1}},
			{ID: "quiz-ace", Name: "Quiz Ace", Description: "Score 100% on three quizzes", Icon: "🏹", XPBonus: 75,
				Condition: domain.PerfectQuiz{Count: 3}},
			{ID: "on-fire", Name: "On Fire", Description: "Keep a three day streak", Icon: "🔥", XPBonus: 30,
				Condition: domain.StreakReached{Days: 3}},
			{ID: "week-warrior", Name: "Week Warrior", Description: "Keep a seven day streak", Icon: "📅", XPBonus: 70,
				Condition: domain.StreakReached{Days: 7}},
			{ID: "academy-graduate", Name: "Graduate", Description: "Complete every module", Icon: "🎓", XPBonus: 200,
				Condition: domain.CompleteAllModules{}},
			{ID: "game-champion", Name: "Game Champion", Description: "Win every module game", Icon: "🏆", XPBonus: 100,
				Condition: domain.CompleteAllGames{}},
			{ID: "speed-demon", Name: "Speed Demon", Description: "Finish the Capacitors module in under 10 minutes", Icon: "⏱️", XPBonus: 50,
				Condition: domain.SpeedRun{ModuleID: "capacitors", MaxMinutes: 10}},
			{ID: "xp-500", Name: "Rising Star", Description: "Earn 500 XP", Icon: "⭐", XPBonus: 0,
				Condition: domain.XPThreshold{XP: 500}},
			{ID: "xp-1000", Name: "Powerhouse", Description: "Earn 1000 XP", Icon: "🌟", XPBonus: 0,
				Condition: domain.XPThreshold{XP: 1000}},
		},
	}
}
