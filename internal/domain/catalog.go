package domain

import (
	"fmt"
)

// Level is an XP tier. MinXP is an inclusive lower bound; the last level is unbounded.
type Level struct {
	Level int    `json:"level" yaml:"level"`
	MinXP int    `json:"minXP" yaml:"min_xp"`
	Name  string `json:"name" yaml:"name"`
	Icon  string `json:"icon" yaml:"icon"`
	Color string `json:"color" yaml:"color"`
}

// Badge is an achievement unlocked when its single Condition holds.
type Badge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	XPBonus     int       `json:"xpBonus"`
	Condition   Condition `json:"-"`
}

// Module groups the lessons, quiz and game that make up one unit of content.
type Module struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	RequiredXP int      `json:"requiredXP" yaml:"required_xp"`
	Lessons    []string `json:"lessons" yaml:"lessons"`
	QuizID     string   `json:"quizId" yaml:"quiz_id"`
	GameID     string   `json:"gameId" yaml:"game_id"`
}

// XPRewards is the reward table for completions and streak bonuses.
// A streak of seven days or more earns twice StreakBonus.
type XPRewards struct {
	Lesson      int `json:"lesson" yaml:"lesson"`
	QuizPassed  int `json:"quizPassed" yaml:"quiz_passed"`
	QuizPerfect int `json:"quizPerfect" yaml:"quiz_perfect"`
	Game        int `json:"game" yaml:"game"`
	StreakBonus int `json:"streakBonus" yaml:"streak_bonus"`
}

// Catalog is the read-only content the engine resolves levels and badges against.
type Catalog struct {
	Levels  []Level   `json:"levels"`
	Badges  []Badge   `json:"badges"`
	Modules []Module  `json:"modules"`
	Rewards XPRewards `json:"rewards"`
}

// Module looks up a module by id.
func (c *Catalog) Module(id string) (Module, bool) {
	for _, m := range c.Modules {
		if m.ID == id {
			return m, true
		}
	}
	return Module{}, false
}

// Badge looks up a badge by id.
func (c *Catalog) Badge(id string) (Badge, bool) {
	for _, b := range c.Badges {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// FirstLevel returns the lowest catalog level.
func (c *Catalog) FirstLevel() Level {
	return c.Levels[0]
}

// Validate checks the structural rules every catalog must satisfy before use.
func (c *Catalog) Validate() error {
	if len(c.Levels) == 0 {
		return fmt.Errorf("catalog has no levels")
	}
	if c.Levels[0].MinXP != 0 {
		return fmt.Errorf("first level must start at 0 xp, got %d", c.Levels[0].MinXP)
	}
	for i := 1; i < len(c.Levels); i++ {
		prev, cur := c.Levels[i-1], c.Levels[i]
		if cur.Level <= prev.Level {
			return fmt.Errorf("level %d must be numbered above level %d", cur.Level, prev.Level)
		}
		if cur.MinXP <= prev.MinXP {
			return fmt.Errorf("level %d min xp %d must exceed %d", cur.Level, cur.MinXP, prev.MinXP)
		}
	}

	rewards := []struct {
		name  string
		value int
	}{
		{"lesson", c.Rewards.Lesson},
		{"quiz passed", c.Rewards.QuizPassed},
		{"quiz perfect", c.Rewards.QuizPerfect},
		{"game", c.Rewards.Game},
		{"streak bonus", c.Rewards.StreakBonus},
	}
	for _, r := range rewards {
		if r.value < 0 {
			return fmt.Errorf("%s reward must not be negative, got %d", r.name, r.value)
		}
	}
	if c.Rewards.QuizPerfect < c.Rewards.QuizPassed {
		return fmt.Errorf("quiz perfect reward %d is below quiz passed reward %d", c.Rewards.QuizPerfect, c.Rewards.QuizPassed)
	}

	modules := make(map[string]bool, len(c.Modules))
	for _, m := range c.Modules {
		if m.ID == "" {
			return fmt.Errorf("module id is required")
		}
		if modules[m.ID] {
			return fmt.Errorf("duplicate module id: %s", m.ID)
		}
		modules[m.ID] = true
		if m.RequiredXP < 0 {
			return fmt.Errorf("module %s required xp must not be negative", m.ID)
		}
	}

	badges := make(map[string]bool, len(c.Badges))
	for _, b := range c.Badges {
		if b.ID == "" {
			return fmt.Errorf("badge id is required")
		}
		if badges[b.ID] {
			return fmt.Errorf("duplicate badge id: %s", b.ID)
		}
		badges[b.ID] = true
		if b.XPBonus < 0 {
			return fmt.Errorf("badge %s xp bonus must not be negative", b.ID)
		}
		if b.Condition == nil {
			return fmt.Errorf("badge %s has no condition", b.ID)
		}
		if err := validateCondition(b.Condition, modules); err != nil {
			return fmt.Errorf("badge %s: %w", b.ID, err)
		}
	}
	return nil
}

func validateCondition(cond Condition, modules map[string]bool) error {
	switch c := cond.(type) {
	case CompleteModule:
		if !modules[c.ModuleID] {
			return fmt.Errorf("unknown module %q", c.ModuleID)
		}
	case SpeedRun:
		if !modules[c.ModuleID] {
			return fmt.Errorf("unknown module %q", c.ModuleID)
		}
		if c.MaxMinutes <= 0 {
			return fmt.Errorf("speed run minutes must be positive")
		}
	case PerfectQuiz:
		if c.Count <= 0 {
			return fmt.Errorf("perfect quiz count must be positive")
		}
	case StreakReached:
		if c.Days <= 0 {
			return fmt.Errorf("streak days must be positive")
		}
	case XPThreshold:
		if c.XP <= 0 {
			return fmt.Errorf("xp threshold must be positive")
		}
	}
	return nil
}
