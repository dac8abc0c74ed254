package catalog

import (
	"fmt"
	"os"

	"github.com/attaboy/academy/internal/domain"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Rewards domain.XPRewards `yaml:"rewards"`
	Levels  []domain.Level   `yaml:"levels"`
	Modules []domain.Module  `yaml:"modules"`
	Badges  []badgeFile      `yaml:"badges"`
}

type badgeFile struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Icon        string        `yaml:"icon"`
	XPBonus     int           `yaml:"xp_bonus"`
	Condition   conditionFile `yaml:"condition"`
}

// conditionFile is the flat on-disk form of a domain.Condition.
type conditionFile struct {
	Kind       domain.ConditionKind `yaml:"kind"`
	Module     string               `yaml:"module,omitempty"`
	Count      int                  `yaml:"count,omitempty"`
	Days       int                  `yaml:"days,omitempty"`
	XP         int                  `yaml:"xp,omitempty"`
	MaxMinutes int                  `yaml:"max_minutes,omitempty"`
}

func (f conditionFile) toCondition() (domain.Condition, error) {
	switch f.Kind {
	case domain.KindFirstLesson:
		return domain.FirstLesson{}, nil
	case domain.KindCompleteModule:
		return domain.CompleteModule{ModuleID: f.Module}, nil
	case domain.KindPerfectQuiz:
		return domain.PerfectQuiz{Count: f.Count}, nil
	case domain.KindStreak:
		return domain.StreakReached{Days: f.Days}, nil
	case domain.KindCompleteAllModules:
		return domain.CompleteAllModules{}, nil
	case domain.KindCompleteAllGames:
		return domain.CompleteAllGames{}, nil
	case domain.KindSpeedRun:
		return domain.SpeedRun{ModuleID: f.Module, MaxMinutes: f.MaxMinutes}, nil
	case domain.KindXPThreshold:
		return domain.XPThreshold{XP: f.XP}, nil
	case "":
		return nil, fmt.Errorf("condition kind is required")
	default:
		return nil, fmt.Errorf("unknown condition kind %q", f.Kind)
	}
}

func conditionFileOf(c domain.Condition) conditionFile {
	f := conditionFile{Kind: c.Kind()}
	switch v := c.(type) {
	case domain.CompleteModule:
		f.Module = v.ModuleID
	case domain.PerfectQuiz:
		f.Count = v.Count
	case domain.StreakReached:
		f.Days = v.Days
	case domain.SpeedRun:
		f.Module = v.ModuleID
		f.MaxMinutes = v.MaxMinutes
	case domain.XPThreshold:
		f.XP = v.XP
	}
	return f
}

// Load reads and validates a YAML catalog file.
func Load(path string) (*domain.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*domain.Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &domain.Catalog{
		Rewards: f.Rewards,
		Levels:  f.Levels,
		Modules: f.Modules,
		Badges:  make([]domain.Badge, 0, len(f.Badges)),
	}
	for _, b := range f.Badges {
		cond, err := b.Condition.toCondition()
		if err != nil {
			return nil, fmt.Errorf("badge %s: %w", b.ID, err)
		}
		c.Badges = append(c.Badges, domain.Badge{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			Icon:        b.Icon,
			XPBonus:     b.XPBonus,
			Condition:   cond,
		})
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return c, nil
}

// Marshal encodes a catalog in the format Parse accepts.
func Marshal(c *domain.Catalog) ([]byte, error) {
	f := catalogFile{
		Rewards: c.Rewards,
		Levels:  c.Levels,
		Modules: c.Modules,
		Badges:  make([]badgeFile, 0, len(c.Badges)),
	}
	for _, b := range c.Badges {
		f.Badges = append(f.Badges, badgeFile{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			Icon:        b.Icon,
			XPBonus:     b.XPBonus,
			Condition:   conditionFileOf(b.Condition),
		})
	}
	return yaml.Marshal(f)
}

// LoadOrDefault loads path when set and falls back to the built-in catalog otherwise.
func LoadOrDefault(path string) (*domain.Catalog, error) {
	if path == "" {
		c := Default()
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("validate default catalog: %w", err)
		}
		return c, nil
	}
	return Load(path)
}
