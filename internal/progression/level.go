// Package progression holds the pure rules that derive levels, streaks and badges
// from a learner snapshot.
package progression

import (
	"math"

	"github.com/attaboy/academy/internal/domain"
)

// LevelInfo is the resolved position of an XP total within the level table.
type LevelInfo struct {
	Current         domain.Level  `json:"current"`
	Next            *domain.Level `json:"next,omitempty"`
	ProgressPercent int           `json:"progressPercent"`
}

// ResolveLevel finds the level for xp. levels must be non-empty and ordered by MinXP.
// The table is scanned from the top so the highest matching threshold wins.
func ResolveLevel(levels []domain.Level, xp int) LevelInfo {
	idx := 0
	for i := len(levels) - 1; i >= 0; i-- {
		if levels[i].MinXP <= xp {
			idx = i
			break
		}
	}

	info := LevelInfo{Current: levels[idx]}
	if idx == len(levels)-1 {
		info.ProgressPercent = 100
		return info
	}

	next := levels[idx+1]
	info.Next = &next
	span := next.MinXP - info.Current.MinXP
	pct := int(math.Round(100 * float64(xp-info.Current.MinXP) / float64(span)))
	info.ProgressPercent = min(max(pct, 0), 100)
	return info
}
