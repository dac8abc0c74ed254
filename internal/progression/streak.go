package progression

import (
	"time"

	"github.com/attaboy/academy/internal/domain"
)

// DateLayout is the calendar-day format stored in lastActivityDate.
const DateLayout = "2006-01-02"

// Streak lengths at which the daily bonus applies once or twice.
const (
	singleBonusDays = 3
	doubleBonusDays = 7
)

// StreakResult is the outcome of applying today's activity to a streak.
type StreakResult struct {
	NewStreak int
	BonusXP   int
	Changed   bool
}

// DateString normalises t to a calendar day in loc.
func DateString(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// DaysBetween returns the number of calendar days from a to b. Both must be DateLayout strings.
func DaysBetween(a, b string) (int, error) {
	from, err := time.Parse(DateLayout, a)
	if err != nil {
		return 0, err
	}
	to, err := time.Parse(DateLayout, b)
	if err != nil {
		return 0, err
	}
	return int(to.Sub(from).Hours() / 24), nil
}

// UpdateStreak applies activity on today to the current streak.
// An unparseable lastActivity counts as absent. A today before lastActivity leaves the streak unchanged.
func UpdateStreak(current int, lastActivity, today string, rewards domain.XPRewards) StreakResult {
	unchanged := StreakResult{NewStreak: current}
	if lastActivity == today {
		return unchanged
	}
	if _, err := time.Parse(DateLayout, today); err != nil {
		return unchanged
	}

	gap, err := DaysBetween(lastActivity, today)
	if lastActivity == "" || err != nil {
		return StreakResult{NewStreak: 1, Changed: true}
	}

	switch {
	case gap <= 0:
		return unchanged
	case gap == 1:
		next := current + 1
		return StreakResult{NewStreak: next, BonusXP: streakBonus(next, rewards), Changed: true}
	default:
		return StreakResult{NewStreak: 1, Changed: true}
	}
}

func streakBonus(streak int, rewards domain.XPRewards) int {
	switch {
	case streak >= doubleBonusDays:
		return rewards.StreakBonus * 2
	case streak >= singleBonusDays:
		return rewards.StreakBonus
	default:
		return 0
	}
}
