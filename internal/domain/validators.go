package domain

import (
	"fmt"
	"strings"
)

// ValidatePositiveXP checks that an XP grant is positive.
func ValidatePositiveXP(amount int) error {
	if amount <= 0 {
		return fmt.Errorf("xp amount must be positive, got %d", amount)
	}
	return nil
}

// ValidateActivityID checks that a lesson, quiz, game or badge id is usable as a set member.
func ValidateActivityID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s id is required", kind)
	}
	return nil
}

// ValidateQuizScore checks that score lies within 0..total and total is positive.
func ValidateQuizScore(score, total int) error {
	if total <= 0 {
		return fmt.Errorf("quiz total must be positive, got %d", total)
	}
	if score < 0 || score > total {
		return fmt.Errorf("quiz score %d is outside 0..%d", score, total)
	}
	return nil
}
