package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

func newProgressEvent(learnerID uuid.UUID, eventType EventType, payload interface{}, at time.Time) ProgressEvent {
	data, _ := json.Marshal(payload)
	return ProgressEvent{
		EventID:    uuid.New(),
		LearnerID:  learnerID,
		EventType:  eventType,
		Payload:    data,
		OccurredAt: at,
	}
}

// NewXPAddedEvent records a direct XP grant.
func NewXPAddedEvent(learnerID uuid.UUID, amount, total int, at time.Time) ProgressEvent {
	return newProgressEvent(learnerID, EventXPAdded, map[string]int{
		"amount": amount,
		"total":  total,
	}, at)
}

// NewLevelUpEvent records a change of level.
func NewLevelUpEvent(learnerID uuid.UUID, from, to int, at time.Time) ProgressEvent {
	return newProgressEvent(learnerID, EventLevelUp, map[string]int{
		"from": from,
		"to":   to,
	}, at)
}

// NewCompletionEvent records a lesson, quiz or game completion and the XP it earned.
func NewCompletionEvent(learnerID uuid.UUID, eventType EventType, activityID string, xp int, at time.Time) ProgressEvent {
	return newProgressEvent(learnerID, eventType, map[string]interface{}{
		"activity_id": activityID,
		"xp":          xp,
	}, at)
}

// NewBadgeUnlockedEvent records a newly unlocked badge.
func NewBadgeUnlockedEvent(learnerID uuid.UUID, badgeID string, at time.Time) ProgressEvent {
	return newProgressEvent(learnerID, EventBadgeUnlocked, map[string]string{
		"badge_id": badgeID,
	}, at)
}

// NewStreakUpdatedEvent records a streak change and its bonus.
func NewStreakUpdatedEvent(learnerID uuid.UUID, streak, bonusXP int, at time.Time) ProgressEvent {
	return newProgressEvent(learnerID, EventStreakUpdated, map[string]int{
		"streak":   streak,
		"bonus_xp": bonusXP,
	}, at)
}

// NewProgressResetEvent records a full reset. previousID is the identity being discarded.
func NewProgressResetEvent(learnerID, previousID uuid.UUID, at time.Time) ProgressEvent {
	return newProgressEvent(learnerID, EventProgressReset, map[string]string{
		"previous_id": previousID.String(),
	}, at)
}
