package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all progress event types.
type EventType string

const (
	EventXPAdded         EventType = "academy.progress.xp.added"
	EventLevelUp         EventType = "academy.progress.level.up"
	EventLessonCompleted EventType = "academy.progress.lesson.completed"
	EventQuizCompleted   EventType = "academy.progress.quiz.completed"
	EventGameCompleted   EventType = "academy.progress.game.completed"
	EventBadgeUnlocked   EventType = "academy.progress.badge.unlocked"
	EventStreakUpdated   EventType = "academy.progress.streak.updated"
	EventProgressReset   EventType = "academy.progress.reset"
)

// ProgressEvent is emitted after a mutation has been persisted.
// LearnerID doubles as the partition key when published.
type ProgressEvent struct {
	EventID    uuid.UUID       `json:"eventId"`
	LearnerID  uuid.UUID       `json:"learnerId"`
	EventType  EventType       `json:"eventType"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
}
