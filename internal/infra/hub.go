package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/attaboy/academy/internal/domain"
)

// ProgressRoom is the room every progress stream subscribes to.
const ProgressRoom = "progress"

// Hub fans messages out to live subscribers grouped into rooms. Slow subscribers
// drop messages instead of blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]*Subscriber // room -> subscriber id -> subscriber
	logger *slog.Logger
}

// Subscriber is one live stream attached to the hub.
type Subscriber struct {
	ID   string
	Send chan []byte
}

// NewSubscriber creates a subscriber with a buffered outbox.
func NewSubscriber(id string, buffer int) *Subscriber {
	return &Subscriber{ID: id, Send: make(chan []byte, buffer)}
}

// HubMessage is the payload delivered to subscribers.
type HubMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[string]*Subscriber),
		logger: logger,
	}
}

// Join adds a subscriber to a room.
func (h *Hub) Join(room string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Subscriber)
	}
	h.rooms[room][sub.ID] = sub
}

// Leave removes a subscriber from a room.
func (h *Hub) Leave(room string, subID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.rooms[room]; ok {
		delete(subs, subID)
		if len(subs) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Publish sends a message to every subscriber in a room.
func (h *Hub) Publish(room string, event string, data interface{}) {
	payload, err := json.Marshal(HubMessage{Event: event, Data: data})
	if err != nil {
		h.logger.Error("hub marshal error", "error", err, "room", room, "event", event)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.rooms[room] {
		select {
		case sub.Send <- payload:
		default:
			h.logger.Warn("hub send buffer full", "subscriber", sub.ID, "room", room)
		}
	}
}

// ProgressChanged is the message published after every persisted mutation.
type ProgressChanged struct {
	Snapshot *domain.Snapshot       `json:"snapshot"`
	Events   []domain.ProgressEvent `json:"events"`
}

// Notify tells every progress subscriber to re-render.
func (h *Hub) Notify(_ context.Context, snapshot *domain.Snapshot, events []domain.ProgressEvent) error {
	h.Publish(ProgressRoom, "progress.changed", ProgressChanged{Snapshot: snapshot, Events: events})
	return nil
}

// SubscriberCount returns the total number of subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, subs := range h.rooms {
		count += len(subs)
	}
	return count
}

// RoomCount returns the number of active rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// Shutdown closes every subscriber so their streams end.
func (h *Hub) Shutdown(_ context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, subs := range h.rooms {
		for _, sub := range subs {
			close(sub.Send)
		}
		delete(h.rooms, room)
	}
}
