package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/attaboy/academy/internal/infra"
	"github.com/attaboy/academy/internal/service"
	"github.com/google/uuid"
)

// StreamHandler pushes progress changes to the browser as server-sent events so
// the UI re-renders after every persisted mutation.
type StreamHandler struct {
	hub      *infra.Hub
	progress *service.ProgressService
	logger   *slog.Logger
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(hub *infra.Hub, progress *service.ProgressService, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{hub: hub, progress: progress, logger: logger}
}

// Stream handles GET /progress/stream.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The server write timeout would otherwise cut the stream.
	_ = rc.SetWriteDeadline(time.Time{})

	sub := infra.NewSubscriber(uuid.New().String(), 16)
	h.hub.Join(infra.ProgressRoom, sub)
	defer h.hub.Leave(infra.ProgressRoom, sub.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	initial, err := json.Marshal(infra.HubMessage{Event: "progress.snapshot", Data: h.progress.Snapshot()})
	if err != nil {
		h.logger.Error("encode initial snapshot", "error", err)
		return
	}
	if err := writeEvent(w, rc, initial); err != nil {
		h.logger.Error("progress stream unsupported", "error", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-sub.Send:
			if !ok {
				return
			}
			if err := writeEvent(w, rc, msg); err != nil {
				h.logger.Warn("progress stream closed", "subscriber", sub.ID, "error", err)
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, payload []byte) error {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return rc.Flush()
}
