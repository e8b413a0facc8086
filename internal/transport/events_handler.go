package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ferre-pos/internal/middleware"
	"ferre-pos/internal/stream"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// eventPayload is the wire shape of one rebroadcast event.
type eventPayload struct {
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"received_at"`
}

// EventsHandler rebroadcasts the shared stock stream to UI listeners
// over SSE. Every listener is a fan-out subscriber of the single
// upstream connection, so all of them see identical ordering.
type EventsHandler struct {
	manager *stream.Manager
	logger  *zap.Logger
}

func NewEventsHandler(manager *stream.Manager, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{manager: manager, logger: logger}
}

func (h *EventsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.Stream)
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, unsubscribe := h.manager.Subscribe(16)
	defer unsubscribe()

	h.logger.Debug("Event listener attached", zap.String("remote", r.RemoteAddr))

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}

			kind := "stock_shortage"
			if ev.Kind == stream.KindConnectionError {
				kind = "connection_error"
			}

			data, err := json.Marshal(eventPayload{
				Kind:       kind,
				Message:    ev.Message,
				ReceivedAt: ev.ReceivedAt,
			})
			if err != nil {
				continue
			}

			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
