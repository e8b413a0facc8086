package transport

import (
	"net/http"
	"strconv"

	"ferre-pos/internal/domain"
	"ferre-pos/internal/middleware"
	"ferre-pos/internal/notification"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NotificationListResponse is the tray contents plus the badge count.
type NotificationListResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

// NotificationHandler serves the notification tray.
type NotificationHandler struct {
	store  *notification.Store
	logger *zap.Logger
}

func NewNotificationHandler(store *notification.Store, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{store: store, logger: logger}
}

func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/notifications", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/read-all", h.MarkAllRead)
		r.Delete("/{id}", h.Remove)
	})
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, NotificationListResponse{
		Notifications: h.store.List(),
		UnreadCount:   h.store.UnreadCount(),
	})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	h.store.MarkAllRead()
	middleware.RespondWithJSON(w, http.StatusOK, map[string]int{"unread_count": 0})
}

func (h *NotificationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	// Removal is idempotent; deleting an unknown id succeeds quietly.
	h.store.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}
