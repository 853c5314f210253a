package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dhollis/peckish/internal/model"
	"github.com/dhollis/peckish/internal/store"
)

// NotificationHandler serves the in-app notification feed.
type NotificationHandler struct {
	notifs *store.NotificationStore
	logger *slog.Logger
}

func NewNotificationHandler(notifs *store.NotificationStore, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifs: notifs, logger: logger.With("component", "notification_handler")}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	notifs, err := h.notifs.ListByUser(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("list notifications", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if notifs == nil {
		notifs = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, notifs)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.notifs.MarkRead(r.Context(), id, userID); err != nil {
		h.logger.Error("mark notification read", "notification_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to mark notification read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}
