package handler

import (
	"log/slog"
	"net/http"

	"github.com/dhollis/peckish/internal/reminder"
	"github.com/dhollis/peckish/internal/store"
	"github.com/dhollis/peckish/internal/webpush"
)

// PushHandler serves push subscription endpoints.
type PushHandler struct {
	subs      *store.PushStore
	engine    *reminder.Engine
	publicKey string
	logger    *slog.Logger
}

func NewPushHandler(subs *store.PushStore, engine *reminder.Engine, publicKey string, logger *slog.Logger) *PushHandler {
	return &PushHandler{
		subs:      subs,
		engine:    engine,
		publicKey: publicKey,
		logger:    logger.With("component", "push_handler"),
	}
}

// VAPIDKey returns the server's public key, which the browser needs to
// create a subscription.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.publicKey})
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	Keys       subKeys `json:"keys"`
	DeviceName string `json:"device_name"`
}

type subKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}
	// Reject malformed key material at the door rather than at send time.
	if _, err := webpush.DecodeSubscriptionKeys(req.Keys.P256dh, req.Keys.Auth); err != nil {
		writeError(w, http.StatusBadRequest, "invalid subscription keys")
		return
	}

	sub, err := h.subs.CreateSubscription(r.Context(), userID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth, req.DeviceName)
	if err != nil {
		h.logger.Error("create subscription", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *PushHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	subs, err := h.subs.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("list subscriptions", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	subID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid subscription id")
		return
	}

	if err := h.subs.Delete(r.Context(), subID, userID); err != nil {
		h.logger.Error("delete subscription", "subscription_id", subID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Test sends a real push through the full encrypt-sign-send path to all
// of a user's devices.
func (h *PushHandler) Test(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	sent, err := h.engine.TestPush(r.Context(), userID)
	if err != nil {
		h.logger.Error("test push", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send test notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
