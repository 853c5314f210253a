package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dhollis/peckish/internal/clock"
	"github.com/dhollis/peckish/internal/hub"
	"github.com/dhollis/peckish/internal/store"
)

// WaterHandler serves water intake logging and daily totals.
type WaterHandler struct {
	water  *store.WaterStore
	users  *store.UserStore
	events *hub.Hub
	logger *slog.Logger
}

func NewWaterHandler(water *store.WaterStore, users *store.UserStore, events *hub.Hub, logger *slog.Logger) *WaterHandler {
	return &WaterHandler{
		water:  water,
		users:  users,
		events: events,
		logger: logger.With("component", "water_handler"),
	}
}

// localDate resolves the user's current calendar date. Intake always
// counts toward the user-local day, not the server's.
func (h *WaterHandler) localDate(r *http.Request, userID int64) (string, error) {
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		return "", err
	}
	tz := ""
	if user != nil {
		tz = user.Timezone
	}
	return clock.Resolve(time.Now().UTC(), tz).Date, nil
}

type logWaterRequest struct {
	AmountMl int `json:"amount_ml"`
}

func (h *WaterHandler) Log(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req logWaterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AmountMl <= 0 {
		writeError(w, http.StatusBadRequest, "amount_ml must be positive")
		return
	}

	date, err := h.localDate(r, userID)
	if err != nil {
		h.logger.Error("resolve local date", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log intake")
		return
	}

	intake, err := h.water.LogIntake(r.Context(), userID, req.AmountMl, date)
	if err != nil {
		h.logger.Error("log intake", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log intake")
		return
	}

	total, err := h.water.ConsumedMl(r.Context(), userID, date)
	if err != nil {
		h.logger.Error("sum intake", "user_id", userID, "error", err)
		total = intake.AmountMl
	}

	h.events.Broadcast(hub.Message{Type: "water_logged", Data: map[string]any{
		"user_id":  userID,
		"date":     date,
		"total_ml": total,
	}})

	writeJSON(w, http.StatusCreated, map[string]any{
		"intake":   intake,
		"total_ml": total,
	})
}

func (h *WaterHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	date, err := h.localDate(r, userID)
	if err != nil {
		h.logger.Error("resolve local date", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load intake")
		return
	}

	entries, err := h.water.ListDay(r.Context(), userID, date)
	if err != nil {
		h.logger.Error("list intake", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load intake")
		return
	}
	total := 0
	for _, e := range entries {
		total += e.AmountMl
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":     date,
		"total_ml": total,
		"entries":  entries,
	})
}
