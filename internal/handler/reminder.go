package handler

import (
	"log/slog"
	"net/http"

	"github.com/dhollis/peckish/internal/model"
	"github.com/dhollis/peckish/internal/store"
)

// ReminderHandler serves meal and water reminder settings.
type ReminderHandler struct {
	settings *store.ReminderStore
	logger   *slog.Logger
}

func NewReminderHandler(settings *store.ReminderStore, logger *slog.Logger) *ReminderHandler {
	return &ReminderHandler{settings: settings, logger: logger.With("component", "reminder_handler")}
}

// GetMeal returns the user's meal reminder settings. Users without a
// saved row see the defaults the scheduler would apply.
func (h *ReminderHandler) GetMeal(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	settings, err := h.settings.GetMealSettings(r.Context(), userID)
	if err != nil {
		h.logger.Error("get meal settings", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	if settings == nil {
		defaults := model.DefaultMealReminderSettings(userID)
		settings = &defaults
	}
	writeJSON(w, http.StatusOK, settings)
}

type mealSettingsRequest struct {
	Enabled             bool     `json:"enabled"`
	RemindMinutesBefore int      `json:"remind_minutes_before"`
	EnabledMealTypes    []string `json:"enabled_meal_types"`
}

func (h *ReminderHandler) PutMeal(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req mealSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RemindMinutesBefore < 0 || req.RemindMinutesBefore > 120 {
		writeError(w, http.StatusBadRequest, "remind_minutes_before must be between 0 and 120")
		return
	}
	for _, mt := range req.EnabledMealTypes {
		if !model.ValidMealType(mt) {
			writeError(w, http.StatusBadRequest, "unknown meal type: "+mt)
			return
		}
	}

	saved, err := h.settings.UpsertMealSettings(r.Context(), model.MealReminderSettings{
		UserID:              userID,
		Enabled:             req.Enabled,
		RemindMinutesBefore: req.RemindMinutesBefore,
		EnabledMealTypes:    req.EnabledMealTypes,
	})
	if err != nil {
		h.logger.Error("save meal settings", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// GetWater returns the user's water reminder settings, or the defaults
// when no row exists.
func (h *ReminderHandler) GetWater(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	settings, err := h.settings.GetWaterSettings(r.Context(), userID)
	if err != nil {
		h.logger.Error("get water settings", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	if settings == nil {
		defaults := model.DefaultWaterReminderSettings(userID)
		settings = &defaults
	}
	writeJSON(w, http.StatusOK, settings)
}

type waterSettingsRequest struct {
	Enabled         bool `json:"enabled"`
	DailyGoalMl     int  `json:"daily_goal_ml"`
	IntervalMinutes int  `json:"interval_minutes"`
	StartHour       int  `json:"start_hour"`
	EndHour         int  `json:"end_hour"`
}

func (h *ReminderHandler) PutWater(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req waterSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DailyGoalMl <= 0 {
		writeError(w, http.StatusBadRequest, "daily_goal_ml must be positive")
		return
	}
	if req.IntervalMinutes <= 0 {
		writeError(w, http.StatusBadRequest, "interval_minutes must be positive")
		return
	}
	if req.StartHour < 0 || req.EndHour > 24 || req.StartHour >= req.EndHour {
		writeError(w, http.StatusBadRequest, "active window must satisfy 0 <= start_hour < end_hour <= 24")
		return
	}

	saved, err := h.settings.UpsertWaterSettings(r.Context(), model.WaterReminderSettings{
		UserID:          userID,
		Enabled:         req.Enabled,
		DailyGoalMl:     req.DailyGoalMl,
		IntervalMinutes: req.IntervalMinutes,
		StartHour:       req.StartHour,
		EndHour:         req.EndHour,
	})
	if err != nil {
		h.logger.Error("save water settings", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
