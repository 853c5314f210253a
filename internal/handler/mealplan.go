package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dhollis/peckish/internal/clock"
	"github.com/dhollis/peckish/internal/model"
	"github.com/dhollis/peckish/internal/reminder"
	"github.com/dhollis/peckish/internal/store"
)

// PlanHandler serves meal plan endpoints.
type PlanHandler struct {
	plans  *store.PlanStore
	users  *store.UserStore
	logger *slog.Logger
}

func NewPlanHandler(plans *store.PlanStore, users *store.UserStore, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{plans: plans, users: users, logger: logger.With("component", "plan_handler")}
}

type planItemRequest struct {
	Week        int    `json:"week"`
	Weekday     int    `json:"weekday"`
	MealType    string `json:"meal_type"`
	Description string `json:"description"`
}

type createPlanRequest struct {
	Name      string            `json:"name"`
	StartDate string            `json:"start_date"`
	MealTimes map[string]string `json:"meal_times"`
	Items     []planItemRequest `json:"items"`
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req createPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if _, err := time.Parse("2006-01-02", req.StartDate); err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	for mt, c := range req.MealTimes {
		if !model.ValidMealType(mt) {
			writeError(w, http.StatusBadRequest, "unknown meal type: "+mt)
			return
		}
		if !validClock(c) {
			writeError(w, http.StatusBadRequest, "invalid time for "+mt)
			return
		}
	}
	for _, item := range req.Items {
		if err := validatePlanItem(item); err != "" {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	plan, err := h.plans.CreatePlan(r.Context(), userID, req.Name, req.StartDate, req.MealTimes)
	if err != nil {
		h.logger.Error("create plan", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create plan")
		return
	}

	items := make([]model.MealPlanItem, 0, len(req.Items))
	for _, ir := range req.Items {
		item, err := h.plans.AddItem(r.Context(), plan.ID, ir.Week, ir.Weekday, ir.MealType, ir.Description)
		if err != nil {
			h.logger.Error("add plan item", "plan_id", plan.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to add plan item")
			return
		}
		items = append(items, *item)
	}

	writeJSON(w, http.StatusCreated, map[string]any{"plan": plan, "items": items})
}

func validatePlanItem(item planItemRequest) string {
	if item.Week < 0 {
		return "week must not be negative"
	}
	if item.Weekday < 0 || item.Weekday > 6 {
		return "weekday must be between 0 and 6"
	}
	if !model.ValidMealType(item.MealType) {
		return "unknown meal type: " + item.MealType
	}
	if item.Description == "" {
		return "description is required"
	}
	return ""
}

func (h *PlanHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	planID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plan id")
		return
	}

	var req planItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validatePlanItem(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	plan, err := h.plans.GetPlan(r.Context(), planID, userID)
	if err != nil {
		h.logger.Error("get plan", "plan_id", planID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load plan")
		return
	}
	if plan == nil {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	item, err := h.plans.AddItem(r.Context(), planID, req.Week, req.Weekday, req.MealType, req.Description)
	if err != nil {
		h.logger.Error("add plan item", "plan_id", planID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add plan item")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// Today returns the items of the user's current plan for their local
// calendar date, with the resolved meal schedule.
func (h *PlanHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("get user", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	local := clock.Resolve(time.Now().UTC(), user.Timezone)
	plan, err := h.plans.CurrentPlan(r.Context(), userID, local.Date)
	if err != nil {
		h.logger.Error("current plan", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load plan")
		return
	}
	if plan == nil {
		writeJSON(w, http.StatusOK, map[string]any{"date": local.Date, "plan": nil, "items": []model.MealPlanItem{}})
		return
	}

	week, weekday, err := reminder.PlanPosition(plan.StartDate, local.Date)
	if err != nil {
		h.logger.Warn("plan position", "plan_id", plan.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to locate plan day")
		return
	}
	items, err := h.plans.ItemsFor(r.Context(), plan.ID, week, weekday)
	if err != nil {
		h.logger.Error("plan items", "plan_id", plan.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load plan items")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":       local.Date,
		"week":       week,
		"weekday":    weekday,
		"plan":       plan,
		"items":      items,
		"meal_times": reminder.DaySchedule(plan.MealTimes, user.MealTimes),
	})
}

func (h *PlanHandler) CompleteItem(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.plans.CompleteItem(r.Context(), itemID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "plan item not found")
			return
		}
		h.logger.Error("complete item", "item_id", itemID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to complete item")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}
