package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dhollis/peckish/internal/model"
	"github.com/dhollis/peckish/internal/store"
)

// UserHandler serves profile endpoints.
type UserHandler struct {
	users  *store.UserStore
	logger *slog.Logger
}

func NewUserHandler(users *store.UserStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger.With("component", "user_handler")}
}

type createUserRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Timezone    string `json:"timezone"`
	CountryCode string `json:"country_code"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			writeError(w, http.StatusBadRequest, "unknown timezone")
			return
		}
	}

	user, err := h.users.Create(r.Context(), req.Name, req.Email, req.Timezone, req.CountryCode)
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Timezone    string `json:"timezone"`
	CountryCode string `json:"country_code"`
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			writeError(w, http.StatusBadRequest, "unknown timezone")
			return
		}
	}

	if err := h.users.UpdateProfile(r.Context(), userID, req.Timezone, req.CountryCode); err != nil {
		h.logger.Error("update profile", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type updateMealTimesRequest struct {
	MealTimes map[string]string `json:"meal_times"`
}

func (h *UserHandler) UpdateMealTimes(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateMealTimesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for mt, clock := range req.MealTimes {
		if !model.ValidMealType(mt) {
			writeError(w, http.StatusBadRequest, "unknown meal type: "+mt)
			return
		}
		if !validClock(clock) {
			writeError(w, http.StatusBadRequest, "invalid time for "+mt)
			return
		}
	}

	if err := h.users.UpdateMealTimes(r.Context(), userID, req.MealTimes); err != nil {
		h.logger.Error("update meal times", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update meal times")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
