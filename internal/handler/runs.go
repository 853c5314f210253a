package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dhollis/peckish/internal/reminder"
)

// RunHandler exposes the reminder engine's run summaries and a manual
// trigger for operators.
type RunHandler struct {
	engine *reminder.Engine
	logger *slog.Logger
}

func NewRunHandler(engine *reminder.Engine, logger *slog.Logger) *RunHandler {
	return &RunHandler{engine: engine, logger: logger.With("component", "run_handler")}
}

func (h *RunHandler) Last(w http.ResponseWriter, r *http.Request) {
	sum := h.engine.LastSummary()
	if sum == nil {
		writeError(w, http.StatusNotFound, "no run has completed yet")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Trigger runs one scheduling pass immediately, outside the ticker.
func (h *RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	sum, err := h.engine.Run(r.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Error("manual run", "error", err)
		writeError(w, http.StatusInternalServerError, "run failed")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
