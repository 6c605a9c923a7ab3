package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mhollis/serenity/internal/fitness"
	"github.com/mhollis/serenity/internal/model"
	"github.com/mhollis/serenity/internal/storage"
)

const timeframePrefKey = "scoreTimeframe"

// FitnessHandler computes the spiritual fitness score over the activity
// journal.
type FitnessHandler struct {
	store            *storage.Adapter
	defaultTimeframe int
	logger           *slog.Logger
	now              func() time.Time
}

func NewFitnessHandler(store *storage.Adapter, defaultTimeframe int, logger *slog.Logger) *FitnessHandler {
	if defaultTimeframe <= 0 {
		defaultTimeframe = fitness.DefaultTimeframe
	}
	return &FitnessHandler{
		store:            store,
		defaultTimeframe: defaultTimeframe,
		logger:           logger,
		now:              time.Now,
	}
}

// timeframe resolves the lookback window: explicit query argument, then the
// stored preference, then the configured default.
func (h *FitnessHandler) timeframe(r *http.Request) int {
	if v := r.URL.Query().Get("timeframe"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	switch v := h.store.GetPreference(r.Context(), timeframePrefKey).(type) {
	case float64:
		if v > 0 {
			return int(v)
		}
	case int64:
		if v > 0 {
			return int(v)
		}
	case int:
		if v > 0 {
			return v
		}
	}
	return h.defaultTimeframe
}

// Score returns the current score together with the inputs that produced it.
func (h *FitnessHandler) Score(w http.ResponseWriter, r *http.Request) {
	tf := h.timeframe(r)
	activities := model.ActivitiesFromRecords(h.store.GetAll(r.Context(), "activities"))
	score := fitness.Calculate(activities, tf, h.now())

	writeJSON(w, http.StatusOK, map[string]any{
		"score":         score,
		"timeframe":     tf,
		"activityCount": len(activities),
		"calculatedAt":  h.now().UTC().Format(time.RFC3339),
	})
}

// SetTimeframe stores the preferred lookback window.
func (h *FitnessHandler) SetTimeframe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Timeframe int `json:"timeframe"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Timeframe <= 0 {
		writeError(w, http.StatusBadRequest, "timeframe must be positive")
		return
	}
	if err := h.store.SetPreference(r.Context(), timeframePrefKey, req.Timeframe); err != nil {
		h.logger.Error("store timeframe", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store timeframe")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"timeframe": req.Timeframe})
}
