package handler

import (
	"log/slog"
	"net/http"

	"github.com/mhollis/serenity/internal/storage"
)

// PreferenceHandler exposes the key/value preference surface.
type PreferenceHandler struct {
	store  *storage.Adapter
	logger *slog.Logger
}

func NewPreferenceHandler(store *storage.Adapter, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{store: store, logger: logger}
}

func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	value := h.store.GetPreference(r.Context(), key)
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "value": value})
}

func (h *PreferenceHandler) Set(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req struct {
		Value any `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.store.SetPreference(r.Context(), key, req.Value); err != nil {
		h.logger.Error("set preference", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store preference")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "value": req.Value})
}
