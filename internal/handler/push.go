package handler

import (
	"log/slog"
	"net/http"

	"github.com/mhollis/serenity/internal/remind"
	"github.com/mhollis/serenity/internal/storage"
)

// PushHandler manages web push subscriptions for meeting reminders.
type PushHandler struct {
	store   *storage.Adapter
	service *remind.Service
	logger  *slog.Logger
}

func NewPushHandler(store *storage.Adapter, service *remind.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{store: store, service: service, logger: logger}
}

func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if !h.service.Enabled() {
		writeError(w, http.StatusNotFound, "push notifications not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.service.VAPIDPublicKey()})
}

func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var sub remind.Subscription
	if !decodeBody(w, r, &sub) {
		return
	}

	if err := remind.Subscribe(r.Context(), h.store, sub); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := remind.Unsubscribe(r.Context(), h.store, req.Endpoint); err != nil {
		h.logger.Error("unsubscribe", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
