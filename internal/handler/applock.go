package handler

import (
	"net/http"

	"github.com/mhollis/serenity/internal/applock"
)

// AppLockHandler manages the optional app passcode.
type AppLockHandler struct {
	lock *applock.Lock
}

func NewAppLockHandler(lock *applock.Lock) *AppLockHandler {
	return &AppLockHandler{lock: lock}
}

func (h *AppLockHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": h.lock.Enabled(r.Context())})
}

func (h *AppLockHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passcode string `json:"passcode"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.lock.Set(r.Context(), req.Passcode); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": true})
}

func (h *AppLockHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passcode string `json:"passcode"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if !h.lock.Verify(r.Context(), req.Passcode) {
		writeError(w, http.StatusUnauthorized, "incorrect passcode")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

func (h *AppLockHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.lock.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear passcode")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
