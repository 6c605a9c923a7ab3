package handler

import (
	"log/slog"
	"net/http"

	"github.com/mhollis/serenity/internal/backup"
)

// BackupHandler drives the encrypted snapshot workflow.
type BackupHandler struct {
	manager *backup.Manager
	logger  *slog.Logger
}

func NewBackupHandler(manager *backup.Manager, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: manager, logger: logger}
}

func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Passphrase == "" {
		writeError(w, http.StatusBadRequest, "passphrase is required")
		return
	}

	entry, err := h.manager.BackupNow(r.Context(), req.Passphrase)
	if err != nil {
		h.logger.Error("create backup", "error", err)
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *BackupHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.manager.History()
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	if history == nil {
		history = []backup.Entry{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename   string `json:"filename"`
		Passphrase string `json:"passphrase"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Filename == "" || req.Passphrase == "" {
		writeError(w, http.StatusBadRequest, "filename and passphrase are required")
		return
	}

	imported, err := h.manager.Restore(r.Context(), req.Filename, req.Passphrase)
	if err != nil {
		h.logger.Error("restore backup", "file", req.Filename, "error", err)
		writeError(w, http.StatusBadRequest, "restore failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": imported})
}
