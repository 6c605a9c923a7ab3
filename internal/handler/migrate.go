package handler

import (
	"log/slog"
	"net/http"

	"github.com/mhollis/serenity/internal/storage"
)

// MigrateHandler lets the shell trigger a legacy flat-file import on demand,
// in addition to the automatic run at startup.
type MigrateHandler struct {
	store   *storage.Adapter
	dataDir string
	logger  *slog.Logger
}

func NewMigrateHandler(store *storage.Adapter, dataDir string, logger *slog.Logger) *MigrateHandler {
	return &MigrateHandler{store: store, dataDir: dataDir, logger: logger}
}

func (h *MigrateHandler) Status(w http.ResponseWriter, r *http.Request) {
	migrated, _ := h.store.GetPreference(r.Context(), "legacyMigrated").(bool)
	writeJSON(w, http.StatusOK, map[string]bool{
		"legacyDataPresent": storage.HasLegacyData(h.dataDir),
		"migrated":          migrated,
	})
}

func (h *MigrateHandler) Run(w http.ResponseWriter, r *http.Request) {
	imported, err := h.store.MigrateFromLegacy(r.Context(), h.dataDir)
	if err != nil {
		h.logger.Error("legacy migration", "error", err)
		writeError(w, http.StatusInternalServerError, "migration failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": imported})
}
