package handler

import (
	"net/http"
	"time"

	"github.com/mhollis/serenity/internal/model"
	"github.com/mhollis/serenity/internal/sobriety"
	"github.com/mhollis/serenity/internal/storage"
)

// SobrietyHandler reports the day and year counts derived from the user
// profile's sobriety date.
type SobrietyHandler struct {
	store *storage.Adapter
	now   func() time.Time
}

func NewSobrietyHandler(store *storage.Adapter) *SobrietyHandler {
	return &SobrietyHandler{store: store, now: time.Now}
}

func (h *SobrietyHandler) Get(w http.ResponseWriter, r *http.Request) {
	users := h.store.GetAll(r.Context(), "users")
	if len(users) == 0 {
		writeError(w, http.StatusNotFound, "no user profile")
		return
	}

	user, ok := model.UserFromRecord(users[0])
	if !ok {
		writeError(w, http.StatusInternalServerError, "malformed user profile")
		return
	}

	now := h.now()
	writeJSON(w, http.StatusOK, map[string]any{
		"sobrietyDate": user.SobrietyDate,
		"days":         sobriety.Days(user.SobrietyDate, now),
		"years":        sobriety.Years(user.SobrietyDate, 2, now),
	})
}
