package handler

import (
	"net/http"
	"sort"

	"github.com/mhollis/serenity/internal/model"
	"github.com/mhollis/serenity/internal/storage"
)

// MessageHandler serves message lookups beyond plain CRUD.
type MessageHandler struct {
	store *storage.Adapter
}

func NewMessageHandler(store *storage.Adapter) *MessageHandler {
	return &MessageHandler{store: store}
}

// Unread returns unread messages, newest first. An optional recipientId
// query narrows the list to one recipient.
func (h *MessageHandler) Unread(w http.ResponseWriter, r *http.Request) {
	recipient := r.URL.Query().Get("recipientId")

	messages := model.MessagesFromRecords(h.store.GetAll(r.Context(), "messages"))
	out := make([]model.Message, 0)
	for _, m := range messages {
		if m.Read {
			continue
		}
		if recipient != "" && m.RecipientID != recipient {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })

	writeJSON(w, http.StatusOK, out)
}
