package handler

import (
	"log/slog"
	"net/http"

	"github.com/mhollis/serenity/internal/storage"
	"github.com/mhollis/serenity/internal/websocket"
)

// CollectionHandler serves the uniform CRUD surface for one collection.
// One instance per collection; the schema registry does the per-collection
// work, so no handler code varies by collection.
type CollectionHandler struct {
	collection string
	store      *storage.Adapter
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewCollectionHandler(collection string, store *storage.Adapter, hub *websocket.Hub, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{collection: collection, store: store, hub: hub, logger: logger}
}

func (h *CollectionHandler) broadcast(action, id string) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(websocket.NewMessage(h.collection, action, id, nil))
	if h.collection == "activities" {
		h.hub.Broadcast(websocket.ScoreInvalidated())
	}
}

func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.GetAll(r.Context(), h.collection))
}

func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec := h.store.GetByID(r.Context(), h.collection, r.PathValue("id"))
	if rec == nil {
		writeError(w, http.StatusNotFound, h.collection+" record not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var item storage.Record
	if !decodeBody(w, r, &item) {
		return
	}

	rec, err := h.store.Add(r.Context(), h.collection, item)
	if err != nil {
		h.logger.Error("create record", "collection", h.collection, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create record")
		return
	}

	h.broadcast("created", rec["id"].(string))
	writeJSON(w, http.StatusCreated, rec)
}

func (h *CollectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var updates storage.Record
	if !decodeBody(w, r, &updates) {
		return
	}

	rec, err := h.store.Update(r.Context(), h.collection, id, updates)
	if err != nil {
		h.logger.Error("update record", "collection", h.collection, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update record")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, h.collection+" record not found")
		return
	}

	h.broadcast("updated", id)
	writeJSON(w, http.StatusOK, rec)
}

func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if !h.store.Remove(r.Context(), h.collection, id) {
		writeError(w, http.StatusNotFound, h.collection+" record not found")
		return
	}

	h.broadcast("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}
