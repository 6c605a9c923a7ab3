package handler

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/mhollis/serenity/internal/geo"
	"github.com/mhollis/serenity/internal/model"
	"github.com/mhollis/serenity/internal/storage"
)

const defaultNearbyRadiusMiles = 25.0

// MeetingHandler serves meeting lookups beyond plain CRUD.
type MeetingHandler struct {
	store *storage.Adapter
}

func NewMeetingHandler(store *storage.Adapter) *MeetingHandler {
	return &MeetingHandler{store: store}
}

type nearbyMeeting struct {
	model.Meeting
	DistanceMiles float64 `json:"distanceMiles"`
}

// Nearby returns saved meetings with coordinates within the radius of the
// given point, closest first.
func (h *MeetingHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		writeError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}

	radius := defaultNearbyRadiusMiles
	if v := q.Get("radius"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			radius = f
		}
	}

	meetings := model.MeetingsFromRecords(h.store.GetAll(r.Context(), "meetings"))
	out := make([]nearbyMeeting, 0)
	for _, m := range meetings {
		if m.Coordinates == nil {
			continue
		}
		d := geo.Distance(lat, lon, m.Coordinates.Lat, m.Coordinates.Lon)
		if d <= radius {
			out = append(out, nearbyMeeting{Meeting: m, DistanceMiles: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceMiles < out[j].DistanceMiles })

	writeJSON(w, http.StatusOK, out)
}
