package model

import "encoding/json"

// ScheduleEntry is one recurring slot on a meeting's schedule, the richer
// successor of the legacy days+time pair.
type ScheduleEntry struct {
	Day          string `json:"day"`  // lowercase weekday name
	Time         string `json:"time"` // HH:MM, 24-hour local time
	Format       string `json:"format,omitempty"`
	LocationType string `json:"locationType,omitempty"`
	Access       string `json:"access,omitempty"`
}

// Coordinates is an optional lat/lon pair for a meeting location.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Meeting is a recurring recovery meeting the user attends or has saved.
type Meeting struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Legacy weekday list, kept alongside the richer schedule.
	Days     []string        `json:"days"`
	Schedule []ScheduleEntry `json:"schedule"`

	Address      string `json:"address,omitempty"`
	Street       string `json:"street,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Zip          string `json:"zip,omitempty"`
	LocationName string `json:"locationName,omitempty"`

	Coordinates *Coordinates `json:"coordinates"`
	IsHomeGroup bool         `json:"isHomeGroup"`
	OnlineURL   string       `json:"onlineUrl,omitempty"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// MeetingsFromRecords converts adapter records into typed meetings,
// skipping records that do not decode.
func MeetingsFromRecords(records []map[string]any) []Meeting {
	out := make([]Meeting, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		var m Meeting
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}
