package model

import (
	"encoding/json"
	"time"
)

// Activity types recognized by the fitness calculator. Free-form strings are
// allowed in storage; unrecognized types simply carry no score weight.
const (
	ActivityPrayer       = "prayer"
	ActivityMeditation   = "meditation"
	ActivityMeeting      = "meeting"
	ActivityReading      = "reading"
	ActivityLiterature   = "literature"
	ActivityService      = "service"
	ActivityStepWork     = "stepWork"
	ActivitySponsorCall  = "sponsorCall"
	ActivitySponseeCall  = "sponseeCall"
	ActivityAAMemberCall = "aaMemberCall"
	ActivityActionItem   = "action-item"
)

// Activity is one journaled recovery action.
type Activity struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Duration int    `json:"duration"` // minutes
	Date     string `json:"date"`     // ISO date or date-time
	Notes    string `json:"notes"`

	// Meeting-specific fields.
	MeetingName string `json:"meetingName,omitempty"`
	MeetingID   string `json:"meetingId,omitempty"`
	WasChair    bool   `json:"wasChair,omitempty"`
	WasShare    bool   `json:"wasShare,omitempty"`
	WasSpeaker  bool   `json:"wasSpeaker,omitempty"`

	// Call-specific fields.
	IsSponsorCall  bool   `json:"isSponsorCall,omitempty"`
	IsSponseeCall  bool   `json:"isSponseeCall,omitempty"`
	IsAAMemberCall bool   `json:"isAAMemberCall,omitempty"`
	CallType       string `json:"callType,omitempty"`

	// Free-form status marker for action items ("completed", "deleted").
	Location string `json:"location,omitempty"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// When parses the activity date, accepting date-only or RFC 3339 forms.
// The zero time is returned for unparseable dates.
func (a Activity) When() time.Time {
	return ParseDate(a.Date)
}

// ParseDate parses the date formats the journal accepts: YYYY-MM-DD,
// RFC 3339, and RFC 3339 without an offset.
func ParseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ActivitiesFromRecords converts adapter records into typed activities.
// Records that do not decode are skipped; callers only need the fields
// the calculators consume.
func ActivitiesFromRecords(records []map[string]any) []Activity {
	out := make([]Activity, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		var a Activity
		if err := json.Unmarshal(data, &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}
