package model

import "encoding/json"

// User is the single local profile for an installation. It is created
// implicitly on first profile edit; there is never more than one logical
// user per device.
type User struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	LastName        string         `json:"lastName"`
	PhoneNumber     string         `json:"phoneNumber"`
	Email           string         `json:"email"`
	SobrietyDate    string         `json:"sobrietyDate"` // date-only, YYYY-MM-DD
	HomeGroups      []string       `json:"homeGroups"`
	PrivacySettings map[string]any `json:"privacySettings"`
	Preferences     map[string]any `json:"preferences"`
	Sponsor         map[string]any `json:"sponsor"`
	Sponsees        []any          `json:"sponsees"`
	MessagingKeys   map[string]any `json:"messagingKeys"`
	CreatedAt       string         `json:"createdAt"`
	UpdatedAt       string         `json:"updatedAt"`
}

// UserFromRecord converts an adapter record into a typed profile.
func UserFromRecord(rec map[string]any) (User, bool) {
	data, err := json.Marshal(rec)
	if err != nil {
		return User{}, false
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return User{}, false
	}
	return u, true
}
