package model

import "encoding/json"

// Message is a stored peer message. The schema carries it for the messaging
// feature; the core storage layer treats it like any other collection.
type Message struct {
	ID          string `json:"id"`
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
	Content     string `json:"content"`
	Encrypted   bool   `json:"encrypted"`
	Timestamp   string `json:"timestamp"`
	Read        bool   `json:"read"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// MessagesFromRecords converts adapter records into typed messages,
// skipping records that do not decode.
func MessagesFromRecords(records []map[string]any) []Message {
	out := make([]Message, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}
