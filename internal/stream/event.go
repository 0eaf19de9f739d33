package stream

import (
	"encoding/json"
	"time"
)

// Event types as sent to the browser.
const (
	EventHealth       = "health"
	EventHealthChange = "health-change"
	EventHeartbeat    = "heartbeat"
	EventLogs         = "logs"
	EventServices     = "services"
)

// Event is the envelope every broadcast payload uses.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Encode marshals an event envelope. Marshal failures are reported to
// the caller; an event that cannot encode is dropped, never sent
// malformed.
func Encode(eventType string, data any) ([]byte, error) {
	return json.Marshal(Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}
