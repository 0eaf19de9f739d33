// Package history exports dashboard events to external analytics
// stores: per-service health transitions and error-classified log
// lines.
package history

import (
	"context"
	"time"
)

// EventType defines the kind of dashboard event.
type EventType string

const (
	EventHealthChange EventType = "health_change"
	EventLogError     EventType = "log_error"
)

// Event is one exported record.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Service    string    `json:"service"`
	OldStatus  string    `json:"old_status,omitempty"`
	NewStatus  string    `json:"new_status,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

// Sink is a destination for history events.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}
