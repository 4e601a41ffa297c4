package eventtype

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EventType is a registered report category whose schema template drives
// form rendering, payload extraction and rule-variable synthesis.
type EventType struct {
	ID       uuid.UUID `json:"id"`
	Value    string    `json:"value"`
	Display  string    `json:"display"`
	Category string    `json:"category,omitempty"`

	// Schema is the raw template text, possibly carrying substitution
	// tokens. It is rendered, never parsed directly.
	Schema string `json:"schema"`
}

// EventDetails is the stored payload for one event, shaped as
// {"event_details": {...}}.
type EventDetails struct {
	EventID   string          `json:"event_id"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// DetailValues unwraps the event_details object, or nil when the payload
// is absent or malformed.
func (d *EventDetails) DetailValues() map[string]interface{} {
	if d == nil || len(d.Data) == 0 {
		return nil
	}
	var wrapper struct {
		EventDetails map[string]interface{} `json:"event_details"`
	}
	if err := json.Unmarshal(d.Data, &wrapper); err != nil {
		return nil
	}
	return wrapper.EventDetails
}

// ErrNotFound is returned when no event type or payload matches a lookup.
var ErrNotFound = errors.New("eventtype: not found")

// Repository provides read access to the event-type catalog.
type Repository interface {
	// Get returns the event type with the given value.
	Get(ctx context.Context, value string) (*EventType, error)

	// List returns all event types ordered by value.
	List(ctx context.Context) ([]EventType, error)
}

// DetailsRepository provides read access to stored event payloads.
type DetailsRepository interface {
	// Get returns the latest payload for the given event id.
	Get(ctx context.Context, eventID string) (*EventDetails, error)
}
