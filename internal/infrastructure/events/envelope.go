// Package events holds the broker-facing side of domain event publishing.
package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// Envelope wraps a domain event for transport.
type Envelope struct {
	ID          string                 `json:"id"`
	EventType   string                 `json:"event_type"`
	AggregateID string                 `json:"aggregate_id,omitempty"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Data        map[string]interface{} `json:"data"`
}

// NewEnvelope builds an envelope with a fresh id.
func NewEnvelope(event interfaces.Event) Envelope {
	return Envelope{
		ID:          uuid.NewString(),
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  time.Unix(0, event.Timestamp()).UTC(),
		Data:        event.Payload(),
	}
}

// Marshal encodes the envelope as JSON.
func (e Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", e.EventType, err)
	}
	return data, nil
}

// Subject maps an event type such as "profile.created" under prefix.
func Subject(prefix, eventType string) string {
	return strings.TrimSuffix(prefix, ".") + "." + eventType
}
