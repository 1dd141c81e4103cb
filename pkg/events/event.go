package events

import (
	"time"
)

// Event types published by the core.
const (
	ProfileCreated    = "profile.created"
	ProfileUpdated    = "profile.updated"
	ProfileDeleted    = "profile.deleted"
	DefaultProfileSet = "profile.default_set"
	AccountCreated    = "account.created"
	ProgressRecorded  = "progress.recorded"
	ProgressRemoved   = "progress.removed"
)

// BaseEvent is a basic implementation of the Event interface
type BaseEvent struct {
	Type  string                 `json:"type"`
	Time  int64                  `json:"timestamp"`
	AggID string                 `json:"aggregate_id"`
	Data  map[string]interface{} `json:"data"`
}

// NewEvent creates a new event
func NewEvent(eventType string, data map[string]interface{}) *BaseEvent {
	return NewAggregateEvent(eventType, "", data)
}

// NewAggregateEvent creates a new event with an aggregate ID
func NewAggregateEvent(eventType string, aggregateID string, data map[string]interface{}) *BaseEvent {
	return &BaseEvent{
		Type:  eventType,
		Time:  time.Now().UnixNano(),
		AggID: aggregateID,
		Data:  data,
	}
}

// EventType returns the type of the event
func (e *BaseEvent) EventType() string {
	return e.Type
}

// Timestamp returns when the event occurred
func (e *BaseEvent) Timestamp() int64 {
	return e.Time
}

// AggregateID returns the ID of the aggregate that produced the event
func (e *BaseEvent) AggregateID() string {
	return e.AggID
}

// Payload returns the event data
func (e *BaseEvent) Payload() map[string]interface{} {
	return e.Data
}
