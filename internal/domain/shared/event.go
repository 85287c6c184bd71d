package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents an event that occurred in the domain
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
}

// BaseDomainEvent provides common fields for all domain events
type BaseDomainEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	AggID     uuid.UUID `json:"aggregate_id"`
	AggType   string    `json:"aggregate_type"`
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.Timestamp }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.AggID }
func (e *BaseDomainEvent) AggregateType() string  { return e.AggType }

// NewBaseDomainEvent stamps a new event with an id and the current time
func NewBaseDomainEvent(eventType, aggType string, aggID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
		AggID:     aggID,
		AggType:   aggType,
	}
}

// EventHandler reacts to published events. An empty EventTypes subscribes
// to every event.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher is what services depend on; a nil publisher means events
// are dropped
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus fans published events out to subscribed handlers
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
