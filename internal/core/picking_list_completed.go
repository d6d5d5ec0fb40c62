package core

import (
	"time"

	"github.com/google/uuid"
)

// PickingListCompletedEventType is the event type identifier.
const PickingListCompletedEventType = "PickingListCompleted"

// PickingListCompleted represents that all picking work for a list finished.
type PickingListCompleted struct {
	Type       string        `json:"eventType"`
	ListID     string        `json:"listId"`
	TenantID   string        `json:"tenantId"`
	OccurredAt time.Time     `json:"occurredAt"`
	Meta       EventMetadata `json:"metadata"`
}

// BuildPickingListCompleted creates a new PickingListCompleted event.
func BuildPickingListCompleted(listID uuid.UUID, tenantID uuid.UUID, occurredAt time.Time) PickingListCompleted {
	return PickingListCompleted{
		Type:       PickingListCompletedEventType,
		ListID:     listID.String(),
		TenantID:   tenantID.String(),
		OccurredAt: occurredAt,
	}
}

// EventType returns the event type identifier.
func (e PickingListCompleted) EventType() string {
	return PickingListCompletedEventType
}

// AggregateID returns the picking list id.
func (e PickingListCompleted) AggregateID() string {
	return e.ListID
}

// AggregateType returns the aggregate type tag.
func (e PickingListCompleted) AggregateType() string {
	return AggregateTypePickingList
}

// HasOccurredAt returns when this event occurred.
func (e PickingListCompleted) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// Metadata returns the attached metadata and whether any was attached.
func (e PickingListCompleted) Metadata() (EventMetadata, bool) {
	return e.Meta, !e.Meta.IsZero()
}

// WithMetadata returns an enriched copy of the event.
func (e PickingListCompleted) WithMetadata(metadata EventMetadata) DomainEvent {
	e.Meta = metadata
	return e
}
