package core

import (
	"time"

	"github.com/google/uuid"
)

// PickingListPlannedEventType is the event type identifier.
const PickingListPlannedEventType = "PickingListPlanned"

// PickingListPlanned represents that every load of a picking list finished
// planning and the list advanced to PLANNED.
type PickingListPlanned struct {
	Type       string        `json:"eventType"`
	ListID     string        `json:"listId"`
	TenantID   string        `json:"tenantId"`
	OccurredAt time.Time     `json:"occurredAt"`
	Meta       EventMetadata `json:"metadata"`
}

// BuildPickingListPlanned creates a new PickingListPlanned event.
func BuildPickingListPlanned(listID uuid.UUID, tenantID uuid.UUID, occurredAt time.Time) PickingListPlanned {
	return PickingListPlanned{
		Type:       PickingListPlannedEventType,
		ListID:     listID.String(),
		TenantID:   tenantID.String(),
		OccurredAt: occurredAt,
	}
}

// EventType returns the event type identifier.
func (e PickingListPlanned) EventType() string {
	return PickingListPlannedEventType
}

// AggregateID returns the picking list id.
func (e PickingListPlanned) AggregateID() string {
	return e.ListID
}

// AggregateType returns the aggregate type tag.
func (e PickingListPlanned) AggregateType() string {
	return AggregateTypePickingList
}

// HasOccurredAt returns when this event occurred.
func (e PickingListPlanned) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// Metadata returns the attached metadata and whether any was attached.
func (e PickingListPlanned) Metadata() (EventMetadata, bool) {
	return e.Meta, !e.Meta.IsZero()
}

// WithMetadata returns an enriched copy of the event.
func (e PickingListPlanned) WithMetadata(metadata EventMetadata) DomainEvent {
	e.Meta = metadata
	return e
}
