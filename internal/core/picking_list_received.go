package core

import (
	"time"

	"github.com/google/uuid"
)

// PickingListReceivedEventType is the event type identifier.
const PickingListReceivedEventType = "PickingListReceived"

// PickingListReceived represents that a picking list arrived from the
// upstream order flow together with the loads it owns. It is the trigger
// for the planning fan-out.
type PickingListReceived struct {
	Type       string        `json:"eventType"`
	ListID     string        `json:"listId"`
	TenantID   string        `json:"tenantId"`
	LoadIDs    []string      `json:"loadIds"`
	OccurredAt time.Time     `json:"occurredAt"`
	Meta       EventMetadata `json:"metadata"`
}

// BuildPickingListReceived creates a new PickingListReceived event.
func BuildPickingListReceived(listID uuid.UUID, tenantID uuid.UUID, loadIDs []uuid.UUID, occurredAt time.Time) PickingListReceived {
	ids := make([]string, 0, len(loadIDs))
	for _, id := range loadIDs {
		ids = append(ids, id.String())
	}

	return PickingListReceived{
		Type:       PickingListReceivedEventType,
		ListID:     listID.String(),
		TenantID:   tenantID.String(),
		LoadIDs:    ids,
		OccurredAt: occurredAt,
	}
}

// EventType returns the event type identifier.
func (e PickingListReceived) EventType() string {
	return PickingListReceivedEventType
}

// AggregateID returns the picking list id.
func (e PickingListReceived) AggregateID() string {
	return e.ListID
}

// AggregateType returns the aggregate type tag.
func (e PickingListReceived) AggregateType() string {
	return AggregateTypePickingList
}

// HasOccurredAt returns when this event occurred.
func (e PickingListReceived) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// Metadata returns the attached metadata and whether any was attached.
func (e PickingListReceived) Metadata() (EventMetadata, bool) {
	return e.Meta, !e.Meta.IsZero()
}

// WithMetadata returns an enriched copy of the event.
func (e PickingListReceived) WithMetadata(metadata EventMetadata) DomainEvent {
	e.Meta = metadata
	return e
}
