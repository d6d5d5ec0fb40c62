package core

import (
	"time"

	"github.com/google/uuid"
)

// LoadPlannedEventType is the event type identifier.
const LoadPlannedEventType = "LoadPlanned"

// LoadPlanned represents that location planning finished for a load.
//
// ListID is empty for standalone loads. Note that the partition key is the
// load id, not the parent list id: two sibling LoadPlanned events can
// therefore be consumed concurrently, which is exactly why convergence must
// tolerate concurrent writers on the parent row.
type LoadPlanned struct {
	Type       string        `json:"eventType"`
	LoadID     string        `json:"loadId"`
	TenantID   string        `json:"tenantId"`
	ListID     string        `json:"pickingListId,omitempty"`
	TaskIDs    []string      `json:"taskIds"`
	OccurredAt time.Time     `json:"occurredAt"`
	Meta       EventMetadata `json:"metadata"`
}

// BuildLoadPlanned creates a new LoadPlanned event. listID may be nil for
// standalone loads.
func BuildLoadPlanned(loadID uuid.UUID, tenantID uuid.UUID, listID *uuid.UUID, taskIDs []uuid.UUID, occurredAt time.Time) LoadPlanned {
	ids := make([]string, 0, len(taskIDs))
	for _, id := range taskIDs {
		ids = append(ids, id.String())
	}

	event := LoadPlanned{
		Type:       LoadPlannedEventType,
		LoadID:     loadID.String(),
		TenantID:   tenantID.String(),
		TaskIDs:    ids,
		OccurredAt: occurredAt,
	}

	if listID != nil {
		event.ListID = listID.String()
	}

	return event
}

// HasParentList reports whether the load belongs to a picking list.
func (e LoadPlanned) HasParentList() bool {
	return e.ListID != ""
}

// EventType returns the event type identifier.
func (e LoadPlanned) EventType() string {
	return LoadPlannedEventType
}

// AggregateID returns the load id.
func (e LoadPlanned) AggregateID() string {
	return e.LoadID
}

// AggregateType returns the aggregate type tag.
func (e LoadPlanned) AggregateType() string {
	return AggregateTypeLoad
}

// HasOccurredAt returns when this event occurred.
func (e LoadPlanned) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// Metadata returns the attached metadata and whether any was attached.
func (e LoadPlanned) Metadata() (EventMetadata, bool) {
	return e.Meta, !e.Meta.IsZero()
}

// WithMetadata returns an enriched copy of the event.
func (e LoadPlanned) WithMetadata(metadata EventMetadata) DomainEvent {
	e.Meta = metadata
	return e
}
