package core

// CorrelationID groups all events that belong to one business flow.
type CorrelationID = string

// CausationID identifies the event or command that directly caused an event.
type CausationID = string

// ActorID identifies the user or system account on whose behalf an event
// was emitted.
type ActorID = string

// TenantID identifies the tenant an event belongs to.
type TenantID = string

// EventMetadata carries the tracking information attached to every
// published event. It is immutable: enrichment reconstructs a new event
// copy instead of mutating metadata in place.
type EventMetadata struct {
	CorrelationID CorrelationID `json:"correlationId"`
	CausationID   CausationID   `json:"causationId"`
	ActorID       ActorID       `json:"actorId"`
	TenantID      TenantID      `json:"tenantId"`
}

// BuildEventMetadata creates EventMetadata from its parts.
func BuildEventMetadata(correlationID CorrelationID, causationID CausationID, actorID ActorID, tenantID TenantID) EventMetadata {
	return EventMetadata{
		CorrelationID: correlationID,
		CausationID:   causationID,
		ActorID:       actorID,
		TenantID:      tenantID,
	}
}

// IsZero reports whether no metadata was attached yet.
func (m EventMetadata) IsZero() bool {
	return m == EventMetadata{}
}
