package core

import "time"

// Aggregate type tags carried by events, used for routing and observability.
const (
	AggregateTypePickingList   = "PickingList"
	AggregateTypeLoad          = "Load"
	AggregateTypeStockMovement = "StockMovement"
)

// DomainEvents is a slice of DomainEvent instances.
type DomainEvents = []DomainEvent

// DomainEvent represents a business occurrence in the picking domain.
//
// The set of implementations in this package is closed: every variant is a
// plain struct with exported fields, a Build constructor, and a WithMetadata
// method that reconstructs an enriched copy of the same concrete type. The
// publisher selects behavior by type switch over these variants, never by
// reflection.
type DomainEvent interface {
	// EventType returns the string identifier for this event type.
	EventType() string

	// AggregateID returns the identity of the aggregate the event belongs
	// to. It doubles as the broker partition key, which guarantees
	// per-aggregate ordering.
	AggregateID() string

	// AggregateType returns the aggregate type tag.
	AggregateType() string

	// HasOccurredAt returns when this event occurred.
	HasOccurredAt() time.Time

	// Metadata returns the attached metadata and whether any was attached.
	Metadata() (EventMetadata, bool)

	// WithMetadata returns a copy of the event with the given metadata
	// attached. The receiver is left unchanged.
	WithMetadata(metadata EventMetadata) DomainEvent
}
