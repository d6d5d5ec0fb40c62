package core

import (
	"time"

	"github.com/google/uuid"
)

// StockMovementRequestedEventType is the event type identifier.
const StockMovementRequestedEventType = "StockMovementRequested"

// StockMovementRequested represents that a stock movement was requested as
// the follow-up of a completed picking task.
type StockMovementRequested struct {
	Type             string        `json:"eventType"`
	MovementID       string        `json:"movementId"`
	TenantID         string        `json:"tenantId"`
	ProductID        string        `json:"productId"`
	SourceLocationID string        `json:"sourceLocationId"`
	TargetLocationID string        `json:"targetLocationId"`
	Quantity         int           `json:"quantity"`
	OccurredAt       time.Time     `json:"occurredAt"`
	Meta             EventMetadata `json:"metadata"`
}

// BuildStockMovementRequested creates a new StockMovementRequested event.
func BuildStockMovementRequested(
	movementID uuid.UUID,
	tenantID uuid.UUID,
	productID uuid.UUID,
	sourceLocationID uuid.UUID,
	targetLocationID uuid.UUID,
	quantity int,
	occurredAt time.Time,
) StockMovementRequested {
	return StockMovementRequested{
		Type:             StockMovementRequestedEventType,
		MovementID:       movementID.String(),
		TenantID:         tenantID.String(),
		ProductID:        productID.String(),
		SourceLocationID: sourceLocationID.String(),
		TargetLocationID: targetLocationID.String(),
		Quantity:         quantity,
		OccurredAt:       occurredAt,
	}
}

// EventType returns the event type identifier.
func (e StockMovementRequested) EventType() string {
	return StockMovementRequestedEventType
}

// AggregateID returns the movement id.
func (e StockMovementRequested) AggregateID() string {
	return e.MovementID
}

// AggregateType returns the aggregate type tag.
func (e StockMovementRequested) AggregateType() string {
	return AggregateTypeStockMovement
}

// HasOccurredAt returns when this event occurred.
func (e StockMovementRequested) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// Metadata returns the attached metadata and whether any was attached.
func (e StockMovementRequested) Metadata() (EventMetadata, bool) {
	return e.Meta, !e.Meta.IsZero()
}

// WithMetadata returns an enriched copy of the event.
func (e StockMovementRequested) WithMetadata(metadata EventMetadata) DomainEvent {
	e.Meta = metadata
	return e
}
