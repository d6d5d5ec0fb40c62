package shell

import (
	"github.com/google/uuid"

	"github.com/stocklift/picking-orchestrator/internal/core"
)

// SystemActorID is used when no human actor can be attributed to an event,
// e.g. for events emitted by the convergence consumer itself.
const SystemActorID = "system"

// MessageContext carries the correlation, causation, actor, and tenant
// information scoped to the processing of exactly one broker message.
//
// It is passed explicitly through the handler call chain instead of being
// stashed in process-global or goroutine-local state, so concurrent workers
// can never observe each other's identifiers.
type MessageContext struct {
	TenantID      string
	CorrelationID string
	CausationID   string
	ActorID       string
}

// MessageContextFrom derives the context for handling an inbound event. The
// correlation id is inherited (or started fresh for uncorrelated events),
// and the inbound event becomes the cause of everything emitted downstream.
func MessageContextFrom(event core.DomainEvent) MessageContext {
	mc := MessageContext{
		ActorID: SystemActorID,
	}

	if metadata, ok := event.Metadata(); ok {
		mc.TenantID = metadata.TenantID
		mc.CorrelationID = metadata.CorrelationID
		mc.ActorID = metadata.ActorID
	}

	if mc.CorrelationID == "" {
		mc.CorrelationID = uuid.New().String()
	}

	if mc.ActorID == "" {
		mc.ActorID = SystemActorID
	}

	mc.CausationID = event.EventType() + ":" + event.AggregateID()

	return mc
}

// EventMetadata builds the metadata to attach to an event emitted while
// handling this message.
func (mc MessageContext) EventMetadata() core.EventMetadata {
	return core.BuildEventMetadata(mc.CorrelationID, mc.CausationID, mc.ActorID, mc.TenantID)
}
