// Package publisher emits domain events to the broker, enriching them with
// metadata and keying them by aggregate id for per-aggregate ordering.
package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/stocklift/picking-orchestrator/internal/broker"
	"github.com/stocklift/picking-orchestrator/internal/core"
	"github.com/stocklift/picking-orchestrator/internal/observability"
	"github.com/stocklift/picking-orchestrator/internal/shell"
)

// Header keys duplicated from the event metadata onto the broker message,
// so consumers can route and correlate without unmarshaling the payload.
const (
	HeaderEventType     = "eventType"
	HeaderAggregateType = "aggregateType"
	HeaderCorrelationID = "correlationId"
	HeaderCausationID   = "causationId"
	HeaderTenantID      = "tenantId"
)

// ErrPublishFailed is returned when an event could not be handed to the
// broker. Losing a lifecycle event breaks convergence, so callers must
// treat this as fatal for the emitting operation rather than swallow it.
// It wraps shell.ErrDownstreamUnavailable: an unreachable broker is a
// transient downstream failure and the triggering message must be
// redelivered.
var ErrPublishFailed = fmt.Errorf("publishing event failed: %w", shell.ErrDownstreamUnavailable)

// EventPublisher enriches and publishes domain events. Events are routed to
// a producer by their aggregate type; the partition key is always the
// aggregate id.
type EventPublisher struct {
	producers       map[string]broker.Producer
	defaultProducer broker.Producer
	logger          observability.Logger
}

// NewEventPublisher creates a publisher. producers maps aggregate type tags
// (core.AggregateType*) to topic producers; events with an unmapped
// aggregate type go to defaultProducer.
func NewEventPublisher(
	producers map[string]broker.Producer,
	defaultProducer broker.Producer,
	logger observability.Logger,
) *EventPublisher {
	return &EventPublisher{
		producers:       producers,
		defaultProducer: defaultProducer,
		logger:          logger,
	}
}

// Publish enriches the event if needed, serializes it, and hands it to the
// broker keyed by the event's aggregate id.
func (p *EventPublisher) Publish(ctx context.Context, mc shell.MessageContext, event core.DomainEvent) error {
	enriched := p.Enrich(mc, event)

	// A marshal failure is poison, not a broker problem: return it
	// unwrapped so it is acknowledged instead of redelivered.
	payload, err := shell.MarshalDomainEvent(enriched)
	if err != nil {
		return err
	}

	metadata, _ := enriched.Metadata()

	msg := kafka.Message{
		Key:   []byte(enriched.AggregateID()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(enriched.EventType())},
			{Key: HeaderAggregateType, Value: []byte(enriched.AggregateType())},
			{Key: HeaderCorrelationID, Value: []byte(metadata.CorrelationID)},
			{Key: HeaderCausationID, Value: []byte(metadata.CausationID)},
			{Key: HeaderTenantID, Value: []byte(metadata.TenantID)},
		},
	}

	if err := p.producerFor(enriched).WriteMessage(ctx, msg); err != nil {
		return errors.Join(ErrPublishFailed, err)
	}

	p.logger.Debug("event published",
		"event_type", enriched.EventType(),
		"aggregate_id", enriched.AggregateID(),
		"correlation_id", metadata.CorrelationID)

	return nil
}

// PublishAll publishes the events in order, stopping at the first failure.
func (p *EventPublisher) PublishAll(ctx context.Context, mc shell.MessageContext, events core.DomainEvents) error {
	for _, event := range events {
		if err := p.Publish(ctx, mc, event); err != nil {
			return err
		}
	}

	return nil
}

// Enrich returns the event with metadata attached. Events that already
// carry metadata pass through unchanged, which makes enrichment idempotent;
// otherwise a fully populated copy of the same concrete type is
// reconstructed via the variant's own WithMetadata.
func (p *EventPublisher) Enrich(mc shell.MessageContext, event core.DomainEvent) core.DomainEvent {
	if _, has := event.Metadata(); has {
		return event
	}

	return event.WithMetadata(mc.EventMetadata())
}

func (p *EventPublisher) producerFor(event core.DomainEvent) broker.Producer {
	if producer, ok := p.producers[event.AggregateType()]; ok {
		return producer
	}

	p.logger.Warn("no producer mapped for aggregate type, using default topic",
		"aggregate_type", event.AggregateType(), "event_type", event.EventType())

	return p.defaultProducer
}
