// Package planfanout reacts to "picking list received" events by issuing
// one location-planning command per owned load.
package planfanout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/stocklift/picking-orchestrator/internal/core"
	"github.com/stocklift/picking-orchestrator/internal/observability"
	"github.com/stocklift/picking-orchestrator/internal/shell"
)

// LocationPlanner is the collaborator that plans picking locations for one
// load. Implemented by the planner HTTP client.
type LocationPlanner interface {
	PlanLocations(ctx context.Context, tenantID uuid.UUID, loadID uuid.UUID) error
}

// Consumer handles PickingListReceived events.
//
// Failure policy (documented choice): the first retryable planning failure
// aborts the whole delivery, so the broker redelivers the entire event and
// every load is planned again. Planning is idempotent on the planner side,
// which makes the duplicate commands harmless, and whole-event redelivery
// keeps the consumer free of any partial-progress bookkeeping.
type Consumer struct {
	planner LocationPlanner
	logger  observability.Logger
	metrics observability.MetricsCollector
}

// NewConsumer creates the fan-out consumer.
func NewConsumer(planner LocationPlanner, logger observability.Logger, metrics observability.MetricsCollector) *Consumer {
	return &Consumer{
		planner: planner,
		logger:  logger,
		metrics: metrics,
	}
}

// Handle processes one broker message.
func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) error {
	event, err := shell.UnmarshalDomainEvent(msg.Value)
	if err != nil {
		return err // poison, acknowledged by the runner
	}

	received, ok := event.(core.PickingListReceived)
	if !ok {
		c.logger.Debug("ignoring event type not relevant to planning fan-out",
			"event_type", event.EventType())

		return nil
	}

	tenantID, err := uuid.Parse(received.TenantID)
	if err != nil {
		return fmt.Errorf("%w: invalid tenant id %q", shell.ErrMalformedEvent, received.TenantID)
	}

	for _, rawLoadID := range received.LoadIDs {
		loadID, parseErr := uuid.Parse(rawLoadID)
		if parseErr != nil {
			return fmt.Errorf("%w: invalid load id %q", shell.ErrMalformedEvent, rawLoadID)
		}

		// Each load is planned independently of its siblings' outcomes,
		// but a failure here aborts the delivery (see type comment).
		if planErr := c.planner.PlanLocations(ctx, tenantID, loadID); planErr != nil {
			c.logger.Warn("planning command failed",
				"list_id", received.ListID, "load_id", rawLoadID, "error", planErr)

			return planErr
		}
	}

	c.logger.Info("planning fanned out",
		"list_id", received.ListID, "load_count", len(received.LoadIDs))
	c.metrics.IncrementCounter("planning_fanout_lists_total", nil)

	return nil
}
