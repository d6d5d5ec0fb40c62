// Package convergence advances a PickingList to PLANNED once every one of
// its loads reports PLANNED.
//
// Sibling LoadPlanned events are partitioned by load id, not by list id,
// so two of them can be handled concurrently for the same parent list. The
// consumer therefore never trusts in-memory state across a save: every
// retry attempt reloads the aggregate, recomputes the decision against the
// system of record, and only then saves under the optimistic version
// guard.
package convergence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/stocklift/picking-orchestrator/internal/core"
	"github.com/stocklift/picking-orchestrator/internal/observability"
	"github.com/stocklift/picking-orchestrator/internal/shell"
	"github.com/stocklift/picking-orchestrator/internal/storage"
)

const (
	defaultReadAttempts = 3
	defaultReadDelay    = 200 * time.Millisecond
)

// PickingListRepository is the slice of the storage layer this consumer
// needs: strongly consistent reads and version-guarded saves.
type PickingListRepository interface {
	Get(ctx context.Context, tenantID uuid.UUID, listID uuid.UUID) (*core.PickingList, error)
	Save(ctx context.Context, list *core.PickingList) error
}

// LoadReader reads the loads of a list from the system of record,
// bypassing any read-through cache. Cached copies may not yet reflect the
// write that produced the event being handled.
type LoadReader interface {
	FindByPickingListFromStore(ctx context.Context, tenantID uuid.UUID, listID uuid.UUID) ([]core.Load, error)
}

// EventPublisher publishes the events recorded by aggregate transitions.
type EventPublisher interface {
	PublishAll(ctx context.Context, mc shell.MessageContext, events core.DomainEvents) error
}

// Config tunes the two retry loops of the consumer.
type Config struct {
	// ReadAttempts bounds the eventual-consistency read loop: how often an
	// empty load read is retried before the event is given up on.
	ReadAttempts int

	// ReadDelay is the fixed delay between read attempts.
	ReadDelay time.Duration

	// RetryOptions configure the optimistic-concurrency retry around the
	// reload-recompute-save attempt.
	RetryOptions []shell.RetryOption
}

// DefaultConfig returns the production tuning: 3 read attempts with a
// 200 ms fixed delay.
func DefaultConfig() Config {
	return Config{
		ReadAttempts: defaultReadAttempts,
		ReadDelay:    defaultReadDelay,
	}
}

// Consumer handles LoadPlanned events.
type Consumer struct {
	lists     PickingListRepository
	loads     LoadReader
	publisher EventPublisher
	config    Config
	logger    observability.Logger
	metrics   observability.MetricsCollector
	now       func() time.Time
}

// NewConsumer creates the convergence consumer.
func NewConsumer(
	lists PickingListRepository,
	loads LoadReader,
	publisher EventPublisher,
	config Config,
	logger observability.Logger,
	metrics observability.MetricsCollector,
) *Consumer {
	if config.ReadAttempts < 1 {
		config.ReadAttempts = defaultReadAttempts
	}

	if config.ReadDelay <= 0 {
		config.ReadDelay = defaultReadDelay
	}

	return &Consumer{
		lists:     lists,
		loads:     loads,
		publisher: publisher,
		config:    config,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Handle processes one broker message.
func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) error {
	event, err := shell.UnmarshalDomainEvent(msg.Value)
	if err != nil {
		return err // poison, acknowledged by the runner
	}

	planned, ok := event.(core.LoadPlanned)
	if !ok {
		c.logger.Debug("ignoring event type not relevant to convergence",
			"event_type", event.EventType())

		return nil
	}

	if !planned.HasParentList() {
		c.logger.Debug("standalone load planned, no convergence needed",
			"load_id", planned.LoadID)

		return nil
	}

	tenantID, err := uuid.Parse(planned.TenantID)
	if err != nil {
		return fmt.Errorf("%w: invalid tenant id %q", shell.ErrMalformedEvent, planned.TenantID)
	}

	listID, err := uuid.Parse(planned.ListID)
	if err != nil {
		return fmt.Errorf("%w: invalid picking list id %q", shell.ErrMalformedEvent, planned.ListID)
	}

	mc := shell.MessageContextFrom(planned)

	// The retried function reloads and recomputes from scratch every
	// attempt. Retrying a stale in-memory transition would resurrect a
	// decision that a concurrent sibling may have invalidated.
	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		return c.converge(retryCtx, mc, tenantID, listID)
	}, c.config.RetryOptions...)

	if retryMetrics.Attempts > 1 {
		c.logger.Info("convergence required optimistic retries",
			"list_id", planned.ListID, "attempts", retryMetrics.Attempts,
			"total_retry_delay", retryMetrics.TotalDelay)
	}

	return err
}

// converge executes one reload-recompute-save attempt.
func (c *Consumer) converge(ctx context.Context, mc shell.MessageContext, tenantID uuid.UUID, listID uuid.UUID) error {
	list, err := c.lists.Get(ctx, tenantID, listID)
	if err != nil {
		if errors.Is(err, storage.ErrPickingListNotFound) {
			// The parent may have been deleted or the event is stale.
			c.logger.Info("parent picking list absent, acknowledging stale event",
				"list_id", listID.String())

			return nil
		}

		return err
	}

	// Idempotent no-op for late sibling events and redeliveries - and the
	// tie-break after a conflict reload: if a concurrent sibling already
	// won the race, this attempt succeeds without re-saving, avoiding a
	// double transition.
	if list.IsPlanningSettled() {
		c.logger.Debug("picking list already converged",
			"list_id", listID.String(), "status", string(list.Status))

		return nil
	}

	loads, err := c.readLoadsWithRetry(ctx, tenantID, listID)
	if err != nil {
		return err
	}

	if len(loads) == 0 {
		// Conservative: a future sibling event is expected to re-trigger
		// the check. No transition, no failure.
		c.logger.Warn("no loads visible after bounded retries, deferring convergence",
			"list_id", listID.String(), "read_attempts", c.config.ReadAttempts)
		c.metrics.IncrementCounter("convergence_empty_reads_total", nil)

		return nil
	}

	decision := core.DecideConvergence(list, loads)

	switch decision.Outcome {
	case core.OutcomeAlreadyConverged:
		return nil

	case core.OutcomeNotYet:
		c.logger.Info("convergence not reached yet",
			"list_id", listID.String(),
			"planned_loads", decision.PlannedLoads, "total_loads", decision.TotalLoads)

		return nil
	}

	if err := core.AdvanceToPlanned(list, c.now()); err != nil {
		return err
	}

	if err := c.lists.Save(ctx, list); err != nil {
		return err // a conflict is retried by the surrounding loop
	}

	if err := c.publisher.PublishAll(ctx, mc, list.PullRecordedEvents()); err != nil {
		return err
	}

	c.logger.Info("picking list converged to planned",
		"list_id", listID.String(), "load_count", decision.TotalLoads, "version", list.Version)
	c.metrics.IncrementCounter("convergence_lists_planned_total", nil)

	return nil
}

// readLoadsWithRetry reads the loads from the system of record, retrying
// an empty result up to the configured bound. The write that produced the
// event being handled may not be visible to this read yet.
func (c *Consumer) readLoadsWithRetry(ctx context.Context, tenantID uuid.UUID, listID uuid.UUID) ([]core.Load, error) {
	for attempt := 1; ; attempt++ {
		loads, err := c.loads.FindByPickingListFromStore(ctx, tenantID, listID)
		if err != nil {
			return nil, err
		}

		if len(loads) > 0 || attempt >= c.config.ReadAttempts {
			return loads, nil
		}

		c.logger.Debug("load read returned empty, retrying",
			"list_id", listID.String(), "attempt", attempt)

		select {
		case <-time.After(c.config.ReadDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
