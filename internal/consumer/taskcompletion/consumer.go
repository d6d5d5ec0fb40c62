// Package taskcompletion reacts to "task completed" events authored by the
// picking execution service. Their schema is not shared with this service
// and evolves independently, so the payload is decoded defensively field
// by field, and every mandatory-field failure is treated as poison.
//
// A valid completion is turned into a stock movement: the picked quantity
// moves from the pick location to the tenant's shipping location, or stays
// in place when no shipping location is configured.
package taskcompletion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/stocklift/picking-orchestrator/internal/clients"
	"github.com/stocklift/picking-orchestrator/internal/core"
	"github.com/stocklift/picking-orchestrator/internal/observability"
	"github.com/stocklift/picking-orchestrator/internal/publisher"
	"github.com/stocklift/picking-orchestrator/internal/shell"
)

const foreignEventType = "TaskCompleted"

// TaskCompletion is the typed result of defensively decoding the foreign
// payload.
type TaskCompletion struct {
	ProductCode    string
	LocationID     uuid.UUID
	PickedQuantity int
	ActorID        string
	TenantID       uuid.UUID
	CorrelationID  string
	TaskID         string
}

// ProductResolver resolves product codes against the product catalog.
type ProductResolver interface {
	FindProductByCode(ctx context.Context, tenantID uuid.UUID, code string) (clients.Product, error)
}

// StockService is the slice of the stock service this consumer needs.
type StockService interface {
	FindStockItem(ctx context.Context, tenantID uuid.UUID, productID uuid.UUID, locationID uuid.UUID) (clients.StockItem, error)
	FindShippingLocation(ctx context.Context, tenantID uuid.UUID) (uuid.UUID, error)
	CreateMovement(ctx context.Context, tenantID uuid.UUID, movement clients.StockMovement) error
}

// EventPublisher publishes the follow-on StockMovementRequested event.
type EventPublisher interface {
	PublishAll(ctx context.Context, mc shell.MessageContext, events core.DomainEvents) error
}

// Consumer handles foreign task-completed events.
type Consumer struct {
	catalog   ProductResolver
	stock     StockService
	publisher EventPublisher
	logger    observability.Logger
	metrics   observability.MetricsCollector
	now       func() time.Time
	newID     func() uuid.UUID
}

// NewConsumer creates the task-completion consumer.
func NewConsumer(
	catalog ProductResolver,
	stock StockService,
	publisher EventPublisher,
	logger observability.Logger,
	metrics observability.MetricsCollector,
) *Consumer {
	return &Consumer{
		catalog:   catalog,
		stock:     stock,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
		newID:     uuid.New,
	}
}

// Handle processes one broker message.
func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) error {
	payload, err := shell.DecodeUntypedPayload(msg.Value)
	if err != nil {
		return err
	}

	if eventType, typeErr := payload.OptionalStringField("eventType"); typeErr == nil && eventType != "" && eventType != foreignEventType {
		c.logger.Debug("ignoring event type not relevant to task completion",
			"event_type", eventType)

		return nil
	}

	completion, err := decodeTaskCompletion(payload, msg.Headers)
	if err != nil {
		return err // poison, acknowledged by the runner
	}

	product, err := c.catalog.FindProductByCode(ctx, completion.TenantID, completion.ProductCode)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return fmt.Errorf("%w: unknown product code %q", shell.ErrMalformedEvent, completion.ProductCode)
		}

		return err
	}

	item, err := c.stock.FindStockItem(ctx, completion.TenantID, product.ID, completion.LocationID)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			// Benign: the item may have already been moved away.
			c.logger.Info("no stock item at pick location, skipping movement",
				"product_code", completion.ProductCode, "location_id", completion.LocationID.String())
			c.metrics.IncrementCounter("task_completion_missing_stock_total", nil)

			return nil
		}

		return err
	}

	target, err := c.resolveTargetLocation(ctx, completion.TenantID, completion.LocationID)
	if err != nil {
		return err
	}

	movement := clients.StockMovement{
		ID:               c.newID(),
		ProductID:        product.ID,
		SourceLocationID: item.LocationID,
		TargetLocationID: target,
		Quantity:         completion.PickedQuantity,
		ActorID:          completion.ActorID,
	}

	if err := c.stock.CreateMovement(ctx, completion.TenantID, movement); err != nil {
		return err
	}

	if err := c.publishMovementRequested(ctx, completion, movement); err != nil {
		return err
	}

	c.logger.Info("stock movement created for completed task",
		"movement_id", movement.ID.String(), "product_code", completion.ProductCode,
		"quantity", movement.Quantity, "picked_in_place", target == item.LocationID)
	c.metrics.IncrementCounter("task_completion_movements_total", nil)

	return nil
}

// resolveTargetLocation applies the destination fallback: the tenant's
// designated shipping location, or the source location itself when none is
// configured ("picked in place").
func (c *Consumer) resolveTargetLocation(ctx context.Context, tenantID uuid.UUID, source uuid.UUID) (uuid.UUID, error) {
	shipping, err := c.stock.FindShippingLocation(ctx, tenantID)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			c.logger.Debug("no shipping location configured, picking in place",
				"tenant_id", tenantID.String())

			return source, nil
		}

		return uuid.Nil, err
	}

	return shipping, nil
}

func (c *Consumer) publishMovementRequested(ctx context.Context, completion TaskCompletion, movement clients.StockMovement) error {
	mc := shell.MessageContext{
		TenantID:      completion.TenantID.String(),
		CorrelationID: completion.CorrelationID,
		CausationID:   foreignEventType + ":" + completion.TaskID,
		ActorID:       completion.ActorID,
	}

	if mc.CorrelationID == "" {
		mc.CorrelationID = uuid.New().String()
	}

	event := core.BuildStockMovementRequested(
		movement.ID,
		completion.TenantID,
		movement.ProductID,
		movement.SourceLocationID,
		movement.TargetLocationID,
		movement.Quantity,
		c.now().UTC(),
	)

	return c.publisher.PublishAll(ctx, mc, core.DomainEvents{event})
}

// decodeTaskCompletion extracts the mandatory fields from the foreign
// payload. The tenant id may live in the payload body or, failing that, in
// the broker message headers put there by the producing service.
func decodeTaskCompletion(payload shell.UntypedPayload, headers []kafka.Header) (TaskCompletion, error) {
	productCode, err := payload.StringField("productCode")
	if err != nil {
		return TaskCompletion{}, err
	}

	rawLocationID, err := payload.StringField("locationId")
	if err != nil {
		return TaskCompletion{}, err
	}

	locationID, err := uuid.Parse(rawLocationID)
	if err != nil {
		return TaskCompletion{}, &shell.DecodeError{Field: "locationId", Reason: "not a valid uuid"}
	}

	quantity, err := payload.IntField("pickedQuantity")
	if err != nil {
		return TaskCompletion{}, err
	}

	if quantity <= 0 {
		return TaskCompletion{}, &shell.DecodeError{Field: "pickedQuantity", Reason: "must be positive"}
	}

	actorID, err := payload.StringField("actorId")
	if err != nil {
		return TaskCompletion{}, err
	}

	rawTenantID, err := payload.OptionalStringField("tenantId")
	if err != nil {
		return TaskCompletion{}, err
	}

	if rawTenantID == "" {
		rawTenantID = headerValue(headers, publisher.HeaderTenantID)
	}

	if rawTenantID == "" {
		return TaskCompletion{}, &shell.DecodeError{Field: "tenantId", Reason: "missing from payload and envelope"}
	}

	tenantID, err := uuid.Parse(rawTenantID)
	if err != nil {
		return TaskCompletion{}, &shell.DecodeError{Field: "tenantId", Reason: "not a valid uuid"}
	}

	taskID, err := payload.OptionalStringField("taskId")
	if err != nil {
		return TaskCompletion{}, err
	}

	return TaskCompletion{
		ProductCode:    productCode,
		LocationID:     locationID,
		PickedQuantity: quantity,
		ActorID:        actorID,
		TenantID:       tenantID,
		CorrelationID:  headerValue(headers, publisher.HeaderCorrelationID),
		TaskID:         taskID,
	}, nil
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}

	return ""
}
