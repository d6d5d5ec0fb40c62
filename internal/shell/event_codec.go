package shell

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/stocklift/picking-orchestrator/internal/core"
)

// ErrUnknownEventType is returned when an inbound message carries an event
// type tag outside the closed set this service consumes. It wraps
// ErrMalformedEvent so the message is acknowledged, not redelivered.
var ErrUnknownEventType = errors.New("unknown event type")

// MarshalDomainEvent serializes a domain event for the broker.
func MarshalDomainEvent(event core.DomainEvent) ([]byte, error) {
	payload, err := jsoniter.ConfigFastest.Marshal(event)
	if err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}

	return payload, nil
}

// UnmarshalDomainEvent deserializes an inbound message into its concrete
// variant, selected by the eventType tag. The switch over variants is
// deliberately closed: an unknown tag is a producer-side problem, reported
// as poison.
func UnmarshalDomainEvent(raw []byte) (core.DomainEvent, error) {
	var probe struct {
		Type string `json:"eventType"`
	}

	if err := jsoniter.ConfigFastest.Unmarshal(raw, &probe); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}

	switch probe.Type {
	case core.PickingListReceivedEventType:
		return unmarshalAs[core.PickingListReceived](raw)
	case core.PickingListPlannedEventType:
		return unmarshalAs[core.PickingListPlanned](raw)
	case core.PickingListCompletedEventType:
		return unmarshalAs[core.PickingListCompleted](raw)
	case core.LoadPlannedEventType:
		return unmarshalAs[core.LoadPlanned](raw)
	case core.StockMovementRequestedEventType:
		return unmarshalAs[core.StockMovementRequested](raw)
	default:
		return nil, fmt.Errorf("%w: %q", errors.Join(ErrMalformedEvent, ErrUnknownEventType), probe.Type)
	}
}

func unmarshalAs[E core.DomainEvent](raw []byte) (core.DomainEvent, error) {
	var event E
	if err := jsoniter.ConfigFastest.Unmarshal(raw, &event); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}

	return event, nil
}
