package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ListStatus is the lifecycle status of a PickingList.
type ListStatus string

// Lifecycle statuses of a PickingList. The only legal forward path is
// RECEIVED -> PROCESSING -> PLANNED -> COMPLETED; CANCELLED is a terminal
// marker reachable from any non-terminal status.
const (
	ListStatusReceived   ListStatus = "RECEIVED"
	ListStatusProcessing ListStatus = "PROCESSING"
	ListStatusPlanned    ListStatus = "PLANNED"
	ListStatusCompleted  ListStatus = "COMPLETED"
	ListStatusCancelled  ListStatus = "CANCELLED"
)

// ErrIllegalStatusTransition is returned when a transition violates the
// PickingList lifecycle.
var ErrIllegalStatusTransition = errors.New("illegal picking list status transition")

// PickingList is the aggregate root whose status is converged from the
// independently planned states of its Loads.
//
// Loads are referenced by id, never contained: they are owned by their own
// command handlers and are read-only from the PickingList's perspective.
// Version is the optimistic concurrency guard compared at save time; it is
// incremented by the repository on every persisted transition, not in memory.
type PickingList struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	LoadRefs []uuid.UUID
	Status   ListStatus
	Version  uint

	recordedEvents DomainEvents
}

// BuildPickingList creates a PickingList in status RECEIVED.
func BuildPickingList(id uuid.UUID, tenantID uuid.UUID, loadRefs []uuid.UUID) *PickingList {
	return &PickingList{
		ID:       id,
		TenantID: tenantID,
		LoadRefs: loadRefs,
		Status:   ListStatusReceived,
	}
}

// StartProcessing transitions RECEIVED -> PROCESSING.
func (l *PickingList) StartProcessing(occurredAt time.Time) error {
	if l.Status != ListStatusReceived {
		return transitionError(l.Status, ListStatusProcessing)
	}

	l.Status = ListStatusProcessing

	return nil
}

// MarkPlanned transitions PROCESSING -> PLANNED and records a
// PickingListPlanned event to be published after a successful save.
func (l *PickingList) MarkPlanned(occurredAt time.Time) error {
	if l.Status != ListStatusProcessing {
		return transitionError(l.Status, ListStatusPlanned)
	}

	l.Status = ListStatusPlanned
	l.record(BuildPickingListPlanned(l.ID, l.TenantID, occurredAt))

	return nil
}

// Complete transitions PLANNED -> COMPLETED and records a
// PickingListCompleted event.
func (l *PickingList) Complete(occurredAt time.Time) error {
	if l.Status != ListStatusPlanned {
		return transitionError(l.Status, ListStatusCompleted)
	}

	l.Status = ListStatusCompleted
	l.record(BuildPickingListCompleted(l.ID, l.TenantID, occurredAt))

	return nil
}

// Cancel marks the list CANCELLED. Lists are never hard-deleted.
func (l *PickingList) Cancel() error {
	if l.IsTerminal() {
		return transitionError(l.Status, ListStatusCancelled)
	}

	l.Status = ListStatusCancelled

	return nil
}

// IsTerminal reports whether the list reached a final status.
func (l *PickingList) IsTerminal() bool {
	return l.Status == ListStatusCompleted || l.Status == ListStatusCancelled
}

// IsPlanningSettled reports whether convergence already happened: once a
// list is PLANNED or beyond, later sibling events are no-ops.
func (l *PickingList) IsPlanningSettled() bool {
	return l.Status == ListStatusPlanned || l.Status == ListStatusCompleted || l.Status == ListStatusCancelled
}

// PullRecordedEvents returns the events recorded by transitions since the
// last pull and clears the buffer. Callers publish them after the save that
// made the transitions durable.
func (l *PickingList) PullRecordedEvents() DomainEvents {
	events := l.recordedEvents
	l.recordedEvents = nil

	return events
}

func (l *PickingList) record(event DomainEvent) {
	l.recordedEvents = append(l.recordedEvents, event)
}

func transitionError(from ListStatus, to ListStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrIllegalStatusTransition, from, to)
}
