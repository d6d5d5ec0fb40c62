package core

import "github.com/google/uuid"

// LoadStatus is the lifecycle status of a Load.
type LoadStatus string

// Load lifecycle statuses as far as this service observes them. The full
// lifecycle is owned by the load command handlers; convergence only cares
// whether a load reached PLANNED.
const (
	LoadStatusDraft     LoadStatus = "DRAFT"
	LoadStatusPlanned   LoadStatus = "PLANNED"
	LoadStatusPicking   LoadStatus = "PICKING"
	LoadStatusCompleted LoadStatus = "COMPLETED"
	LoadStatusCancelled LoadStatus = "CANCELLED"
)

// Load is a child aggregate owned by a PickingList through a foreign
// reference. PickingListID is nil for standalone loads, which take part in
// no convergence.
type Load struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	PickingListID *uuid.UUID
	Status        LoadStatus
	TaskIDs       []uuid.UUID
}

// IsStandalone reports whether the load belongs to no picking list.
func (l Load) IsStandalone() bool {
	return l.PickingListID == nil
}

// IsPlanned reports whether location planning finished for this load.
func (l Load) IsPlanned() bool {
	return l.Status == LoadStatusPlanned
}
