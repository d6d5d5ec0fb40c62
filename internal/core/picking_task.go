package core

import "github.com/google/uuid"

// TaskStatus is the lifecycle status of a PickingTask.
type TaskStatus string

const (
	TaskStatusPending            TaskStatus = "PENDING"
	TaskStatusInProgress         TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted          TaskStatus = "COMPLETED"
	TaskStatusPartiallyCompleted TaskStatus = "PARTIALLY_COMPLETED"
)

// PickingTask is the unit of work a picker executes at a location. Its
// lifecycle is owned by the task service; this service only observes task
// completion through events and never mutates tasks.
type PickingTask struct {
	ID               uuid.UUID
	ProductID        uuid.UUID
	LocationID       uuid.UUID
	RequiredQuantity int
	Status           TaskStatus
}
