package task

import (
	"github.com/google/uuid"

	"github.com/oicomi/oicomi/internal/shared/domain"
)

const (
	AggregateType = "Task"

	RoutingKeyCreated   = "core.task.created"
	RoutingKeyCompleted = "core.task.completed"
	RoutingKeyRestored  = "core.task.restored"
)

// Created is emitted when a new task is added.
type Created struct {
	domain.BaseEvent
	Title            string `json:"title"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

// NewCreated creates a Created event.
func NewCreated(taskID uuid.UUID, title string, estimatedMinutes int) Created {
	return Created{
		BaseEvent:        domain.NewBaseEvent(taskID, AggregateType, RoutingKeyCreated),
		Title:            title,
		EstimatedMinutes: estimatedMinutes,
	}
}

// Completed is emitted when a task is marked completed.
type Completed struct {
	domain.BaseEvent
}

// NewCompleted creates a Completed event.
func NewCompleted(taskID uuid.UUID) Completed {
	return Completed{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyCompleted),
	}
}

// Restored is emitted when a completed task is flipped back to incomplete.
type Restored struct {
	domain.BaseEvent
}

// NewRestored creates a Restored event.
func NewRestored(taskID uuid.UUID) Restored {
	return Restored{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyRestored),
	}
}
