// Package dispatch provides the weekly dispatch board: time-boxed visit
// events assigning technicians to work orders, with derived work-order
// status transitions.
package dispatch

import "time"

// Status represents the lifecycle of a dispatch event.
// SCHEDULED -> IN_PROGRESS -> COMPLETE; CANCELED is reachable from the two
// non-terminal states. The board's "Unassign" action deletes the row rather
// than parking it in CANCELED.
type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusComplete   Status = "COMPLETE"
	StatusCanceled   Status = "CANCELED"
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusComplete, StatusCanceled:
		return true
	default:
		return false
	}
}

// IsActive reports whether the event still occupies the technician's board.
func (s Status) IsActive() bool {
	return s == StatusScheduled || s == StatusInProgress
}

// CanTransitionTo enforces the forward-only event state machine.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusScheduled:
		return next == StatusInProgress || next == StatusComplete || next == StatusCanceled
	case StatusInProgress:
		return next == StatusComplete || next == StatusCanceled
	default:
		return false
	}
}

// EventType distinguishes job visits from plain calendar entries.
type EventType string

const (
	TypeJob     EventType = "JOB"
	TypeTask    EventType = "TASK"
	TypeMeeting EventType = "MEETING"
)

// IsValid checks if the event type is a known value.
func (t EventType) IsValid() bool {
	switch t {
	case TypeJob, TypeTask, TypeMeeting:
		return true
	default:
		return false
	}
}

// DefaultDurationMinutes applies when a create request supplies neither an
// end timestamp nor a positive duration.
const DefaultDurationMinutes = 120

// Event is the scheduling unit: one technician booked for one time box,
// usually against a work order. WorkOrderID is nil for TASK and MEETING
// entries.
type Event struct {
	ID          int64     `json:"id" db:"id"`
	WorkOrderID *int64    `json:"work_order_id,omitempty" db:"work_order_id"`
	TechID      int64     `json:"tech_id" db:"tech_id"`
	StartAt     time.Time `json:"start_at" db:"start_at"`
	EndAt       time.Time `json:"end_at" db:"end_at"`
	Status      Status    `json:"status" db:"status"`
	Type        EventType `json:"type" db:"event_type"`
	Notes       *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
