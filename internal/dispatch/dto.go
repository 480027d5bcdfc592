package dispatch

// Timestamps arrive as strings so unparseable values surface as validation
// errors with the offending field named, instead of a generic JSON decode
// failure.

type CreateEventRequest struct {
	WorkOrderID     *int64     `json:"work_order_id,omitempty" validate:"omitempty,gt=0"`
	TechID          int64      `json:"tech_id" validate:"required,gt=0"`
	StartAt         string     `json:"start_at" validate:"required"`
	EndAt           *string    `json:"end_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Status          *Status    `json:"status,omitempty"`
	Type            *EventType `json:"type,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
}

type UpdateEventRequest struct {
	TechID  *int64  `json:"tech_id,omitempty" validate:"omitempty,gt=0"`
	StartAt *string `json:"start_at,omitempty"`
	EndAt   *string `json:"end_at,omitempty"`
	Status  *Status `json:"status,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}
