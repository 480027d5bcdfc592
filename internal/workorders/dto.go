package workorders

import "time"

type CreateWorkOrderRequest struct {
	CustomerID  int64            `json:"customer_id" validate:"required,gt=0"`
	LocationID  int64            `json:"location_id" validate:"required,gt=0"`
	Description string           `json:"description" validate:"required,max=2000"`
	Status      *Status          `json:"status,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
	WindowStart *time.Time       `json:"window_start,omitempty"`
	WindowEnd   *time.Time       `json:"window_end,omitempty"`
	Items       []AddItemRequest `json:"items,omitempty" validate:"omitempty,dive"`
}

type UpdateWorkOrderRequest struct {
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Status      *Status    `json:"status,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowEnd   *time.Time `json:"window_end,omitempty"`
}

type AddItemRequest struct {
	Type           ItemType `json:"type" validate:"omitempty"`
	Description    string   `json:"description" validate:"required,max=500"`
	Details        *string  `json:"details,omitempty"`
	Quantity       float64  `json:"quantity" validate:"omitempty,gt=0"`
	UnitPriceCents int64    `json:"unit_price_cents" validate:"gte=0"`
	Taxable        bool     `json:"taxable"`
}

type ListWorkOrdersRequest struct {
	Status     *Status `json:"status,omitempty"`
	CustomerID *int64  `json:"customer_id,omitempty"`
	Uninvoiced bool    `json:"uninvoiced,omitempty"`
	Limit      int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int     `json:"offset" validate:"gte=0"`
}
