// Package workorders provides work order entity logic.
package workorders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle of a work order. NEW is the unassigned
// intake state; dispatching an event moves the order to SCHEDULED.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCanceled   Status = "CANCELED"
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusScheduled, StatusInProgress, StatusCompleted, StatusCanceled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the order can no longer move forward.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// ItemType classifies a work order line item.
type ItemType string

const (
	ItemService  ItemType = "SERVICE"
	ItemMaterial ItemType = "MATERIAL"
	ItemLabor    ItemType = "LABOR"
)

// IsValid checks if the item type is a known value.
func (t ItemType) IsValid() bool {
	switch t {
	case ItemService, ItemMaterial, ItemLabor:
		return true
	default:
		return false
	}
}

// WorkOrder represents a unit of requested service work for a customer at a
// location.
type WorkOrder struct {
	ID             int64      `json:"id" db:"id"`
	CustomerID     int64      `json:"customer_id" db:"customer_id"`
	LocationID     int64      `json:"location_id" db:"location_id"`
	Description    string     `json:"description" db:"description"`
	Status         Status     `json:"status" db:"status"`
	AssignedTechID *int64     `json:"assigned_tech_id,omitempty" db:"assigned_tech_id"`
	WindowStart    *time.Time `json:"window_start,omitempty" db:"window_start"`
	WindowEnd      *time.Time `json:"window_end,omitempty" db:"window_end"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Notes          *string    `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	Items          []LineItem `json:"items,omitempty" db:"-"`
}

// LineItem is an itemized charge attached to a work order. All money is
// integer cents.
type LineItem struct {
	ID             int64     `json:"id" db:"id"`
	WorkOrderID    int64     `json:"work_order_id" db:"work_order_id"`
	Type           ItemType  `json:"type" db:"item_type"`
	Description    string    `json:"description" db:"description"`
	Details        *string   `json:"details,omitempty" db:"details"`
	Quantity       float64   `json:"quantity" db:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents" db:"unit_price_cents"`
	Taxable        bool      `json:"taxable" db:"taxable"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// TotalCents computes quantity x unit price, rounded to whole cents.
func (li LineItem) TotalCents() int64 {
	qty := decimal.NewFromFloat(li.Quantity)
	unit := decimal.NewFromInt(li.UnitPriceCents)
	return qty.Mul(unit).Round(0).IntPart()
}
