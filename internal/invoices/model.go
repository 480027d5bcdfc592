// Package invoices provides invoice generation from completed work orders,
// the invoice lifecycle, PDF rendering, and the token-gated portal view.
package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the invoice lifecycle. OVERDUE is applied by the
// background scan when a SENT invoice passes its due date; VOID is the
// manual dead end.
type Status string

const (
	StatusDraft   Status = "DRAFT"
	StatusSent    Status = "SENT"
	StatusPaid    Status = "PAID"
	StatusOverdue Status = "OVERDUE"
	StatusVoid    Status = "VOID"
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusVoid:
		return true
	default:
		return false
	}
}

// CanTransitionTo gates manual status moves.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusDraft:
		return next == StatusSent || next == StatusVoid
	case StatusSent:
		return next == StatusPaid || next == StatusOverdue || next == StatusVoid
	case StatusOverdue:
		return next == StatusPaid || next == StatusVoid
	default:
		return false
	}
}

// CanEditItems reports whether line items may still be mutated.
func (s Status) CanEditItems() bool {
	return s == StatusDraft
}

// Invoice carries a denormalized snapshot of the customer and location at
// generation time. All money is integer cents; line items are copied from
// the work order once and keep no live link back.
type Invoice struct {
	ID              int64      `json:"id" db:"id"`
	WorkOrderID     int64      `json:"work_order_id" db:"work_order_id"`
	CustomerID      int64      `json:"customer_id" db:"customer_id"`
	LocationID      int64      `json:"location_id" db:"location_id"`
	CustomerName    string     `json:"customer_name" db:"customer_name"`
	LocationAddress string     `json:"location_address" db:"location_address"`
	Status          Status     `json:"status" db:"status"`
	SubtotalCents   int64      `json:"subtotal_cents" db:"subtotal_cents"`
	TaxCents        int64      `json:"tax_cents" db:"tax_cents"`
	TotalCents      int64      `json:"total_cents" db:"total_cents"`
	PublicToken     *string    `json:"public_token,omitempty" db:"public_token"`
	SentAt          *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	DueAt           *time.Time `json:"due_at,omitempty" db:"due_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	Items           []LineItem `json:"items,omitempty" db:"-"`
}

// LineItem is an invoice charge. Stored independently from work-order items.
type LineItem struct {
	ID             int64     `json:"id" db:"id"`
	InvoiceID      int64     `json:"invoice_id" db:"invoice_id"`
	Description    string    `json:"description" db:"description"`
	Details        *string   `json:"details,omitempty" db:"details"`
	Quantity       float64   `json:"quantity" db:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents" db:"unit_price_cents"`
	Taxable        bool      `json:"taxable" db:"taxable"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// TotalCents computes quantity x unit price, rounded to whole cents.
func (li LineItem) TotalCents() int64 {
	return decimal.NewFromFloat(li.Quantity).
		Mul(decimal.NewFromInt(li.UnitPriceCents)).
		Round(0).IntPart()
}

// Totals is the authoritative recomputation over a full item set:
// subtotal = sum of line totals, tax = round(subtotal * rate), total =
// subtotal + tax. rateBPS is in basis points (500 = 5%).
func Totals(items []LineItem, rateBPS int) (subtotal, tax, total int64) {
	for _, li := range items {
		subtotal += li.TotalCents()
	}
	tax = decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(int64(rateBPS))).
		Div(decimal.NewFromInt(10000)).
		Round(0).IntPart()
	return subtotal, tax, subtotal + tax
}
