// Package customers provides customer record logic: identity, contact
// channels, postal addresses, tags and internal notes.
package customers

import "time"

// ContactKind categorizes a phone or email entry.
type ContactKind string

const (
	ContactMobile ContactKind = "MOBILE"
	ContactHome   ContactKind = "HOME"
	ContactWork   ContactKind = "WORK"
)

// IsValid checks if the contact kind is a known value.
func (k ContactKind) IsValid() bool {
	switch k {
	case ContactMobile, ContactHome, ContactWork:
		return true
	default:
		return false
	}
}

// Customer is a business-owned record. Customers are archived, never hard
// deleted.
type Customer struct {
	ID          int64     `json:"id" db:"id"`
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name" db:"last_name"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Notes       *string   `json:"notes,omitempty" db:"notes"`
	IsArchived  bool      `json:"is_archived" db:"is_archived"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Phones    []Phone   `json:"phones,omitempty" db:"-"`
	Emails    []Email   `json:"emails,omitempty" db:"-"`
	Addresses []Address `json:"addresses,omitempty" db:"-"`
	Tags      []string  `json:"tags,omitempty" db:"-"`
}

// Phone is a typed phone entry.
type Phone struct {
	ID         int64       `json:"id" db:"id"`
	CustomerID int64       `json:"-" db:"customer_id"`
	Kind       ContactKind `json:"kind" db:"kind"`
	Number     string      `json:"number" db:"number"`
}

// Email is a typed email entry.
type Email struct {
	ID         int64       `json:"id" db:"id"`
	CustomerID int64       `json:"-" db:"customer_id"`
	Kind       ContactKind `json:"kind" db:"kind"`
	Address    string      `json:"address" db:"address"`
}

// Address is a postal address. The first address is conventionally the
// primary one; billing and service flags are independent.
type Address struct {
	ID         int64  `json:"id" db:"id"`
	CustomerID int64  `json:"-" db:"customer_id"`
	Line1      string `json:"line1" db:"line1"`
	Line2      string `json:"line2,omitempty" db:"line2"`
	City       string `json:"city" db:"city"`
	State      string `json:"state" db:"state"`
	PostalCode string `json:"postal_code" db:"postal_code"`
	IsBilling  bool   `json:"is_billing" db:"is_billing"`
	IsService  bool   `json:"is_service" db:"is_service"`
}
