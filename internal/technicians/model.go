// Package technicians manages the roster of field technicians that
// dispatch events and work orders are assigned to.
package technicians

import "time"

type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusBusy      Status = "BUSY"
)

func (s Status) IsValid() bool {
	return s == StatusAvailable || s == StatusBusy
}

type Technician struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     *string   `json:"email,omitempty" db:"email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Color     string    `json:"color" db:"color"`
	Status    Status    `json:"status" db:"status"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
