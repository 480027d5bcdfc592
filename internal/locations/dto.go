package locations

type CreateLocationRequest struct {
	CustomerID  int64   `json:"customer_id" validate:"required,gt=0"`
	Label       string  `json:"label" validate:"max=100"`
	AddressLine string  `json:"address_line" validate:"required,max=200"`
	City        string  `json:"city" validate:"max=100"`
	State       string  `json:"state" validate:"max=100"`
	PostalCode  string  `json:"postal_code" validate:"max=20"`
	AccessNotes *string `json:"access_notes,omitempty"`
}

type UpdateLocationRequest struct {
	Label       *string `json:"label,omitempty" validate:"omitempty,max=100"`
	AddressLine *string `json:"address_line,omitempty" validate:"omitempty,max=200"`
	City        *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State       *string `json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode  *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	AccessNotes *string `json:"access_notes,omitempty"`
}

type ListLocationsRequest struct {
	CustomerID *int64 `json:"customer_id,omitempty"`
	Limit      int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int    `json:"offset" validate:"gte=0"`
}
