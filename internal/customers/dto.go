package customers

type PhoneInput struct {
	Kind   ContactKind `json:"kind" validate:"omitempty"`
	Number string      `json:"number" validate:"required,max=50"`
}

type EmailInput struct {
	Kind    ContactKind `json:"kind" validate:"omitempty"`
	Address string      `json:"address" validate:"required,email"`
}

type AddressInput struct {
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2,omitempty" validate:"max=200"`
	City       string `json:"city" validate:"max=100"`
	State      string `json:"state" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"max=20"`
	IsBilling  bool   `json:"is_billing"`
	IsService  bool   `json:"is_service"`
}

type CreateCustomerRequest struct {
	FirstName   string         `json:"first_name" validate:"max=100"`
	LastName    string         `json:"last_name" validate:"max=100"`
	DisplayName string         `json:"display_name" validate:"max=200"`
	Notes       *string        `json:"notes,omitempty"`
	Phones      []PhoneInput   `json:"phones,omitempty" validate:"omitempty,dive"`
	Emails      []EmailInput   `json:"emails,omitempty" validate:"omitempty,dive"`
	Addresses   []AddressInput `json:"addresses,omitempty" validate:"omitempty,dive"`
	Tags        []string       `json:"tags,omitempty"`
}

type UpdateCustomerRequest struct {
	FirstName   *string         `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName    *string         `json:"last_name,omitempty" validate:"omitempty,max=100"`
	DisplayName *string         `json:"display_name,omitempty" validate:"omitempty,max=200"`
	Notes       *string         `json:"notes,omitempty"`
	IsArchived  *bool           `json:"is_archived,omitempty"`
	Phones      *[]PhoneInput   `json:"phones,omitempty" validate:"omitempty,dive"`
	Emails      *[]EmailInput   `json:"emails,omitempty" validate:"omitempty,dive"`
	Addresses   *[]AddressInput `json:"addresses,omitempty" validate:"omitempty,dive"`
	Tags        *[]string       `json:"tags,omitempty"`
}

type ListCustomersRequest struct {
	Search   string `json:"search,omitempty"`
	Archived *bool  `json:"archived,omitempty"`
	Limit    int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int    `json:"offset" validate:"gte=0"`
}
