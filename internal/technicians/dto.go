package technicians

type CreateTechnicianRequest struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Color string  `json:"color" validate:"omitempty,hexcolor"`
}

type UpdateTechnicianRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Color    *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Status   *Status `json:"status,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type ListTechniciansRequest struct {
	Active *bool `json:"active,omitempty"`
	Limit  int   `json:"limit" validate:"gte=0,lte=1000"`
	Offset int   `json:"offset" validate:"gte=0"`
}
