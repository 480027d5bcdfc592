package invoices

type CreateInvoiceRequest struct {
	WorkOrderID int64 `json:"workOrderId" validate:"required,gt=0"`
}

type UpdateInvoiceRequest struct {
	Status *Status `json:"status,omitempty"`
}

type AddItemRequest struct {
	Description    string  `json:"description" validate:"required,max=500"`
	Details        *string `json:"details,omitempty"`
	Quantity       float64 `json:"quantity" validate:"omitempty,gt=0"`
	UnitPriceCents int64   `json:"unit_price_cents" validate:"gte=0"`
	Taxable        bool    `json:"taxable"`
}

type ListInvoicesRequest struct {
	Status *Status `json:"status,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset int     `json:"offset" validate:"gte=0"`
}

// WorkOrderInfo is the slice of a work order the invoice generator needs.
type WorkOrderInfo struct {
	ID              int64
	CustomerID      int64
	LocationID      int64
	CustomerName    string
	LocationAddress string
	Status          string
	Items           []WorkOrderItemInfo
}

// WorkOrderItemInfo mirrors a work-order line item at the invoicing
// boundary.
type WorkOrderItemInfo struct {
	Description    string
	Details        *string
	Quantity       float64
	UnitPriceCents int64
	Taxable        bool
}
