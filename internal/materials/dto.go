package materials

// CreateMaterialRequest is the payload for creating a catalog item.
type CreateMaterialRequest struct {
	Code         string  `json:"code" validate:"required,max=32"`
	Name         string  `json:"name" validate:"required,max=200"`
	Category     string  `json:"category" validate:"required"`
	Unit         string  `json:"unit" validate:"required"`
	CurrentStock float64 `json:"current_stock" validate:"gte=0"`
	MinimumStock float64 `json:"minimum_stock" validate:"gte=0"`
	MaximumStock float64 `json:"maximum_stock" validate:"gte=0"`
	UnitPrice    float64 `json:"unit_price" validate:"gte=0"`
}

// UpdateMaterialRequest is the payload for editing catalog fields.
// Stock is absent on purpose: quantities move only through the ledger.
type UpdateMaterialRequest struct {
	Name         *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Category     *string  `json:"category,omitempty"`
	Unit         *string  `json:"unit,omitempty"`
	MinimumStock *float64 `json:"minimum_stock,omitempty" validate:"omitempty,gte=0"`
	MaximumStock *float64 `json:"maximum_stock,omitempty" validate:"omitempty,gte=0"`
	UnitPrice    *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

// ListResponse wraps a catalog page.
type ListResponse struct {
	Materials  []Material `json:"materials"`
	Page       int        `json:"page"`
	PerPage    int        `json:"per_page"`
	Total      int        `json:"total"`
	TotalPages int        `json:"total_pages"`
}
