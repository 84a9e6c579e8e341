package processes

import "time"

// Process is a billable manufacturing operation, e.g. turning, plating or
// heat treatment. Its default unit cost seeds process charges on lines.
type Process struct {
	ID              int64     `json:"id"`
	CompanyID       int64     `json:"company_id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	DefaultUnitCost float64   `json:"default_unit_cost"`
	Description     string    `json:"description"`
	IsOutsourced    bool      `json:"is_outsourced"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProcessInput is the create/update payload.
type ProcessInput struct {
	Code            string  `json:"code" validate:"required,max=32"`
	Name            string  `json:"name" validate:"required,max=200"`
	DefaultUnitCost float64 `json:"default_unit_cost" validate:"gte=0"`
	Description     string  `json:"description" validate:"max=1000"`
	IsOutsourced    bool    `json:"is_outsourced"`
	IsActive        *bool   `json:"is_active"`
}
