package items

import (
	"time"
)

// Item represents a catalog item quoted and produced by the shop.
type Item struct {
	ID          int64     `json:"id"`
	CompanyID   int64     `json:"company_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	HSNCode     string    `json:"hsn_code"`
	UOM         string    `json:"uom"`
	DefaultRate float64   `json:"default_rate"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
