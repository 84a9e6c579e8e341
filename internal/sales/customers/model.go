package customers

import (
	"time"

	"github.com/odyssey-erp/wms/internal/pricing"
)

type Customer struct {
	ID               int64     `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	CompanyID        int64     `json:"company_id"`
	ContactPerson    *string   `json:"contact_person,omitempty"`
	Email            *string   `json:"email,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	GSTIN            *string   `json:"gstin,omitempty"`
	CreditLimit      float64   `json:"credit_limit"`
	PaymentTermsDays int       `json:"payment_terms_days"`
	AddressLine1     *string   `json:"address_line1,omitempty"`
	AddressLine2     *string   `json:"address_line2,omitempty"`
	City             *string   `json:"city,omitempty"`
	State            *string   `json:"state,omitempty"`
	PostalCode       *string   `json:"postal_code,omitempty"`
	Country          string    `json:"country"`
	IsActive         bool      `json:"is_active"`
	Notes            *string   `json:"notes,omitempty"`
	CreatedBy        int64     `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TaxProfile returns the jurisdiction data the pricing engine branches on.
func (c *Customer) TaxProfile() *pricing.CustomerTaxProfile {
	if c == nil {
		return nil
	}
	p := &pricing.CustomerTaxProfile{Country: c.Country}
	if c.State != nil {
		p.State = *c.State
	}
	return p
}
