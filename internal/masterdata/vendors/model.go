package vendors

import "time"

// Vendor is an outside shop that performs job work on our material.
type Vendor struct {
	ID            int64     `json:"id"`
	CompanyID     int64     `json:"company_id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	GSTIN         string    `json:"gstin"`
	Address       string    `json:"address"`
	State         string    `json:"state"`
	Country       string    `json:"country"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// VendorInput is the create/update payload.
type VendorInput struct {
	Code          string `json:"code" validate:"required,max=32"`
	Name          string `json:"name" validate:"required,max=200"`
	ContactPerson string `json:"contact_person" validate:"max=120"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone" validate:"max=32"`
	GSTIN         string `json:"gstin" validate:"omitempty,len=15,alphanum"`
	Address       string `json:"address" validate:"max=500"`
	State         string `json:"state" validate:"max=100"`
	Country       string `json:"country" validate:"required,max=100"`
	IsActive      *bool  `json:"is_active"`
}
