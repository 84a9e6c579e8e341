package quotations

import (
	"time"

	"github.com/odyssey-erp/wms/internal/pricing"
)

// Tax and Lines are checked by pricing.Validate, not by struct tags.
type CreateQuotationRequest struct {
	CustomerID int64                 `json:"customer_id"`
	QuoteDate  time.Time             `json:"quote_date"`
	ValidUntil time.Time             `json:"valid_until"`
	Tax        pricing.TaxParameters `json:"tax" validate:"-"`
	Notes      *string               `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Lines      []pricing.LineItem    `json:"lines" validate:"-"`
}

// UpdateQuotationRequest replaces only the fields present. The document is
// always re-priced.
type UpdateQuotationRequest struct {
	CustomerID *int64                 `json:"customer_id,omitempty"`
	QuoteDate  *time.Time             `json:"quote_date,omitempty"`
	ValidUntil *time.Time             `json:"valid_until,omitempty"`
	Tax        *pricing.TaxParameters `json:"tax,omitempty" validate:"-"`
	Notes      *string                `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Lines      *[]pricing.LineItem    `json:"lines,omitempty" validate:"-"`
}

type PreviewRequest struct {
	CustomerID int64                 `json:"customer_id"`
	Tax        pricing.TaxParameters `json:"tax" validate:"-"`
	Lines      []pricing.LineItem    `json:"lines" validate:"-"`
}

type PreviewResponse struct {
	pricing.Result
	CustomerName string `json:"customer_name,omitempty"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type ListQuotationsRequest struct {
	CompanyID  int64            `json:"company_id" validate:"required,gt=0"`
	CustomerID *int64           `json:"customer_id,omitempty"`
	Status     *QuotationStatus `json:"status,omitempty"`
	DateFrom   *time.Time       `json:"date_from,omitempty"`
	DateTo     *time.Time       `json:"date_to,omitempty"`
	Limit      int              `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int              `json:"offset" validate:"gte=0"`
}
