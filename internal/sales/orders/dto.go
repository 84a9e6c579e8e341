package orders

import (
	"time"

	"github.com/odyssey-erp/wms/internal/pricing"
)

// Tax and Lines are checked by pricing.Validate, not by struct tags.
type CreateSalesOrderRequest struct {
	CustomerID           int64                 `json:"customer_id"`
	OrderDate            time.Time             `json:"order_date"`
	ExpectedDeliveryDate *time.Time            `json:"expected_delivery_date,omitempty"`
	Tax                  pricing.TaxParameters `json:"tax" validate:"-"`
	Notes                *string               `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Lines                []pricing.LineItem    `json:"lines" validate:"-"`
}

// ConvertQuotationRequest carries the order-only fields; customer, tax
// parameters and lines come from the quotation.
type ConvertQuotationRequest struct {
	OrderDate            time.Time  `json:"order_date"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date,omitempty"`
	Notes                *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type UpdateSalesOrderRequest struct {
	CustomerID           *int64                 `json:"customer_id,omitempty"`
	OrderDate            *time.Time             `json:"order_date,omitempty"`
	ExpectedDeliveryDate *time.Time             `json:"expected_delivery_date,omitempty"`
	Tax                  *pricing.TaxParameters `json:"tax,omitempty" validate:"-"`
	Notes                *string                `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Lines                *[]pricing.LineItem    `json:"lines,omitempty" validate:"-"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type ListSalesOrdersRequest struct {
	CompanyID  int64             `json:"company_id" validate:"required,gt=0"`
	CustomerID *int64            `json:"customer_id,omitempty"`
	Status     *SalesOrderStatus `json:"status,omitempty"`
	DateFrom   *time.Time        `json:"date_from,omitempty"`
	DateTo     *time.Time        `json:"date_to,omitempty"`
	Limit      int               `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int               `json:"offset" validate:"gte=0"`
}
