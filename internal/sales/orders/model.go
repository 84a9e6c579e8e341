package orders

import (
	"time"

	"github.com/odyssey-erp/wms/internal/pricing"
	"github.com/odyssey-erp/wms/internal/sales/shared"
)

type SalesOrderStatus string

const (
	SalesOrderStatusDraft        SalesOrderStatus = "DRAFT"
	SalesOrderStatusConfirmed    SalesOrderStatus = "CONFIRMED"
	SalesOrderStatusInProduction SalesOrderStatus = "IN_PRODUCTION"
	SalesOrderStatusCompleted    SalesOrderStatus = "COMPLETED"
	SalesOrderStatusCancelled    SalesOrderStatus = "CANCELLED"
)

// DocPrefix starts every sales order number, e.g. SO-202604-0001.
const DocPrefix = "SO"

var transitions = map[SalesOrderStatus][]SalesOrderStatus{
	SalesOrderStatusDraft:        {SalesOrderStatusConfirmed, SalesOrderStatusCancelled},
	SalesOrderStatusConfirmed:    {SalesOrderStatusInProduction, SalesOrderStatusCancelled},
	SalesOrderStatusInProduction: {SalesOrderStatusCompleted},
}

func (s SalesOrderStatus) CanTransitionTo(next SalesOrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type SalesOrder struct {
	ID                   int64                 `json:"id"`
	DocNumber            string                `json:"doc_number"`
	CompanyID            int64                 `json:"company_id"`
	CustomerID           int64                 `json:"customer_id"`
	QuotationID          *int64                `json:"quotation_id,omitempty"`
	OrderDate            time.Time             `json:"order_date"`
	ExpectedDeliveryDate *time.Time            `json:"expected_delivery_date,omitempty"`
	Status               SalesOrderStatus      `json:"status"`
	Tax                  pricing.TaxParameters `json:"tax"`
	Totals               shared.Totals         `json:"totals"`
	Notes                *string               `json:"notes,omitempty"`
	CreatedBy            int64                 `json:"created_by"`
	ConfirmedBy          *int64                `json:"confirmed_by,omitempty"`
	ConfirmedAt          *time.Time            `json:"confirmed_at,omitempty"`
	CompletedAt          *time.Time            `json:"completed_at,omitempty"`
	CancelledBy          *int64                `json:"cancelled_by,omitempty"`
	CancelledAt          *time.Time            `json:"cancelled_at,omitempty"`
	CancellationReason   *string               `json:"cancellation_reason,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
	Lines                []shared.Line         `json:"lines"`
}

type SalesOrderWithDetails struct {
	SalesOrder
	CustomerName string `json:"customer_name"`
}
