package quotations

import (
	"time"

	"github.com/odyssey-erp/wms/internal/pricing"
	"github.com/odyssey-erp/wms/internal/sales/shared"
)

type QuotationStatus string

const (
	QuotationStatusDraft     QuotationStatus = "DRAFT"
	QuotationStatusSubmitted QuotationStatus = "SUBMITTED"
	QuotationStatusApproved  QuotationStatus = "APPROVED"
	QuotationStatusRejected  QuotationStatus = "REJECTED"
	QuotationStatusConverted QuotationStatus = "CONVERTED"
	QuotationStatusExpired   QuotationStatus = "EXPIRED"
)

// DocPrefix starts every quotation number, e.g. QUO-202604-0001.
const DocPrefix = "QUO"

var transitions = map[QuotationStatus][]QuotationStatus{
	QuotationStatusDraft:     {QuotationStatusSubmitted, QuotationStatusExpired},
	QuotationStatusSubmitted: {QuotationStatusApproved, QuotationStatusRejected, QuotationStatusExpired},
	QuotationStatusApproved:  {QuotationStatusConverted},
}

// CanTransitionTo reports whether the workflow allows moving to next.
func (s QuotationStatus) CanTransitionTo(next QuotationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Quotation struct {
	ID              int64                 `json:"id"`
	DocNumber       string                `json:"doc_number"`
	CompanyID       int64                 `json:"company_id"`
	CustomerID      int64                 `json:"customer_id"`
	QuoteDate       time.Time             `json:"quote_date"`
	ValidUntil      time.Time             `json:"valid_until"`
	Status          QuotationStatus       `json:"status"`
	Tax             pricing.TaxParameters `json:"tax"`
	Totals          shared.Totals         `json:"totals"`
	Notes           *string               `json:"notes,omitempty"`
	CreatedBy       int64                 `json:"created_by"`
	SubmittedAt     *time.Time            `json:"submitted_at,omitempty"`
	ApprovedBy      *int64                `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time            `json:"approved_at,omitempty"`
	RejectedBy      *int64                `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time            `json:"rejected_at,omitempty"`
	RejectionReason *string               `json:"rejection_reason,omitempty"`
	ConvertedAt     *time.Time            `json:"converted_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	Lines           []shared.Line         `json:"lines"`
}

// IsExpired reports whether the validity window closed before now's date.
// A quotation stays valid for the whole valid_until day.
func (q *Quotation) IsExpired(now time.Time) bool {
	return shared.DateOnly(now).After(shared.DateOnly(q.ValidUntil))
}

type QuotationWithDetails struct {
	Quotation
	CustomerName string `json:"customer_name"`
}

// ExpiredRef identifies a quotation moved to EXPIRED by the sweep.
type ExpiredRef struct {
	ID         int64
	CompanyID  int64
	DocNumber  string
	FromStatus QuotationStatus
}
