package production

import "time"

type ReleaseSalesOrderRequest struct {
	PlannedStart *time.Time `json:"planned_start,omitempty"`
}

type ProgressRequest struct {
	CompletedQty float64 `json:"completed_qty" validate:"gte=0"`
	RejectedQty  float64 `json:"rejected_qty" validate:"gte=0"`
}

type SendJobWorkRequest struct {
	JobCardID int64   `json:"job_card_id" validate:"required,gt=0"`
	VendorID  int64   `json:"vendor_id" validate:"required,gt=0"`
	QtySent   float64 `json:"qty_sent" validate:"gt=0"`
	Rate      float64 `json:"rate" validate:"gte=0"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type ReceiveJobWorkRequest struct {
	Qty float64 `json:"qty" validate:"gt=0"`
}

type ListWorkOrdersRequest struct {
	CompanyID    int64            `json:"company_id" validate:"required,gt=0"`
	SalesOrderID *int64           `json:"sales_order_id,omitempty"`
	Status       *WorkOrderStatus `json:"status,omitempty"`
	Limit        int              `json:"limit" validate:"gte=0,lte=1000"`
	Offset       int              `json:"offset" validate:"gte=0"`
}

type ListJobWorkRequest struct {
	CompanyID int64          `json:"company_id" validate:"required,gt=0"`
	VendorID  *int64         `json:"vendor_id,omitempty"`
	JobCardID *int64         `json:"job_card_id,omitempty"`
	Status    *JobWorkStatus `json:"status,omitempty"`
	Limit     int            `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int            `json:"offset" validate:"gte=0"`
}
