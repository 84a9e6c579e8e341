// Package production turns confirmed sales orders into work orders, tracks
// progress per process on job cards and follows process steps sent out to
// vendors as job work.
package production

import (
	"time"

	"github.com/google/uuid"
)

type WorkOrderStatus string

const (
	WorkOrderStatusPlanned    WorkOrderStatus = "PLANNED"
	WorkOrderStatusReleased   WorkOrderStatus = "RELEASED"
	WorkOrderStatusInProgress WorkOrderStatus = "IN_PROGRESS"
	WorkOrderStatusCompleted  WorkOrderStatus = "COMPLETED"
	WorkOrderStatusCancelled  WorkOrderStatus = "CANCELLED"
)

// DocPrefix starts every work order number, e.g. WO-202604-0001.
const DocPrefix = "WO"

var workOrderTransitions = map[WorkOrderStatus][]WorkOrderStatus{
	WorkOrderStatusPlanned:    {WorkOrderStatusReleased, WorkOrderStatusCancelled},
	WorkOrderStatusReleased:   {WorkOrderStatusInProgress, WorkOrderStatusCancelled},
	WorkOrderStatusInProgress: {WorkOrderStatusCompleted, WorkOrderStatusCancelled},
}

func (s WorkOrderStatus) CanTransitionTo(next WorkOrderStatus) bool {
	for _, allowed := range workOrderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AcceptsProgress reports whether shop-floor quantities may be booked.
func (s WorkOrderStatus) AcceptsProgress() bool {
	return s == WorkOrderStatusReleased || s == WorkOrderStatusInProgress
}

type JobCardStatus string

const (
	JobCardStatusOpen       JobCardStatus = "OPEN"
	JobCardStatusInProgress JobCardStatus = "IN_PROGRESS"
	JobCardStatusDone       JobCardStatus = "DONE"
)

type JobWorkStatus string

const (
	JobWorkStatusSent              JobWorkStatus = "SENT"
	JobWorkStatusPartiallyReceived JobWorkStatus = "PARTIALLY_RECEIVED"
	JobWorkStatusReceived          JobWorkStatus = "RECEIVED"
	JobWorkStatusCancelled         JobWorkStatus = "CANCELLED"
)

type WorkOrder struct {
	ID               int64           `json:"id"`
	DocNumber        string          `json:"doc_number"`
	CompanyID        int64           `json:"company_id"`
	SalesOrderID     int64           `json:"sales_order_id"`
	SalesOrderLineID int64           `json:"sales_order_line_id"`
	ItemID           *int64          `json:"item_id,omitempty"`
	ItemName         string          `json:"item_name"`
	Quantity         float64         `json:"quantity"`
	Status           WorkOrderStatus `json:"status"`
	PlannedStart     *time.Time      `json:"planned_start,omitempty"`
	StartedAt        *time.Time      `json:"started_at,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	CreatedBy        int64           `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	JobCards         []JobCard       `json:"job_cards"`
}

// AllCardsDone is true once every job card is DONE. A work order without
// processes has nothing left to track.
func (w *WorkOrder) AllCardsDone() bool {
	for _, c := range w.JobCards {
		if c.Status != JobCardStatusDone {
			return false
		}
	}
	return true
}

type JobCard struct {
	ID           int64         `json:"id"`
	WorkOrderID  int64         `json:"work_order_id"`
	CompanyID    int64         `json:"company_id"`
	ProcessID    *int64        `json:"process_id,omitempty"`
	ProcessName  string        `json:"process_name"`
	Sequence     int           `json:"sequence"`
	PlannedQty   float64       `json:"planned_qty"`
	CompletedQty float64       `json:"completed_qty"`
	RejectedQty  float64       `json:"rejected_qty"`
	Status       JobCardStatus `json:"status"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Remaining is the planned quantity not yet completed or rejected.
func (c *JobCard) Remaining() float64 {
	return c.PlannedQty - c.CompletedQty - c.RejectedQty
}

// Book adds completed and rejected quantities. It refuses to exceed the
// planned quantity and marks the card DONE when it is reached.
func (c *JobCard) Book(completed, rejected float64) error {
	if c.Status == JobCardStatusDone {
		return ErrCardClosed
	}
	if c.CompletedQty+completed+c.RejectedQty+rejected > c.PlannedQty+qtyEpsilon {
		return ErrOverBooked
	}
	c.CompletedQty += completed
	c.RejectedQty += rejected
	if c.Remaining() <= qtyEpsilon {
		c.Status = JobCardStatusDone
	} else {
		c.Status = JobCardStatusInProgress
	}
	return nil
}

const qtyEpsilon = 1e-9

// JobWork is a process step performed by an outside vendor against a
// delivery challan.
type JobWork struct {
	ID          int64         `json:"id"`
	CompanyID   int64         `json:"company_id"`
	ChallanNo   uuid.UUID     `json:"challan_no"`
	JobCardID   int64         `json:"job_card_id"`
	VendorID    int64         `json:"vendor_id"`
	QtySent     float64       `json:"qty_sent"`
	QtyReceived float64       `json:"qty_received"`
	Rate        float64       `json:"rate"`
	Amount      float64       `json:"amount"`
	Status      JobWorkStatus `json:"status"`
	Notes       *string       `json:"notes,omitempty"`
	SentAt      time.Time     `json:"sent_at"`
	ReceivedAt  *time.Time    `json:"received_at,omitempty"`
	CreatedBy   int64         `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Outstanding is the quantity still at the vendor.
func (j *JobWork) Outstanding() float64 {
	if j.Status == JobWorkStatusCancelled {
		return 0
	}
	return j.QtySent - j.QtyReceived
}

type JobWorkWithDetails struct {
	JobWork
	VendorName  string `json:"vendor_name"`
	ProcessName string `json:"process_name"`
	WorkOrderNo string `json:"work_order_no"`
}

// Summary is the production dashboard.
type Summary struct {
	WorkOrders     map[WorkOrderStatus]int `json:"work_orders"`
	JobCards       map[JobCardStatus]int   `json:"job_cards"`
	JobWork        map[JobWorkStatus]int   `json:"job_work"`
	JobWorkAmount  float64                 `json:"job_work_amount"`
	OutstandingQty float64                 `json:"job_work_outstanding_qty"`
}
