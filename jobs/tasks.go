package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskQuotationsExpire moves lapsed quotations to EXPIRED.
	TaskQuotationsExpire = "quotations:expire"
	// TaskQuotationPDF pre-renders a quotation PDF into the cache.
	TaskQuotationPDF = "quotations:render_pdf"
	// TaskIdempotencyCleanup purges stale idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// QuotationPDFPayload identifies the quotation to render.
type QuotationPDFPayload struct {
	CompanyID   int64 `json:"company_id"`
	QuotationID int64 `json:"quotation_id"`
}

// IdempotencyCleanupPayload carries the retention window in seconds.
type IdempotencyCleanupPayload struct {
	RetentionSeconds int64 `json:"retention_seconds"`
}

// Retention returns the payload window as a duration.
func (p IdempotencyCleanupPayload) Retention() time.Duration {
	return time.Duration(p.RetentionSeconds) * time.Second
}

// NewQuotationsExpireTask builds the expiry sweep task.
func NewQuotationsExpireTask() *asynq.Task {
	return asynq.NewTask(TaskQuotationsExpire, nil, asynq.Queue(QueueDefault))
}

// NewQuotationPDFTask builds a render task for one quotation.
func NewQuotationPDFTask(companyID, quotationID int64) (*asynq.Task, error) {
	if companyID <= 0 || quotationID <= 0 {
		return nil, fmt.Errorf("jobs: invalid quotation reference %d/%d", companyID, quotationID)
	}
	body, err := json.Marshal(QuotationPDFPayload{CompanyID: companyID, QuotationID: quotationID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuotationPDF, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// NewIdempotencyCleanupTask builds the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("jobs: retention must be positive")
	}
	body, err := json.Marshal(IdempotencyCleanupPayload{RetentionSeconds: int64(retention / time.Second)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
