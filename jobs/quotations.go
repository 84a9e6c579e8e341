package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/wms/internal/platform/httpx"
	jobmetrics "github.com/odyssey-erp/wms/internal/jobs"
)

// QuotationExpirer moves quotations past their validity to EXPIRED.
type QuotationExpirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// QuotationRenderer renders and caches a quotation PDF.
type QuotationRenderer interface {
	Prerender(ctx context.Context, companyID, id int64) error
}

// QuotationExpiryJob runs the periodic expiry sweep.
type QuotationExpiryJob struct {
	Quotations QuotationExpirer
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// NewQuotationExpiryJob wires dependencies for the expiry handler.
func NewQuotationExpiryJob(quotations QuotationExpirer, logger *slog.Logger, metrics *jobmetrics.Metrics) *QuotationExpiryJob {
	return &QuotationExpiryJob{Quotations: quotations, Logger: logger, Metrics: metrics}
}

// Handle processes TaskQuotationsExpire tasks.
func (j *QuotationExpiryJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Quotations == nil {
		return errors.New("quotation expiry: handler not configured")
	}
	metrics := metricsOrDefault(j.Metrics)
	tracker := metrics.Track(TaskQuotationsExpire)
	defer func() { err = tracker.End(err) }()

	start := time.Now()
	expired, err := j.Quotations.ExpireDue(ctx)
	if err != nil {
		jobLogger(j.Logger, TaskQuotationsExpire).Error("expire quotations", slog.Any("error", err))
		return err
	}
	metrics.AddAffected(TaskQuotationsExpire, int64(expired))
	jobLogger(j.Logger, TaskQuotationsExpire).Info("expired quotations",
		slog.Int("count", expired),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// QuotationPDFJob renders quotation PDFs ahead of download.
type QuotationPDFJob struct {
	Renderer QuotationRenderer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewQuotationPDFJob wires dependencies for the render handler.
func NewQuotationPDFJob(renderer QuotationRenderer, logger *slog.Logger, metrics *jobmetrics.Metrics) *QuotationPDFJob {
	return &QuotationPDFJob{Renderer: renderer, Logger: logger, Metrics: metrics}
}

// Handle processes TaskQuotationPDF tasks. Missing quotations are not retried.
func (j *QuotationPDFJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Renderer == nil {
		return errors.New("quotation pdf: handler not configured")
	}
	var payload QuotationPDFPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("quotation pdf: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	tracker := metricsOrDefault(j.Metrics).Track(TaskQuotationPDF)
	defer func() { err = tracker.End(err) }()

	logger := jobLogger(j.Logger, TaskQuotationPDF).With(
		slog.Int64("company_id", payload.CompanyID),
		slog.Int64("quotation_id", payload.QuotationID),
	)
	if err := j.Renderer.Prerender(ctx, payload.CompanyID, payload.QuotationID); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			logger.Warn("quotation vanished before render")
			return fmt.Errorf("quotation pdf: %v: %w", err, asynq.SkipRetry)
		}
		logger.Error("render quotation pdf", slog.Any("error", err))
		return err
	}
	logger.Info("rendered quotation pdf")
	return nil
}
