package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/wms/internal/sales/customers"
	"github.com/odyssey-erp/wms/internal/sales/quotations"
)

// QuotationSource loads the quotation being printed.
type QuotationSource interface {
	Get(ctx context.Context, companyID, id int64) (*quotations.Quotation, error)
}

// CustomerSource loads the billed customer.
type CustomerSource interface {
	Get(ctx context.Context, companyID, id int64) (*customers.Customer, error)
}

// Document is a rendered file ready to be served.
type Document struct {
	Filename string
	Content  []byte
}

// Service renders quotation PDFs and keeps the latest rendition of each
// quotation in Redis. A nil Redis client disables caching.
type Service struct {
	quotes    QuotationSource
	customers CustomerSource
	seller    Seller
	redis     *redis.Client
	ttl       time.Duration
	logger    *slog.Logger
}

// NewService wires the renderer.
func NewService(quotes QuotationSource, custs CustomerSource, seller Seller, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{quotes: quotes, customers: custs, seller: seller, redis: client, ttl: ttl, logger: logger}
}

// QuotationPDF returns the PDF for a quotation, rendering it on a cache miss.
// Cache keys embed the updated_at of both the quotation and its customer so an
// edit to either yields a fresh file.
func (s *Service) QuotationPDF(ctx context.Context, companyID, id int64) (Document, error) {
	q, err := s.quotes.Get(ctx, companyID, id)
	if err != nil {
		return Document{}, err
	}
	customer, err := s.customers.Get(ctx, q.CompanyID, q.CustomerID)
	if err != nil {
		return Document{}, fmt.Errorf("load customer %d: %w", q.CustomerID, err)
	}
	doc := Document{Filename: q.DocNumber + ".pdf"}
	key := cacheKey(q, customer)

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			doc.Content = cached
			return doc, nil
		case !errors.Is(err, redis.Nil):
			s.logger.Warn("pdf cache read failed", slog.String("key", key), slog.Any("error", err))
		}
	}

	content, err := RenderQuotation(q, customer, s.seller)
	if err != nil {
		return Document{}, err
	}
	doc.Content = content

	if s.redis != nil {
		if err := s.redis.Set(ctx, key, content, s.ttl).Err(); err != nil {
			s.logger.Warn("pdf cache write failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	return doc, nil
}

// Prerender warms the cache; used by the background render task.
func (s *Service) Prerender(ctx context.Context, companyID, id int64) error {
	_, err := s.QuotationPDF(ctx, companyID, id)
	return err
}

func cacheKey(q *quotations.Quotation, c *customers.Customer) string {
	return "wms:pdf:quotation:" + strconv.FormatInt(q.CompanyID, 10) + ":" +
		strconv.FormatInt(q.ID, 10) + ":" + strconv.FormatInt(q.UpdatedAt.UnixNano(), 10) + ":" +
		strconv.FormatInt(c.UpdatedAt.UnixNano(), 10)
}
