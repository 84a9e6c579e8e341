package quotations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/wms/internal/platform/db"
	"github.com/odyssey-erp/wms/internal/platform/httpx"
	"github.com/odyssey-erp/wms/internal/pricing"
	"github.com/odyssey-erp/wms/internal/sales/shared"
	wms "github.com/odyssey-erp/wms/internal/shared"
)

var (
	ErrNotFound      = fmt.Errorf("quotation %w", httpx.ErrNotFound)
	ErrInvalidStatus = fmt.Errorf("%w: invalid status transition", httpx.ErrConflict)
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, companyID, id int64) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]QuotationWithDetails, int, error)
	Create(ctx context.Context, quotation Quotation) (int64, error)
	UpdateHeader(ctx context.Context, quotation Quotation) error
	ReplaceLines(ctx context.Context, quotationID int64, lines []shared.Line) error
	UpdateStatus(ctx context.Context, companyID, id int64, from, to QuotationStatus, userID int64, reason *string) error
	ExpireDue(ctx context.Context, asOf time.Time) ([]ExpiredRef, error)
	GenerateNumber(ctx context.Context, companyID int64, date time.Time) (string, error)
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const quotationColumns = `q.id, q.doc_number, q.company_id, q.customer_id, q.quote_date, q.valid_until, q.status,
	q.gst_percent, q.tax_mode, q.tds_percent, q.tcs_percent, q.remittance_charges, q.currency, q.exchange_rate,
	q.base_amount, q.gst_amount, q.tds_amount, q.tcs_amount, q.total_amount, q.receivable_amount,
	q.notes, q.created_by, q.submitted_at, q.approved_by, q.approved_at, q.rejected_by, q.rejected_at,
	q.rejection_reason, q.converted_at, q.created_at, q.updated_at`

func scanQuotation(row pgx.Row, extra ...any) (*Quotation, error) {
	var q Quotation
	var gst, tds, tcs, remit, rate decimal.Decimal
	var base, gstAmt, tdsAmt, tcsAmt, total, receivable decimal.Decimal
	dest := []any{
		&q.ID, &q.DocNumber, &q.CompanyID, &q.CustomerID, &q.QuoteDate, &q.ValidUntil, &q.Status,
		&gst, &q.Tax.TaxMode, &tds, &tcs, &remit, &q.Tax.Currency, &rate,
		&base, &gstAmt, &tdsAmt, &tcsAmt, &total, &receivable,
		&q.Notes, &q.CreatedBy, &q.SubmittedAt, &q.ApprovedBy, &q.ApprovedAt, &q.RejectedBy, &q.RejectedAt,
		&q.RejectionReason, &q.ConvertedAt, &q.CreatedAt, &q.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	q.Tax.GSTPercent, q.Tax.TDSPercent, q.Tax.TCSPercent = db.Float(gst), db.Float(tds), db.Float(tcs)
	q.Tax.RemittanceCharges, q.Tax.ExchangeRate = db.Float(remit), db.Float(rate)
	q.Totals = shared.Totals{
		BaseAmount:        db.Float(base),
		GSTAmount:         db.Float(gstAmt),
		TDSAmount:         db.Float(tdsAmt),
		TCSAmount:         db.Float(tcsAmt),
		RemittanceCharges: db.Float(remit),
		TotalAmount:       db.Float(total),
		ReceivableAmount:  db.Float(receivable),
	}
	return &q, nil
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Quotation, error) {
	q, err := scanQuotation(r.db.QueryRow(ctx,
		`SELECT `+quotationColumns+` FROM quotations q WHERE q.company_id = $1 AND q.id = $2`, companyID, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	q.Lines, err = shared.QuotationLines.Load(ctx, r.db, q.ID)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repository) List(ctx context.Context, req ListQuotationsRequest) ([]QuotationWithDetails, int, error) {
	conditions := []string{"q.company_id = $1"}
	args := []any{req.CompanyID}

	if req.CustomerID != nil {
		args = append(args, *req.CustomerID)
		conditions = append(conditions, fmt.Sprintf("q.customer_id = $%d", len(args)))
	}
	if req.Status != nil {
		args = append(args, *req.Status)
		conditions = append(conditions, fmt.Sprintf("q.status = $%d", len(args)))
	}
	if req.DateFrom != nil {
		args = append(args, *req.DateFrom)
		conditions = append(conditions, fmt.Sprintf("q.quote_date >= $%d", len(args)))
	}
	if req.DateTo != nil {
		args = append(args, *req.DateTo)
		conditions = append(conditions, fmt.Sprintf("q.quote_date <= $%d", len(args)))
	}
	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM quotations q "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s, c.name
		FROM quotations q
		JOIN customers c ON q.customer_id = c.id
		%s
		ORDER BY q.quote_date DESC, q.id DESC
		LIMIT $%d OFFSET $%d`, quotationColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []QuotationWithDetails
	for rows.Next() {
		var name string
		q, err := scanQuotation(rows, &name)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, QuotationWithDetails{Quotation: *q, CustomerName: name})
	}
	return out, total, rows.Err()
}

func taxArgs(t pricing.TaxParameters, totals shared.Totals) []any {
	return []any{
		db.Decimal(t.GSTPercent), t.TaxMode, db.Decimal(t.TDSPercent), db.Decimal(t.TCSPercent),
		db.Decimal(t.RemittanceCharges), t.Currency, db.Decimal(t.ExchangeRate),
		db.Decimal(totals.BaseAmount), db.Decimal(totals.GSTAmount), db.Decimal(totals.TDSAmount),
		db.Decimal(totals.TCSAmount), db.Decimal(totals.TotalAmount), db.Decimal(totals.ReceivableAmount),
	}
}

func (r *repository) Create(ctx context.Context, q Quotation) (int64, error) {
	args := []any{q.DocNumber, q.CompanyID, q.CustomerID, q.QuoteDate, q.ValidUntil, q.Status, q.Notes, q.CreatedBy}
	args = append(args, taxArgs(q.Tax, q.Totals)...)

	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO quotations (
			doc_number, company_id, customer_id, quote_date, valid_until, status, notes, created_by,
			gst_percent, tax_mode, tds_percent, tcs_percent, remittance_charges, currency, exchange_rate,
			base_amount, gst_amount, tds_amount, tcs_amount, total_amount, receivable_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id`, args...).Scan(&id)
	if err != nil {
		return 0, err
	}
	if err := shared.QuotationLines.Insert(ctx, r.db, id, q.Lines); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateHeader(ctx context.Context, q Quotation) error {
	args := []any{q.CompanyID, q.ID, q.CustomerID, q.QuoteDate, q.ValidUntil, q.Notes}
	args = append(args, taxArgs(q.Tax, q.Totals)...)

	tag, err := r.db.Exec(ctx, `UPDATE quotations SET
			customer_id = $3, quote_date = $4, valid_until = $5, notes = $6,
			gst_percent = $7, tax_mode = $8, tds_percent = $9, tcs_percent = $10,
			remittance_charges = $11, currency = $12, exchange_rate = $13,
			base_amount = $14, gst_amount = $15, tds_amount = $16, tcs_amount = $17,
			total_amount = $18, receivable_amount = $19, updated_at = NOW()
		WHERE company_id = $1 AND id = $2 AND status = 'DRAFT'`, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: only DRAFT quotations can be updated", ErrInvalidStatus)
	}
	return nil
}

func (r *repository) ReplaceLines(ctx context.Context, quotationID int64, lines []shared.Line) error {
	if err := shared.QuotationLines.Delete(ctx, r.db, quotationID); err != nil {
		return err
	}
	return shared.QuotationLines.Insert(ctx, r.db, quotationID, lines)
}

// UpdateStatus moves a quotation from one status to another. The update is
// conditional on the current status so concurrent transitions cannot both win.
func (r *repository) UpdateStatus(ctx context.Context, companyID, id int64, from, to QuotationStatus, userID int64, reason *string) error {
	query := "UPDATE quotations SET status = $1, updated_at = NOW()"
	args := []any{to}
	switch to {
	case QuotationStatusSubmitted:
		query += ", submitted_at = NOW()"
	case QuotationStatusApproved:
		args = append(args, userID)
		query += fmt.Sprintf(", approved_by = $%d, approved_at = NOW()", len(args))
	case QuotationStatusRejected:
		args = append(args, userID, reason)
		query += fmt.Sprintf(", rejected_by = $%d, rejected_at = NOW(), rejection_reason = $%d", len(args)-1, len(args))
	case QuotationStatusConverted:
		query += ", converted_at = NOW()"
	}
	args = append(args, companyID, id, from)
	query += fmt.Sprintf(" WHERE company_id = $%d AND id = $%d AND status = $%d", len(args)-2, len(args)-1, len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quotation is no longer %s", ErrInvalidStatus, from)
	}
	return nil
}

// ExpireDue moves every DRAFT or SUBMITTED quotation whose valid_until lies
// before asOf's date to EXPIRED.
func (r *repository) ExpireDue(ctx context.Context, asOf time.Time) ([]ExpiredRef, error) {
	rows, err := r.db.Query(ctx, `
		WITH due AS (
			SELECT id, status FROM quotations
			WHERE status IN ('DRAFT', 'SUBMITTED') AND valid_until < $1::date
			FOR UPDATE SKIP LOCKED
		)
		UPDATE quotations q SET status = 'EXPIRED', updated_at = NOW()
		FROM due
		WHERE q.id = due.id
		RETURNING q.id, q.company_id, q.doc_number, due.status`, shared.DateOnly(asOf))
	if err != nil {
		return nil, fmt.Errorf("expire quotations: %w", err)
	}
	defer rows.Close()

	var refs []ExpiredRef
	for rows.Next() {
		var ref ExpiredRef
		if err := rows.Scan(&ref.ID, &ref.CompanyID, &ref.DocNumber, &ref.FromStatus); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *repository) GenerateNumber(ctx context.Context, companyID int64, date time.Time) (string, error) {
	return wms.NextDocNumber(ctx, r.db, companyID, DocPrefix, date)
}

