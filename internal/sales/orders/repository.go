package orders

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
	ErrNotFound      = fmt.Errorf("sales order %w", httpx.ErrNotFound)
	ErrInvalidStatus = fmt.Errorf("%w: invalid status transition", httpx.ErrConflict)
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, companyID, id int64) (*SalesOrder, error)
	List(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrderWithDetails, int, error)
	Create(ctx context.Context, order SalesOrder) (int64, error)
	UpdateHeader(ctx context.Context, order SalesOrder) error
	ReplaceLines(ctx context.Context, orderID int64, lines []shared.Line) error
	UpdateStatus(ctx context.Context, companyID, id int64, from, to SalesOrderStatus, userID int64, reason *string) error
	MarkQuotationConverted(ctx context.Context, companyID, quotationID int64) error
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

const orderColumns = `so.id, so.doc_number, so.company_id, so.customer_id, so.quotation_id, so.order_date,
	so.expected_delivery_date, so.status,
	so.gst_percent, so.tax_mode, so.tds_percent, so.tcs_percent, so.remittance_charges, so.currency, so.exchange_rate,
	so.base_amount, so.gst_amount, so.tds_amount, so.tcs_amount, so.total_amount, so.receivable_amount,
	so.notes, so.created_by, so.confirmed_by, so.confirmed_at, so.completed_at, so.cancelled_by, so.cancelled_at,
	so.cancellation_reason, so.created_at, so.updated_at`

func scanOrder(row pgx.Row, extra ...any) (*SalesOrder, error) {
	var o SalesOrder
	var gst, tds, tcs, remit, rate decimal.Decimal
	var base, gstAmt, tdsAmt, tcsAmt, total, receivable decimal.Decimal
	dest := []any{
		&o.ID, &o.DocNumber, &o.CompanyID, &o.CustomerID, &o.QuotationID, &o.OrderDate,
		&o.ExpectedDeliveryDate, &o.Status,
		&gst, &o.Tax.TaxMode, &tds, &tcs, &remit, &o.Tax.Currency, &rate,
		&base, &gstAmt, &tdsAmt, &tcsAmt, &total, &receivable,
		&o.Notes, &o.CreatedBy, &o.ConfirmedBy, &o.ConfirmedAt, &o.CompletedAt, &o.CancelledBy, &o.CancelledAt,
		&o.CancellationReason, &o.CreatedAt, &o.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	o.Tax.GSTPercent, o.Tax.TDSPercent, o.Tax.TCSPercent = db.Float(gst), db.Float(tds), db.Float(tcs)
	o.Tax.RemittanceCharges, o.Tax.ExchangeRate = db.Float(remit), db.Float(rate)
	o.Totals = shared.Totals{
		BaseAmount:        db.Float(base),
		GSTAmount:         db.Float(gstAmt),
		TDSAmount:         db.Float(tdsAmt),
		TCSAmount:         db.Float(tcsAmt),
		RemittanceCharges: db.Float(remit),
		TotalAmount:       db.Float(total),
		ReceivableAmount:  db.Float(receivable),
	}
	return &o, nil
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*SalesOrder, error) {
	o, err := scanOrder(r.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM sales_orders so WHERE so.company_id = $1 AND so.id = $2`, companyID, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	o.Lines, err = shared.SalesOrderLines.Load(ctx, r.db, o.ID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) List(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrderWithDetails, int, error) {
	conditions := []string{"so.company_id = $1"}
	args := []any{req.CompanyID}

	if req.CustomerID != nil {
		args = append(args, *req.CustomerID)
		conditions = append(conditions, fmt.Sprintf("so.customer_id = $%d", len(args)))
	}
	if req.Status != nil {
		args = append(args, *req.Status)
		conditions = append(conditions, fmt.Sprintf("so.status = $%d", len(args)))
	}
	if req.DateFrom != nil {
		args = append(args, *req.DateFrom)
		conditions = append(conditions, fmt.Sprintf("so.order_date >= $%d", len(args)))
	}
	if req.DateTo != nil {
		args = append(args, *req.DateTo)
		conditions = append(conditions, fmt.Sprintf("so.order_date <= $%d", len(args)))
	}
	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM sales_orders so "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s, c.name
		FROM sales_orders so
		JOIN customers c ON so.customer_id = c.id
		%s
		ORDER BY so.order_date DESC, so.id DESC
		LIMIT $%d OFFSET $%d`, orderColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []SalesOrderWithDetails
	for rows.Next() {
		var name string
		o, err := scanOrder(rows, &name)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, SalesOrderWithDetails{SalesOrder: *o, CustomerName: name})
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

func (r *repository) Create(ctx context.Context, o SalesOrder) (int64, error) {
	args := []any{o.DocNumber, o.CompanyID, o.CustomerID, o.QuotationID, o.OrderDate, o.ExpectedDeliveryDate,
		o.Status, o.Notes, o.CreatedBy}
	args = append(args, taxArgs(o.Tax, o.Totals)...)

	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO sales_orders (
			doc_number, company_id, customer_id, quotation_id, order_date, expected_delivery_date,
			status, notes, created_by,
			gst_percent, tax_mode, tds_percent, tcs_percent, remittance_charges, currency, exchange_rate,
			base_amount, gst_amount, tds_amount, tcs_amount, total_amount, receivable_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id`, args...).Scan(&id)
	if err != nil {
		return 0, err
	}
	if err := shared.SalesOrderLines.Insert(ctx, r.db, id, o.Lines); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateHeader(ctx context.Context, o SalesOrder) error {
	args := []any{o.CompanyID, o.ID, o.CustomerID, o.OrderDate, o.ExpectedDeliveryDate, o.Notes}
	args = append(args, taxArgs(o.Tax, o.Totals)...)

	tag, err := r.db.Exec(ctx, `UPDATE sales_orders SET
			customer_id = $3, order_date = $4, expected_delivery_date = $5, notes = $6,
			gst_percent = $7, tax_mode = $8, tds_percent = $9, tcs_percent = $10,
			remittance_charges = $11, currency = $12, exchange_rate = $13,
			base_amount = $14, gst_amount = $15, tds_amount = $16, tcs_amount = $17,
			total_amount = $18, receivable_amount = $19, updated_at = NOW()
		WHERE company_id = $1 AND id = $2 AND status = 'DRAFT'`, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: only DRAFT sales orders can be updated", ErrInvalidStatus)
	}
	return nil
}

func (r *repository) ReplaceLines(ctx context.Context, orderID int64, lines []shared.Line) error {
	if err := shared.SalesOrderLines.Delete(ctx, r.db, orderID); err != nil {
		return err
	}
	return shared.SalesOrderLines.Insert(ctx, r.db, orderID, lines)
}

func (r *repository) UpdateStatus(ctx context.Context, companyID, id int64, from, to SalesOrderStatus, userID int64, reason *string) error {
	query := "UPDATE sales_orders SET status = $1, updated_at = NOW()"
	args := []any{to}
	switch to {
	case SalesOrderStatusConfirmed:
		args = append(args, userID)
		query += fmt.Sprintf(", confirmed_by = $%d, confirmed_at = NOW()", len(args))
	case SalesOrderStatusCompleted:
		query += ", completed_at = NOW()"
	case SalesOrderStatusCancelled:
		args = append(args, userID, reason)
		query += fmt.Sprintf(", cancelled_by = $%d, cancelled_at = NOW(), cancellation_reason = $%d", len(args)-1, len(args))
	}
	args = append(args, companyID, id, from)
	query += fmt.Sprintf(" WHERE company_id = $%d AND id = $%d AND status = $%d", len(args)-2, len(args)-1, len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sales order is no longer %s", ErrInvalidStatus, from)
	}
	return nil
}

// MarkQuotationConverted closes the source quotation inside the transaction
// that creates the order, so a quotation converts at most once.
func (r *repository) MarkQuotationConverted(ctx context.Context, companyID, quotationID int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE quotations SET status = 'CONVERTED', converted_at = NOW(), updated_at = NOW()
		WHERE company_id = $1 AND id = $2 AND status = 'APPROVED'`, companyID, quotationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quotation is no longer APPROVED", ErrInvalidStatus)
	}
	return nil
}

func (r *repository) GenerateNumber(ctx context.Context, companyID int64, date time.Time) (string, error) {
	return wms.NextDocNumber(ctx, r.db, companyID, DocPrefix, date)
}
