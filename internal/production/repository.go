package production

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
	wms "github.com/odyssey-erp/wms/internal/shared"
)

var (
	ErrWorkOrderNotFound = fmt.Errorf("work order %w", httpx.ErrNotFound)
	ErrJobCardNotFound   = fmt.Errorf("job card %w", httpx.ErrNotFound)
	ErrJobWorkNotFound   = fmt.Errorf("job work %w", httpx.ErrNotFound)
	ErrInvalidStatus     = fmt.Errorf("%w: invalid status transition", httpx.ErrConflict)
	ErrCardClosed        = fmt.Errorf("%w: job card is already DONE", httpx.ErrConflict)
	ErrOverBooked        = fmt.Errorf("%w: completed plus rejected quantity exceeds planned quantity", httpx.ErrConflict)
	ErrOverReceived      = fmt.Errorf("%w: received quantity exceeds quantity sent", httpx.ErrConflict)
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	GetWorkOrder(ctx context.Context, companyID, id int64) (*WorkOrder, error)
	// LockWorkOrder loads the work order and its job cards, holding a row lock
	// on the work order for the rest of the transaction. Every job card
	// change goes through this lock.
	LockWorkOrder(ctx context.Context, companyID, id int64) (*WorkOrder, error)
	ListWorkOrders(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error)
	CreateWorkOrder(ctx context.Context, wo WorkOrder) (int64, error)
	UpdateWorkOrderStatus(ctx context.Context, companyID, id int64, from, to WorkOrderStatus) error
	GenerateNumber(ctx context.Context, companyID int64, date time.Time) (string, error)
	MarkOrderInProduction(ctx context.Context, companyID, salesOrderID int64) error

	GetJobCard(ctx context.Context, companyID, id int64) (*JobCard, error)
	UpdateJobCard(ctx context.Context, card JobCard) error

	CreateJobWork(ctx context.Context, jw JobWork) (int64, error)
	GetJobWork(ctx context.Context, companyID, id int64) (*JobWork, error)
	ListJobWork(ctx context.Context, req ListJobWorkRequest) ([]JobWorkWithDetails, int, error)
	OutstandingJobWork(ctx context.Context, jobCardID int64) (float64, error)
	UpdateJobWork(ctx context.Context, jw JobWork, from JobWorkStatus) error

	CountWorkOrders(ctx context.Context, companyID int64) (map[WorkOrderStatus]int, error)
	CountJobCards(ctx context.Context, companyID int64) (map[JobCardStatus]int, error)
	JobWorkTotals(ctx context.Context, companyID int64) (map[JobWorkStatus]int, float64, float64, error)
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

const workOrderColumns = `id, doc_number, company_id, sales_order_id, sales_order_line_id, item_id, item_name,
	quantity, status, planned_start, started_at, completed_at, created_by, created_at, updated_at`

func scanWorkOrder(row pgx.Row) (*WorkOrder, error) {
	var wo WorkOrder
	var qty decimal.Decimal
	err := row.Scan(&wo.ID, &wo.DocNumber, &wo.CompanyID, &wo.SalesOrderID, &wo.SalesOrderLineID, &wo.ItemID,
		&wo.ItemName, &qty, &wo.Status, &wo.PlannedStart, &wo.StartedAt, &wo.CompletedAt, &wo.CreatedBy,
		&wo.CreatedAt, &wo.UpdatedAt)
	if err != nil {
		return nil, err
	}
	wo.Quantity = db.Float(qty)
	return &wo, nil
}

func (r *repository) GetWorkOrder(ctx context.Context, companyID, id int64) (*WorkOrder, error) {
	return r.loadWorkOrder(ctx, companyID, id, "")
}

func (r *repository) LockWorkOrder(ctx context.Context, companyID, id int64) (*WorkOrder, error) {
	return r.loadWorkOrder(ctx, companyID, id, " FOR UPDATE")
}

func (r *repository) loadWorkOrder(ctx context.Context, companyID, id int64, lock string) (*WorkOrder, error) {
	wo, err := scanWorkOrder(r.db.QueryRow(ctx,
		"SELECT "+workOrderColumns+" FROM work_orders WHERE company_id = $1 AND id = $2"+lock, companyID, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrWorkOrderNotFound
		}
		return nil, fmt.Errorf("get work order %d: %w", id, err)
	}
	cards, err := r.loadJobCards(ctx, wo.ID)
	if err != nil {
		return nil, err
	}
	wo.JobCards = cards
	return wo, nil
}

const jobCardColumns = `id, work_order_id, company_id, process_id, process_name, sequence,
	planned_qty, completed_qty, rejected_qty, status, updated_at`

func scanJobCard(row pgx.Row) (*JobCard, error) {
	var c JobCard
	var planned, completed, rejected decimal.Decimal
	if err := row.Scan(&c.ID, &c.WorkOrderID, &c.CompanyID, &c.ProcessID, &c.ProcessName, &c.Sequence,
		&planned, &completed, &rejected, &c.Status, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.PlannedQty, c.CompletedQty, c.RejectedQty = db.Float(planned), db.Float(completed), db.Float(rejected)
	return &c, nil
}

func (r *repository) loadJobCards(ctx context.Context, workOrderID int64) ([]JobCard, error) {
	rows, err := r.db.Query(ctx, "SELECT "+jobCardColumns+" FROM job_cards WHERE work_order_id = $1 ORDER BY sequence, id", workOrderID)
	if err != nil {
		return nil, fmt.Errorf("load job cards: %w", err)
	}
	defer rows.Close()
	cards := []JobCard{}
	for rows.Next() {
		c, err := scanJobCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

func (r *repository) ListWorkOrders(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{req.CompanyID}
	if req.SalesOrderID != nil {
		args = append(args, *req.SalesOrderID)
		conditions = append(conditions, fmt.Sprintf("sales_order_id = $%d", len(args)))
	}
	if req.Status != nil {
		args = append(args, *req.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM work_orders "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM work_orders %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		workOrderColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *wo)
	}
	return out, total, rows.Err()
}

func (r *repository) CreateWorkOrder(ctx context.Context, wo WorkOrder) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO work_orders (
			doc_number, company_id, sales_order_id, sales_order_line_id, item_id, item_name,
			quantity, status, planned_start, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		wo.DocNumber, wo.CompanyID, wo.SalesOrderID, wo.SalesOrderLineID, wo.ItemID, wo.ItemName,
		db.Decimal(wo.Quantity), wo.Status, wo.PlannedStart, wo.CreatedBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert work order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range wo.JobCards {
		batch.Queue(`INSERT INTO job_cards (
				work_order_id, company_id, process_id, process_name, sequence, planned_qty, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, wo.CompanyID, c.ProcessID, c.ProcessName, c.Sequence, db.Decimal(c.PlannedQty), c.Status)
	}
	if batch.Len() == 0 {
		return id, nil
	}
	results := r.db.SendBatch(ctx, batch)
	for range wo.JobCards {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("insert job cards: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("insert job cards: %w", err)
	}
	return id, nil
}

func (r *repository) UpdateWorkOrderStatus(ctx context.Context, companyID, id int64, from, to WorkOrderStatus) error {
	query := "UPDATE work_orders SET status = $1, updated_at = NOW()"
	switch to {
	case WorkOrderStatusInProgress:
		query += ", started_at = COALESCE(started_at, NOW())"
	case WorkOrderStatusCompleted:
		query += ", completed_at = NOW()"
	}
	query += " WHERE company_id = $2 AND id = $3 AND status = $4"
	tag, err := r.db.Exec(ctx, query, to, companyID, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: work order is no longer %s", ErrInvalidStatus, from)
	}
	return nil
}

func (r *repository) GenerateNumber(ctx context.Context, companyID int64, date time.Time) (string, error) {
	return wms.NextDocNumber(ctx, r.db, companyID, DocPrefix, date)
}

func (r *repository) MarkOrderInProduction(ctx context.Context, companyID, salesOrderID int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE sales_orders SET status = 'IN_PRODUCTION', updated_at = NOW()
		WHERE company_id = $1 AND id = $2 AND status = 'CONFIRMED'`, companyID, salesOrderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sales order is no longer CONFIRMED", ErrInvalidStatus)
	}
	return nil
}

func (r *repository) GetJobCard(ctx context.Context, companyID, id int64) (*JobCard, error) {
	c, err := scanJobCard(r.db.QueryRow(ctx,
		"SELECT "+jobCardColumns+" FROM job_cards WHERE company_id = $1 AND id = $2", companyID, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrJobCardNotFound
		}
		return nil, fmt.Errorf("get job card %d: %w", id, err)
	}
	return c, nil
}

func (r *repository) UpdateJobCard(ctx context.Context, c JobCard) error {
	tag, err := r.db.Exec(ctx, `UPDATE job_cards
		SET completed_qty = $1, rejected_qty = $2, status = $3, updated_at = NOW()
		WHERE company_id = $4 AND id = $5`,
		db.Decimal(c.CompletedQty), db.Decimal(c.RejectedQty), c.Status, c.CompanyID, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrJobCardNotFound
	}
	return nil
}

const jobWorkColumns = `jw.id, jw.company_id, jw.challan_no, jw.job_card_id, jw.vendor_id, jw.qty_sent, jw.qty_received,
	jw.rate, jw.amount, jw.status, jw.notes, jw.sent_at, jw.received_at, jw.created_by, jw.created_at, jw.updated_at`

func scanJobWork(row pgx.Row, extra ...any) (*JobWork, error) {
	var jw JobWork
	var sent, received, rate, amount decimal.Decimal
	dest := []any{&jw.ID, &jw.CompanyID, &jw.ChallanNo, &jw.JobCardID, &jw.VendorID, &sent, &received,
		&rate, &amount, &jw.Status, &jw.Notes, &jw.SentAt, &jw.ReceivedAt, &jw.CreatedBy, &jw.CreatedAt, &jw.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	jw.QtySent, jw.QtyReceived = db.Float(sent), db.Float(received)
	jw.Rate, jw.Amount = db.Float(rate), db.Float(amount)
	return &jw, nil
}

func (r *repository) CreateJobWork(ctx context.Context, jw JobWork) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO job_work (
			company_id, challan_no, job_card_id, vendor_id, qty_sent, qty_received, rate, amount,
			status, notes, sent_at, created_by
		) VALUES ($1, $2, $3, $4, $5, 0, $6, 0, $7, $8, $9, $10)
		RETURNING id`,
		jw.CompanyID, jw.ChallanNo, jw.JobCardID, jw.VendorID, db.Decimal(jw.QtySent), db.Decimal(jw.Rate),
		jw.Status, jw.Notes, jw.SentAt, jw.CreatedBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert job work: %w", err)
	}
	return id, nil
}

func (r *repository) GetJobWork(ctx context.Context, companyID, id int64) (*JobWork, error) {
	jw, err := scanJobWork(r.db.QueryRow(ctx,
		"SELECT "+jobWorkColumns+" FROM job_work jw WHERE jw.company_id = $1 AND jw.id = $2", companyID, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrJobWorkNotFound
		}
		return nil, fmt.Errorf("get job work %d: %w", id, err)
	}
	return jw, nil
}

func (r *repository) ListJobWork(ctx context.Context, req ListJobWorkRequest) ([]JobWorkWithDetails, int, error) {
	conditions := []string{"jw.company_id = $1"}
	args := []any{req.CompanyID}
	if req.VendorID != nil {
		args = append(args, *req.VendorID)
		conditions = append(conditions, fmt.Sprintf("jw.vendor_id = $%d", len(args)))
	}
	if req.JobCardID != nil {
		args = append(args, *req.JobCardID)
		conditions = append(conditions, fmt.Sprintf("jw.job_card_id = $%d", len(args)))
	}
	if req.Status != nil {
		args = append(args, *req.Status)
		conditions = append(conditions, fmt.Sprintf("jw.status = $%d", len(args)))
	}
	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM job_work jw "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s, v.name, jc.process_name, wo.doc_number
		FROM job_work jw
		JOIN vendors v ON v.id = jw.vendor_id
		JOIN job_cards jc ON jc.id = jw.job_card_id
		JOIN work_orders wo ON wo.id = jc.work_order_id
		%s
		ORDER BY jw.sent_at DESC, jw.id DESC
		LIMIT $%d OFFSET $%d`, jobWorkColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []JobWorkWithDetails
	for rows.Next() {
		var d JobWorkWithDetails
		jw, err := scanJobWork(rows, &d.VendorName, &d.ProcessName, &d.WorkOrderNo)
		if err != nil {
			return nil, 0, err
		}
		d.JobWork = *jw
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *repository) OutstandingJobWork(ctx context.Context, jobCardID int64) (float64, error) {
	var qty decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(qty_sent - qty_received), 0)
		FROM job_work WHERE job_card_id = $1 AND status IN ('SENT', 'PARTIALLY_RECEIVED')`, jobCardID).Scan(&qty)
	if err != nil {
		return 0, err
	}
	return db.Float(qty), nil
}

func (r *repository) UpdateJobWork(ctx context.Context, jw JobWork, from JobWorkStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE job_work
		SET qty_received = $1, amount = $2, status = $3, received_at = $4, updated_at = NOW()
		WHERE company_id = $5 AND id = $6 AND status = $7`,
		db.Decimal(jw.QtyReceived), db.Decimal(jw.Amount), jw.Status, jw.ReceivedAt, jw.CompanyID, jw.ID, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job work is no longer %s", ErrInvalidStatus, from)
	}
	return nil
}

func (r *repository) CountWorkOrders(ctx context.Context, companyID int64) (map[WorkOrderStatus]int, error) {
	out := map[WorkOrderStatus]int{}
	err := r.countByStatus(ctx, "SELECT status, COUNT(*) FROM work_orders WHERE company_id = $1 GROUP BY status",
		companyID, func(status string, n int) { out[WorkOrderStatus(status)] = n })
	return out, err
}

func (r *repository) CountJobCards(ctx context.Context, companyID int64) (map[JobCardStatus]int, error) {
	out := map[JobCardStatus]int{}
	err := r.countByStatus(ctx, "SELECT status, COUNT(*) FROM job_cards WHERE company_id = $1 GROUP BY status",
		companyID, func(status string, n int) { out[JobCardStatus(status)] = n })
	return out, err
}

func (r *repository) countByStatus(ctx context.Context, query string, companyID int64, add func(string, int)) error {
	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return err
		}
		add(status, n)
	}
	return rows.Err()
}

func (r *repository) JobWorkTotals(ctx context.Context, companyID int64) (map[JobWorkStatus]int, float64, float64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*), COALESCE(SUM(amount), 0),
			COALESCE(SUM(CASE WHEN status IN ('SENT', 'PARTIALLY_RECEIVED') THEN qty_sent - qty_received ELSE 0 END), 0)
		FROM job_work WHERE company_id = $1 GROUP BY status`, companyID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()
	counts := map[JobWorkStatus]int{}
	var amount, outstanding float64
	for rows.Next() {
		var status string
		var n int
		var amt, out decimal.Decimal
		if err := rows.Scan(&status, &n, &amt, &out); err != nil {
			return nil, 0, 0, err
		}
		counts[JobWorkStatus(status)] = n
		amount += db.Float(amt)
		outstanding += db.Float(out)
	}
	return counts, amount, outstanding, rows.Err()
}
