package processes

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/wms/internal/masterdata/shared"
	"github.com/odyssey-erp/wms/internal/platform/db"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Process, int, error)
	Get(ctx context.Context, companyID, id int64) (Process, error)
	Create(ctx context.Context, p Process) (Process, error)
	Update(ctx context.Context, p Process) error
	Delete(ctx context.Context, companyID, id int64) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const processColumns = `id, company_id, code, name, default_unit_cost, description, is_outsourced, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Process, int, error) {
	where := ` WHERE company_id = $1`
	args := []any{filters.CompanyID}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR code ILIKE $` + n + `)`
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM processes`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count processes: %w", err)
	}

	query := `SELECT ` + processColumns + ` FROM processes` + where +
		` ORDER BY ` + shared.SortOrder(filters.SortBy, filters.SortDir, "code", "name", "created_at")
	if filters.Limit > 0 {
		args = append(args, filters.Limit, filters.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list processes: %w", err)
	}
	defer rows.Close()

	var out []Process
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func scanProcess(row interface{ Scan(...any) error }) (Process, error) {
	var p Process
	var cost decimal.Decimal
	err := row.Scan(&p.ID, &p.CompanyID, &p.Code, &p.Name, &cost, &p.Description, &p.IsOutsourced, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	p.DefaultUnitCost = db.Float(cost)
	return p, err
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Process, error) {
	p, err := scanProcess(r.db.QueryRow(ctx, `SELECT `+processColumns+` FROM processes WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if db.IsNoRows(err) {
			return Process{}, fmt.Errorf("process %d: %w", id, shared.ErrNotFound)
		}
		return Process{}, fmt.Errorf("get process: %w", err)
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, p Process) (Process, error) {
	now := time.Now().UTC()
	err := r.db.QueryRow(ctx, `INSERT INTO processes (company_id, code, name, default_unit_cost, description, is_outsourced, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8) RETURNING id`,
		p.CompanyID, p.Code, p.Name, db.Decimal(p.DefaultUnitCost), p.Description, p.IsOutsourced, p.IsActive, now,
	).Scan(&p.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Process{}, fmt.Errorf("process %s: %w", p.Code, shared.ErrDuplicate)
		}
		return Process{}, fmt.Errorf("insert process: %w", err)
	}
	p.CreatedAt, p.UpdatedAt = now, now
	return p, nil
}

func (r *repository) Update(ctx context.Context, p Process) error {
	tag, err := r.db.Exec(ctx, `UPDATE processes SET code = $1, name = $2, default_unit_cost = $3, description = $4,
		is_outsourced = $5, is_active = $6, updated_at = $7 WHERE company_id = $8 AND id = $9`,
		p.Code, p.Name, db.Decimal(p.DefaultUnitCost), p.Description, p.IsOutsourced, p.IsActive, time.Now().UTC(), p.CompanyID, p.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("process %s: %w", p.Code, shared.ErrDuplicate)
		}
		return fmt.Errorf("update process: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("process %d: %w", p.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, companyID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM processes WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("process %d: %w", id, shared.ErrInUse)
		}
		return fmt.Errorf("delete process: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("process %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
