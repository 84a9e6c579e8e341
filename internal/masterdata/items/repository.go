package items

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
	List(ctx context.Context, filters shared.ListFilters) ([]Item, int, error)
	Get(ctx context.Context, companyID, id int64) (Item, error)
	Create(ctx context.Context, item Item) (Item, error)
	Update(ctx context.Context, item Item) error
	Delete(ctx context.Context, companyID, id int64) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const itemColumns = `id, company_id, code, name, hsn_code, uom, default_rate, description, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Item, int, error) {
	where := ` WHERE company_id = $1`
	args := []any{filters.CompanyID}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR code ILIKE $` + n + ` OR hsn_code ILIKE $` + n + `)`
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM items`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	query := `SELECT ` + itemColumns + ` FROM items` + where +
		` ORDER BY ` + shared.SortOrder(filters.SortBy, filters.SortDir, "code", "name", "created_at")
	if filters.Limit > 0 {
		args = append(args, filters.Limit, filters.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (Item, error) {
	var it Item
	var rate decimal.Decimal
	err := row.Scan(&it.ID, &it.CompanyID, &it.Code, &it.Name, &it.HSNCode, &it.UOM, &rate,
		&it.Description, &it.IsActive, &it.CreatedAt, &it.UpdatedAt)
	it.DefaultRate = db.Float(rate)
	return it, err
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Item, error) {
	row := r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE company_id = $1 AND id = $2`, companyID, id)
	it, err := scanItem(row)
	if err != nil {
		if db.IsNoRows(err) {
			return Item{}, fmt.Errorf("item %d: %w", id, shared.ErrNotFound)
		}
		return Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

func (r *repository) Create(ctx context.Context, item Item) (Item, error) {
	now := time.Now().UTC()
	err := r.db.QueryRow(ctx, `INSERT INTO items (company_id, code, name, hsn_code, uom, default_rate, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING id`,
		item.CompanyID, item.Code, item.Name, item.HSNCode, item.UOM, db.Decimal(item.DefaultRate), item.Description, item.IsActive, now,
	).Scan(&item.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Item{}, fmt.Errorf("item %s: %w", item.Code, shared.ErrDuplicate)
		}
		return Item{}, fmt.Errorf("insert item: %w", err)
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	return item, nil
}

func (r *repository) Update(ctx context.Context, item Item) error {
	tag, err := r.db.Exec(ctx, `UPDATE items SET code = $1, name = $2, hsn_code = $3, uom = $4, default_rate = $5,
		description = $6, is_active = $7, updated_at = $8 WHERE company_id = $9 AND id = $10`,
		item.Code, item.Name, item.HSNCode, item.UOM, db.Decimal(item.DefaultRate), item.Description, item.IsActive,
		time.Now().UTC(), item.CompanyID, item.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("item %s: %w", item.Code, shared.ErrDuplicate)
		}
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %d: %w", item.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, companyID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("item %d: %w", id, shared.ErrInUse)
		}
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
