package vendors

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/odyssey-erp/wms/internal/masterdata/shared"
	"github.com/odyssey-erp/wms/internal/platform/db"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Vendor, int, error)
	Get(ctx context.Context, companyID, id int64) (Vendor, error)
	Create(ctx context.Context, v Vendor) (Vendor, error)
	Update(ctx context.Context, v Vendor) error
	Delete(ctx context.Context, companyID, id int64) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const vendorColumns = `id, company_id, code, name, contact_person, email, phone, gstin, address, state, country, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Vendor, int, error) {
	where := ` WHERE company_id = $1`
	args := []any{filters.CompanyID}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR code ILIKE $` + n + ` OR gstin ILIKE $` + n + `)`
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vendors`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vendors: %w", err)
	}

	query := `SELECT ` + vendorColumns + ` FROM vendors` + where +
		` ORDER BY ` + shared.SortOrder(filters.SortBy, filters.SortDir, "code", "name", "state", "created_at")
	if filters.Limit > 0 {
		args = append(args, filters.Limit, filters.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	var out []Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

func scanVendor(row interface{ Scan(...any) error }) (Vendor, error) {
	var v Vendor
	err := row.Scan(&v.ID, &v.CompanyID, &v.Code, &v.Name, &v.ContactPerson, &v.Email, &v.Phone, &v.GSTIN,
		&v.Address, &v.State, &v.Country, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Vendor, error) {
	v, err := scanVendor(r.db.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if db.IsNoRows(err) {
			return Vendor{}, fmt.Errorf("vendor %d: %w", id, shared.ErrNotFound)
		}
		return Vendor{}, fmt.Errorf("get vendor: %w", err)
	}
	return v, nil
}

func (r *repository) Create(ctx context.Context, v Vendor) (Vendor, error) {
	now := time.Now().UTC()
	err := r.db.QueryRow(ctx, `INSERT INTO vendors (company_id, code, name, contact_person, email, phone, gstin, address, state, country, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12) RETURNING id`,
		v.CompanyID, v.Code, v.Name, v.ContactPerson, v.Email, v.Phone, v.GSTIN, v.Address, v.State, v.Country, v.IsActive, now,
	).Scan(&v.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Vendor{}, fmt.Errorf("vendor %s: %w", v.Code, shared.ErrDuplicate)
		}
		return Vendor{}, fmt.Errorf("insert vendor: %w", err)
	}
	v.CreatedAt, v.UpdatedAt = now, now
	return v, nil
}

func (r *repository) Update(ctx context.Context, v Vendor) error {
	tag, err := r.db.Exec(ctx, `UPDATE vendors SET code = $1, name = $2, contact_person = $3, email = $4, phone = $5, gstin = $6,
		address = $7, state = $8, country = $9, is_active = $10, updated_at = $11 WHERE company_id = $12 AND id = $13`,
		v.Code, v.Name, v.ContactPerson, v.Email, v.Phone, v.GSTIN, v.Address, v.State, v.Country, v.IsActive,
		time.Now().UTC(), v.CompanyID, v.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("vendor %s: %w", v.Code, shared.ErrDuplicate)
		}
		return fmt.Errorf("update vendor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vendor %d: %w", v.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, companyID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vendors WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("vendor %d: %w", id, shared.ErrInUse)
		}
		return fmt.Errorf("delete vendor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vendor %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
