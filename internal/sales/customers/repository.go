package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/wms/internal/platform/db"
	"github.com/odyssey-erp/wms/internal/platform/httpx"
)

var (
	ErrNotFound      = fmt.Errorf("customer %w", httpx.ErrNotFound)
	ErrAlreadyExists = fmt.Errorf("customer %w", httpx.ErrDuplicate)
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, companyID, id int64) (*Customer, error)
	GetByCode(ctx context.Context, companyID int64, code string) (*Customer, error)
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error)
	Create(ctx context.Context, customer Customer) (int64, error)
	Update(ctx context.Context, companyID, id int64, updates map[string]any) error
	GenerateCode(ctx context.Context, companyID int64) (string, error)
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

const customerColumns = `id, code, name, company_id, contact_person, email, phone, gstin,
	credit_limit, payment_terms_days, address_line1, address_line2,
	city, state, postal_code, country, is_active, notes,
	created_by, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	var creditLimit decimal.Decimal
	err := row.Scan(
		&c.ID, &c.Code, &c.Name, &c.CompanyID, &c.ContactPerson, &c.Email, &c.Phone, &c.GSTIN,
		&creditLimit, &c.PaymentTermsDays, &c.AddressLine1, &c.AddressLine2,
		&c.City, &c.State, &c.PostalCode, &c.Country, &c.IsActive, &c.Notes,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.CreditLimit = db.Float(creditLimit)
	return &c, nil
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *repository) GetByCode(ctx context.Context, companyID int64, code string) (*Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE company_id = $1 AND code = $2`, companyID, code))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{req.CompanyID}

	if req.IsActive != nil {
		args = append(args, *req.IsActive)
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if req.Search != nil && *req.Search != "" {
		args = append(args, "%"+*req.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d OR email ILIKE $%d OR gstin ILIKE $%d)", n, n, n, n))
	}
	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY code LIMIT $%d OFFSET $%d`,
		customerColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, *c)
	}
	return customers, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Customer) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO customers (
			code, name, company_id, contact_person, email, phone, gstin,
			credit_limit, payment_terms_days, address_line1, address_line2,
			city, state, postal_code, country, is_active, notes, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`,
		c.Code, c.Name, c.CompanyID, c.ContactPerson, c.Email, c.Phone, c.GSTIN,
		db.Decimal(c.CreditLimit), c.PaymentTermsDays, c.AddressLine1, c.AddressLine2,
		c.City, c.State, c.PostalCode, c.Country, c.IsActive, c.Notes, c.CreatedBy,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: customer code already exists", ErrAlreadyExists)
		}
		return 0, err
	}
	return id, nil
}

// updatableColumns fixes the column order of partial updates.
var updatableColumns = []string{
	"name", "contact_person", "email", "phone", "gstin", "credit_limit", "payment_terms_days",
	"address_line1", "address_line2", "city", "state", "postal_code", "country", "is_active", "notes",
}

func (r *repository) Update(ctx context.Context, companyID, id int64, updates map[string]any) error {
	query := "UPDATE customers SET updated_at = NOW()"
	var args []any
	for _, col := range updatableColumns {
		v, ok := updates[col]
		if !ok {
			continue
		}
		if f, isFloat := v.(float64); isFloat {
			v = db.Decimal(f)
		}
		args = append(args, v)
		query += fmt.Sprintf(", %s = $%d", col, len(args))
	}
	args = append(args, companyID, id)
	query += fmt.Sprintf(" WHERE company_id = $%d AND id = $%d", len(args)-1, len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GenerateCode suggests the next customer code for form pre-fill. Uniqueness
// is still enforced on insert.
func (r *repository) GenerateCode(ctx context.Context, companyID int64) (string, error) {
	var count int64
	err := r.db.QueryRow(ctx, "SELECT count(*) FROM customers WHERE company_id = $1", companyID).Scan(&count)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CUST-%05d", count+1), nil
}
