package customers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/wms/internal/platform/httpx"
)

type mockRepository struct {
	customers map[int64]*Customer
	nextID    int64
	txError   error
}

func newMockRepository() *mockRepository {
	return &mockRepository{customers: map[int64]*Customer{}, nextID: 1}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, m)
}

func (m *mockRepository) Get(_ context.Context, companyID, id int64) (*Customer, error) {
	c, ok := m.customers[id]
	if !ok || c.CompanyID != companyID {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepository) GetByCode(_ context.Context, companyID int64, code string) (*Customer, error) {
	for _, c := range m.customers {
		if c.CompanyID == companyID && c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) List(_ context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	var out []Customer
	for _, c := range m.customers {
		if c.CompanyID != req.CompanyID {
			continue
		}
		if req.IsActive != nil && c.IsActive != *req.IsActive {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(_ context.Context, c Customer) (int64, error) {
	c.ID = m.nextID
	m.nextID++
	m.customers[c.ID] = &c
	return c.ID, nil
}

func (m *mockRepository) Update(_ context.Context, companyID, id int64, updates map[string]any) error {
	c, ok := m.customers[id]
	if !ok || c.CompanyID != companyID {
		return ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "name":
			c.Name = v.(string)
		case "country":
			c.Country = v.(string)
		case "state":
			s := v.(string)
			c.State = &s
		case "gstin":
			s := v.(string)
			c.GSTIN = &s
		case "is_active":
			c.IsActive = v.(bool)
		case "credit_limit":
			c.CreditLimit = v.(float64)
		}
	}
	return nil
}

func (m *mockRepository) GenerateCode(_ context.Context, companyID int64) (string, error) {
	var n int
	for _, c := range m.customers {
		if c.CompanyID == companyID {
			n++
		}
	}
	return fmt.Sprintf("CUST-%05d", n+1), nil
}

func ptr[T any](v T) *T { return &v }

func validCreate() CreateCustomerRequest {
	return CreateCustomerRequest{
		Code:    "acme",
		Name:    " Acme Gears ",
		Country: "India",
		State:   ptr("Maharashtra"),
		GSTIN:   ptr("27aapfu0939f1zv"),
	}
}

func TestService_Create(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	c, err := svc.Create(context.Background(), 1, validCreate(), 9)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
	assert.Equal(t, "ACME", c.Code)
	assert.Equal(t, "Acme Gears", c.Name)
	assert.Equal(t, "27AAPFU0939F1ZV", *c.GSTIN)
	assert.True(t, c.IsActive)
	assert.Equal(t, int64(9), c.CreatedBy)
}

func TestService_CreateDuplicateCode(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Create(context.Background(), 1, validCreate(), 9)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 1, validCreate(), 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.ErrorIs(t, err, httpx.ErrDuplicate)

	_, err = svc.Create(context.Background(), 2, validCreate(), 9)
	require.NoError(t, err, "codes are unique per company")
}

func TestService_CreateValidation(t *testing.T) {
	svc := NewService(newMockRepository())
	req := validCreate()
	req.Name = ""
	req.Country = ""
	req.Email = ptr("not-an-email")

	_, err := svc.Create(context.Background(), 1, req, 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	var verr *httpx.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors(), "name")
	assert.Contains(t, verr.FieldErrors(), "country")
	assert.Contains(t, verr.FieldErrors(), "email")
}

func TestService_CreateTxError(t *testing.T) {
	repo := newMockRepository()
	repo.txError = errors.New("connection reset")

	_, err := NewService(repo).Create(context.Background(), 1, validCreate(), 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create customer")
}

func TestService_UpdatePartial(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	created, err := svc.Create(context.Background(), 1, validCreate(), 9)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), 1, created.ID, UpdateCustomerRequest{
		Country: ptr("USA"),
		State:   ptr("California"),
		GSTIN:   ptr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "USA", updated.Country)
	assert.Equal(t, "California", *updated.State)
	assert.Equal(t, "Acme Gears", updated.Name)

	_, err = svc.Update(context.Background(), 2, created.ID, UpdateCustomerRequest{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_CreateNormalizesIndia(t *testing.T) {
	svc := NewService(newMockRepository())
	req := validCreate()
	req.Country = " in "

	c, err := svc.Create(context.Background(), 1, req, 9)
	require.NoError(t, err)
	assert.Equal(t, "India", c.Country)
	assert.True(t, c.TaxProfile().Domestic())
}

func TestService_GSTINOnlyForIndia(t *testing.T) {
	svc := NewService(newMockRepository())
	req := validCreate()
	req.Country = "Germany"

	_, err := svc.Create(context.Background(), 1, req, 9)
	var verr *httpx.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors(), "gstin")

	created, err := svc.Create(context.Background(), 1, validCreate(), 9)
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), 1, created.ID, UpdateCustomerRequest{Country: ptr("Germany")})
	assert.ErrorIs(t, err, httpx.ErrValidation, "moving abroad keeps the GSTIN unless it is cleared")
}

func TestService_UpdateNoChanges(t *testing.T) {
	svc := NewService(newMockRepository())
	created, err := svc.Create(context.Background(), 1, validCreate(), 9)
	require.NoError(t, err)

	got, err := svc.Update(context.Background(), 1, created.ID, UpdateCustomerRequest{})
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
}

func TestService_GenerateCode(t *testing.T) {
	svc := NewService(newMockRepository())
	code, err := svc.GenerateCode(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "CUST-00001", code)
}

func TestCustomer_TaxProfile(t *testing.T) {
	var none *Customer
	assert.Nil(t, none.TaxProfile())

	c := &Customer{Country: "India", State: ptr("Gujarat")}
	p := c.TaxProfile()
	require.NotNil(t, p)
	assert.True(t, p.Domestic())
	assert.Equal(t, "Gujarat", p.State)

	foreign := (&Customer{Country: "Germany"}).TaxProfile()
	assert.False(t, foreign.Domestic())
	assert.Empty(t, foreign.State)
}
