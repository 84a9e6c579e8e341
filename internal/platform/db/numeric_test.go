package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDecimalRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1130, 90400, 3425.74, 0.1, 1234567.891} {
		assert.Equal(t, v, Float(Decimal(v)))
	}
	assert.True(t, Decimal(3425.74).Equal(decimal.RequireFromString("3425.74")))
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsNoRows(fmt.Errorf("get quotation: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(errors.New("boom")))

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "customers_company_id_code_key"}
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert customer: %w", dup)))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
}
