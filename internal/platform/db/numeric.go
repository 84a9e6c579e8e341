package db

import "github.com/shopspring/decimal"

// Decimal converts a computed amount for a NUMERIC column.
func Decimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// Float converts a NUMERIC column value back for computation.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
