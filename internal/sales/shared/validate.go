package shared

import (
	"errors"
	"maps"
	"time"

	"github.com/odyssey-erp/wms/internal/platform/httpx"
	"github.com/odyssey-erp/wms/internal/pricing"
)

// MsgSelectCustomer is reported on customer_id when no customer is chosen or
// the chosen one does not exist.
const MsgSelectCustomer = "Please select a customer"

// ErrCustomerRequired is returned when a document has no usable customer.
var ErrCustomerRequired = httpx.Invalid("customer_id", MsgSelectCustomer)

// ValidateDocument checks the parts shared by quotations and sales orders and
// merges them with caller supplied field errors into one validation error.
func ValidateDocument(customerID int64, items []pricing.LineItem, params pricing.TaxParameters, fields map[string]string) error {
	out := map[string]string{}
	maps.Copy(out, fields)
	if customerID <= 0 {
		out["customer_id"] = MsgSelectCustomer
	}
	var perr *pricing.ValidationError
	if err := pricing.Validate(items, params); errors.As(err, &perr) {
		maps.Copy(out, perr.Fields)
	}
	if len(out) == 0 {
		return nil
	}
	return &httpx.ValidationError{Fields: out}
}

// ValidatePreview is the relaxed variant used before a document is saved:
// no customer and no lines are both acceptable.
func ValidatePreview(items []pricing.LineItem, params pricing.TaxParameters) error {
	var perr *pricing.ValidationError
	if err := pricing.ValidateInputs(items, params); errors.As(err, &perr) {
		return &httpx.ValidationError{Fields: perr.Fields}
	}
	return nil
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
