package pricing

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalidInput is the root of every validation failure returned by Validate.
var ErrInvalidInput = errors.New("invalid pricing input")

// ValidationError lists field-level failures keyed by JSON path,
// e.g. "lines[0].quantity" or "tax.gst_percent".
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// FieldErrors exposes the failures for problem responses.
func (e *ValidationError) FieldErrors() map[string]string { return e.Fields }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// oneof compares floats as strings, so the percentage sets get their own rules.
	_ = v.RegisterValidation("gstpercent", func(fl validator.FieldLevel) bool {
		return inSet(fl.Field().Float(), AllowedGSTPercents)
	})
	// scale=N caps decimal places at the scale of the input's NUMERIC column.
	_ = v.RegisterValidation("scale", func(fl validator.FieldLevel) bool {
		places, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return decimalPlaces(fl.Field().Float()) <= places
	})
	v.RegisterStructValidation(validateWithholding, TaxParameters{})
	return v
}

func validateWithholding(sl validator.StructLevel) {
	p := sl.Current().Interface().(TaxParameters)
	switch p.TaxMode {
	case TaxModeTDS:
		if !inSet(p.TDSPercent, AllowedTDSPercents) {
			sl.ReportError(p.TDSPercent, "tds_percent", "TDSPercent", "tdspercent", "")
		}
	case TaxModeTCS:
		if !inSet(p.TCSPercent, AllowedTCSPercents) {
			sl.ReportError(p.TCSPercent, "tcs_percent", "TCSPercent", "tcspercent", "")
		}
	}
}

// decimalPlaces counts the digits after the point in the shortest decimal
// form of v, e.g. 10.005 has three.
func decimalPlaces(v float64) int {
	exp := decimal.NewFromFloat(v).Exponent()
	if exp >= 0 {
		return 0
	}
	return int(-exp)
}

func inSet(v float64, set []float64) bool {
	for _, allowed := range set {
		if math.Abs(v-allowed) < 1e-9 {
			return true
		}
	}
	return false
}

// Validate checks a complete document: at least one line, every line and
// process well formed, and tax parameters drawn from the allowed sets.
// Blank parameters are defaulted before checking.
func Validate(items []LineItem, params TaxParameters) error {
	fields := map[string]string{}
	if len(items) == 0 {
		fields["lines"] = "at least one line item is required"
	}
	collectInputErrors(fields, items, params)
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// ValidateInputs performs the same field checks as Validate but accepts an
// empty line list, for previews of documents still being edited.
func ValidateInputs(items []LineItem, params TaxParameters) error {
	fields := map[string]string{}
	collectInputErrors(fields, items, params)
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func collectInputErrors(fields map[string]string, items []LineItem, params TaxParameters) {
	for i, item := range items {
		collect(fields, validate.Struct(item), "lines["+strconv.Itoa(i)+"]")
	}
	collect(fields, validate.Struct(params.WithDefaults()), "tax")
}

func collect(fields map[string]string, err error, prefix string) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields[prefix] = err.Error()
		return
	}
	for _, fe := range verrs {
		path := fe.Namespace()
		if idx := strings.Index(path, "."); idx >= 0 {
			path = path[idx+1:]
		}
		fields[prefix+"."+path] = message(fe)
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "scale":
		return "must have at most " + fe.Param() + " decimal places"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gstpercent":
		return "must be one of " + formatSet(AllowedGSTPercents)
	case "tdspercent":
		return "must be one of " + formatSet(AllowedTDSPercents)
	case "tcspercent":
		return "must be one of " + formatSet(AllowedTCSPercents)
	default:
		return "is invalid"
	}
}

func formatSet(set []float64) string {
	parts := make([]string, len(set))
	for i, v := range set {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}
