// Package pricing computes quotation and sales order totals: line totals with
// process charges, the base amount, GST and TDS/TCS withholding, remittance
// charges and the receivable amount in the transaction currency.
//
// Every function in this package is pure. Callers validate inputs with
// Validate before computing; the calculators themselves never fail.
package pricing

import "strings"

// TaxMode selects which withholding applies to a document.
type TaxMode string

const (
	// TaxModeTDS withholds tax at source, reducing the amount received.
	TaxModeTDS TaxMode = "TDS"
	// TaxModeTCS collects tax at source on top of the base amount.
	TaxModeTCS TaxMode = "TCS"
)

// Currency is the transaction currency of a document.
type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// DomesticCountry is the only jurisdiction where GST and TDS/TCS apply.
const DomesticCountry = "India"

// Allowed percentage sets offered on quotation and order forms.
var (
	AllowedGSTPercents = []float64{0, 5, 12, 18, 28}
	AllowedTDSPercents = []float64{1, 2, 5, 10}
	AllowedTCSPercents = []float64{0.1, 0.5, 1, 2}
)

// ProcessCharge is an operation billed on top of a line item, e.g. a
// machining or plating step. Its quantity is independent of the item quantity.
type ProcessCharge struct {
	ProcessID *int64  `json:"process_id,omitempty"`
	Name      string  `json:"name" validate:"max=200"`
	UnitCost  float64 `json:"unit_cost" validate:"gte=0,scale=2"`
	Quantity  int     `json:"quantity" validate:"gte=1"`

	ProcessTotal float64 `json:"process_total"`
}

// LineItem is one row of a quotation or sales order.
type LineItem struct {
	ItemID          *int64          `json:"item_id,omitempty"`
	Name            string          `json:"name" validate:"max=200"`
	Quantity        float64         `json:"quantity" validate:"gt=0,scale=4"`
	UnitRate        float64         `json:"unit_rate" validate:"gte=0,scale=2"`
	DiscountPercent float64         `json:"discount_percent" validate:"gte=0,lte=100,scale=2"`
	Processes       []ProcessCharge `json:"processes,omitempty" validate:"dive"`

	LineNet        float64 `json:"line_net"`
	ProcessesTotal float64 `json:"processes_total"`
	LineTotal      float64 `json:"line_total"`
}

// CustomerTaxProfile is the part of a customer record the tax rules need.
type CustomerTaxProfile struct {
	Country string `json:"country"`
	State   string `json:"state"`
}

// Domestic reports whether domestic taxes apply to the customer. A nil
// profile (no customer selected) is never domestic.
func (c *CustomerTaxProfile) Domestic() bool {
	if c == nil {
		return false
	}
	return IsDomestic(c.Country)
}

// IntraState reports whether the customer is billed from within the seller's
// home state. It only labels the GST amount (CGST+SGST vs IGST); the amount
// itself is always computed as one combined figure.
func (c *CustomerTaxProfile) IntraState(sellerState string) bool {
	if !c.Domestic() || strings.TrimSpace(sellerState) == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(c.State), strings.TrimSpace(sellerState))
}

// IsDomestic accepts the country name as stored by the customer master or
// its ISO 3166 alpha-2 code.
func IsDomestic(country string) bool {
	country = strings.TrimSpace(country)
	return strings.EqualFold(country, DomesticCountry) || strings.EqualFold(country, "IN")
}

// TaxParameters configures one computation.
type TaxParameters struct {
	GSTPercent        float64  `json:"gst_percent" validate:"gstpercent"`
	TaxMode           TaxMode  `json:"tax_mode" validate:"oneof=TDS TCS"`
	TDSPercent        float64  `json:"tds_percent"`
	TCSPercent        float64  `json:"tcs_percent"`
	RemittanceCharges float64  `json:"remittance_charges" validate:"gte=0,scale=2"`
	Currency          Currency `json:"currency" validate:"oneof=INR USD EUR"`
	ExchangeRate      float64  `json:"exchange_rate" validate:"gt=0,scale=6"`
}

// WithDefaults fills the fields a form leaves blank: TDS mode, INR and an
// exchange rate of 1.
func (p TaxParameters) WithDefaults() TaxParameters {
	if p.TaxMode == "" {
		p.TaxMode = TaxModeTDS
	}
	if p.Currency == "" {
		p.Currency = CurrencyINR
	}
	if p.ExchangeRate == 0 {
		p.ExchangeRate = 1
	}
	return p
}

// TaxBreakdown holds the tax amounts derived from a base amount.
type TaxBreakdown struct {
	GSTAmount float64 `json:"gst_amount"`
	TDSAmount float64 `json:"tds_amount"`
	TCSAmount float64 `json:"tcs_amount"`
}

// Result is the output of a full pricing run.
type Result struct {
	Lines             []LineItem `json:"lines"`
	BaseAmount        float64    `json:"base_amount"`
	GSTAmount         float64    `json:"gst_amount"`
	TDSAmount         float64    `json:"tds_amount"`
	TCSAmount         float64    `json:"tcs_amount"`
	RemittanceCharges float64    `json:"remittance_charges"`
	QuotationTotal    float64    `json:"quotation_total"`
	InvoiceTotal      float64    `json:"invoice_total"`
	ReceivableAmount  float64    `json:"receivable_amount"`
	Currency          Currency   `json:"currency"`
	ExchangeRate      float64    `json:"exchange_rate"`
}
