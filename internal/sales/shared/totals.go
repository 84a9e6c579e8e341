package shared

import (
	"github.com/odyssey-erp/wms/internal/pricing"
)

// Totals are the header amounts persisted with a quotation or sales order.
// They are always produced by pricing.Compute, never edited directly.
type Totals struct {
	BaseAmount        float64 `json:"base_amount"`
	GSTAmount         float64 `json:"gst_amount"`
	TDSAmount         float64 `json:"tds_amount"`
	TCSAmount         float64 `json:"tcs_amount"`
	RemittanceCharges float64 `json:"remittance_charges"`
	TotalAmount       float64 `json:"total_amount"`
	ReceivableAmount  float64 `json:"receivable_amount"`
}

func TotalsFrom(res pricing.Result) Totals {
	return Totals{
		BaseAmount:        res.BaseAmount,
		GSTAmount:         res.GSTAmount,
		TDSAmount:         res.TDSAmount,
		TCSAmount:         res.TCSAmount,
		RemittanceCharges: res.RemittanceCharges,
		TotalAmount:       res.QuotationTotal,
		ReceivableAmount:  res.ReceivableAmount,
	}
}

// Priced is the outcome of pricing a document: its lines, totals and the
// normalised tax parameters actually applied.
type Priced struct {
	Lines  []Line
	Totals Totals
	Tax    pricing.TaxParameters
}

// Price runs the engine over items and maps the result for persistence.
func Price(items []pricing.LineItem, customer *pricing.CustomerTaxProfile, params pricing.TaxParameters) Priced {
	res := pricing.Compute(items, customer, params)
	tax := params.WithDefaults()
	return Priced{
		Lines:  LinesFromPricing(res.Lines),
		Totals: TotalsFrom(res),
		Tax:    tax,
	}
}
