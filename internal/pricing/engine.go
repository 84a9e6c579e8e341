package pricing

// Compute runs the full pipeline: line totals, base amount, taxes, totals and
// currency conversion. Blank parameters take the WithDefaults values. The
// input slice is not modified and the same input always yields the same
// result.
func Compute(items []LineItem, customer *CustomerTaxProfile, params TaxParameters) Result {
	params = params.WithDefaults()

	lines := ComputeLines(items)
	base := ComputeBaseAmount(lines)
	taxes := ComputeTaxes(base, customer, params)
	total := QuotationTotal(base, taxes, params.RemittanceCharges)

	return Result{
		Lines:             lines,
		BaseAmount:        base,
		GSTAmount:         taxes.GSTAmount,
		TDSAmount:         taxes.TDSAmount,
		TCSAmount:         taxes.TCSAmount,
		RemittanceCharges: params.RemittanceCharges,
		QuotationTotal:    total,
		InvoiceTotal:      total,
		ReceivableAmount:  Convert(total, params.ExchangeRate),
		Currency:          params.Currency,
		ExchangeRate:      params.ExchangeRate,
	}
}
