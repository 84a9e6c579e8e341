package pricing

// ComputeTaxes derives GST and the active withholding from the base amount.
// Foreign customers, or no customer at all, pay no domestic tax. Only the
// withholding selected by TaxMode is non-zero. Each amount is rounded to
// two decimals.
func ComputeTaxes(base float64, customer *CustomerTaxProfile, params TaxParameters) TaxBreakdown {
	if !customer.Domestic() {
		return TaxBreakdown{}
	}
	taxes := TaxBreakdown{
		GSTAmount: Round2(base * params.GSTPercent / 100),
	}
	switch params.TaxMode {
	case TaxModeTDS:
		taxes.TDSAmount = Round2(base * params.TDSPercent / 100)
	case TaxModeTCS:
		taxes.TCSAmount = Round2(base * params.TCSPercent / 100)
	}
	return taxes
}

// QuotationTotal combines the base amount with taxes and remittance charges.
// TDS is subtracted; GST, TCS and remittance charges are added.
func QuotationTotal(base float64, taxes TaxBreakdown, remittance float64) float64 {
	return base + taxes.GSTAmount + taxes.TCSAmount - taxes.TDSAmount + remittance
}
