package pricing

// ComputeBaseAmount sums the computed line totals. No rounding is applied.
func ComputeBaseAmount(items []LineItem) float64 {
	var base float64
	for _, item := range items {
		base += item.LineTotal
	}
	return base
}
