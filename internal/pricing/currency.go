package pricing

// Convert expresses a total in the transaction currency at the given rate.
func Convert(total, exchangeRate float64) float64 {
	return total * exchangeRate
}
