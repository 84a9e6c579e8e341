package pricing

import "math"

// Round2 rounds to two decimals, sending exact halves toward +Inf. Values are
// rounded as their binary float representation, so 1.005 yields 1.00, the
// same result browser-side form previews produce.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}
