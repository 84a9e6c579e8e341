package export

import (
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// formatAmount renders an amount with its ISO code and thousands
// separators, e.g. "INR 1,130.00". Unknown codes are printed as given.
func formatAmount(code string, v float64) string {
	if unit, err := currency.ParseISO(strings.TrimSpace(code)); err == nil {
		code = unit.String()
	}
	return printer.Sprintf("%s %.2f", code, v)
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.2f", v)
}

func formatPercent(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(printer.Sprintf("%.2f", v), "0"), ".") + "%"
}
