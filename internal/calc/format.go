package calc

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrencySymbol is the glyph used when none is configured.
const DefaultCurrencySymbol = "₦"

var printer = message.NewPrinter(language.English)

// FormatCurrency renders an amount to two decimal places with thousands
// separators, prefixed by the currency glyph. Negative and NaN amounts render
// as zero, matching the zero-fallback policy.
func FormatCurrency(v float64, symbol string) string {
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		v = 0
	}
	return symbol + printer.Sprintf("%.2f", v)
}
