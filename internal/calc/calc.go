// Package calc holds the pure invoice arithmetic. Every entry point degrades
// malformed input to zero instead of failing, so an in-progress edit (a half
// typed quantity, an empty tax field) never blocks recomputation.
package calc

import (
	"math"
	"strconv"
	"strings"

	"github.com/billfold/billfold/internal/invoice"
)

// Totals is the result of a full recomputation.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// sanitize maps NaN and infinities to 0.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Number parses a user-supplied numeric string, returning 0 for anything that
// does not parse cleanly. This is the single parse-or-default helper backing
// the zero-fallback policy.
func Number(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return sanitize(v)
}

// NumberOr parses like Number but substitutes fallback when the input is
// absent or unparseable. A clean zero stays zero.
func NumberOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// ItemTotal returns quantity * price.
func ItemTotal(quantity, price float64) float64 {
	return sanitize(sanitize(quantity) * sanitize(price))
}

// Subtotal sums the stored line totals. An empty collection yields 0.
func Subtotal(items []invoice.LineItem) float64 {
	var sum float64
	for _, item := range items {
		sum += sanitize(item.Total)
	}
	return sum
}

// Tax returns the tax amount for a subtotal at a percentage rate.
func Tax(subtotal, rate float64) float64 {
	return sanitize(subtotal) * sanitize(rate) / 100
}

// GrandTotal combines subtotal, tax and discount. The total is clamped at 0
// so an oversized discount can never yield a negative invoice.
func GrandTotal(subtotal, taxRate, discount float64) Totals {
	subtotal = sanitize(subtotal)
	discount = sanitize(discount)
	tax := Tax(subtotal, taxRate)
	total := subtotal + tax - discount
	if total < 0 {
		total = 0
	}
	return Totals{Subtotal: subtotal, Tax: tax, Discount: discount, Total: total}
}

// RecalculateAll recomputes every line total in place from its current
// quantity and price, then grand-totals the fresh subtotal. All mutation
// paths route through here before the draft's totals are considered valid.
func RecalculateAll(inv *invoice.Invoice) Totals {
	for i := range inv.Items {
		inv.Items[i].Total = ItemTotal(inv.Items[i].Quantity, inv.Items[i].Price)
	}
	return GrandTotal(Subtotal(inv.Items), inv.TaxRate, inv.Discount)
}
