package products

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Filter returns the products whose name contains term, ignoring case.
// A blank term matches everything. The input slice is never modified.
func Filter(items []Product, term string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]Product, 0, len(items))
	for _, p := range items {
		if term == "" || strings.Contains(strings.ToLower(p.Name), term) {
			out = append(out, p)
		}
	}
	return out
}

// Summary aggregates a set of products for display.
type Summary struct {
	Count     int             `json:"count"`
	Purchased int             `json:"purchased"`
	Total     decimal.Decimal `json:"total"`
	Remaining decimal.Decimal `json:"remaining"`
}

// Summarize totals the given products. Money values are rounded to cents.
func Summarize(items []Product) Summary {
	total := decimal.Zero
	remaining := decimal.Zero
	purchased := 0
	for _, p := range items {
		price := decimal.NewFromFloat(p.TotalPrice)
		total = total.Add(price)
		if p.Purchased {
			purchased++
		} else {
			remaining = remaining.Add(price)
		}
	}
	return Summary{
		Count:     len(items),
		Purchased: purchased,
		Total:     total.Round(2),
		Remaining: remaining.Round(2),
	}
}
