// Package pricing computes cart totals. It is pure: the same lines always
// produce the same summary and nothing here touches storage or the network.
package pricing

import "errors"

const (
	// Orders at or above this subtotal ship for free.
	FreeShippingThreshold int64 = 500
	ShippingFee           int64 = 50
)

var ErrInvalidLine = errors.New("line item has negative price or quantity")

// Line is one priced cart entry.
type Line struct {
	UnitPrice int64
	Quantity  int
}

// Summary aggregates the computed components in whole rupees.
type Summary struct {
	Subtotal int64
	Shipping int64
	Total    int64
}

// Compute calculates subtotal, shipping fee and grand total for the given
// lines. Negative prices or quantities are rejected before any arithmetic.
func Compute(lines []Line) (Summary, error) {
	var subtotal int64
	for _, l := range lines {
		if l.UnitPrice < 0 || l.Quantity < 0 {
			return Summary{}, ErrInvalidLine
		}
		subtotal += l.UnitPrice * int64(l.Quantity)
	}

	shipping := ShippingFee
	if subtotal >= FreeShippingThreshold {
		shipping = 0
	}

	return Summary{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal + shipping,
	}, nil
}
