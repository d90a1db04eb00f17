// Package pricing owns every money computation on the checkout path.
// Amounts are stored and served as float64 to stay compatible with the
// persisted documents, but all arithmetic goes through decimals so
// totals round deterministically to two places.
package pricing

import (
	"github.com/shopspring/decimal"

	"sugarsphere/internal/models"
)

const Currency = "INR"

// FreeShipping is the current shipping policy.
const FreeShipping = 0.0

// taxRate is 18% GST applied to the subtotal.
var taxRate = decimal.NewFromFloat(0.18)

// Totals is the server-computed money breakdown for a set of lines.
// Client-submitted totals are never trusted; this is the only source.
type Totals struct {
	Subtotal     float64
	Tax          float64
	ShippingCost float64
	Total        float64
}

// LineSubtotal returns price * quantity rounded to two places.
func LineSubtotal(price float64, quantity int) float64 {
	return decimal.NewFromFloat(price).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2).
		InexactFloat64()
}

// Compute derives subtotal, tax and total from the line snapshots.
func Compute(lines []models.OrderLine) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(
			decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))),
		)
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(taxRate).Round(2)
	shipping := decimal.NewFromFloat(FreeShipping)
	total := subtotal.Add(tax).Add(shipping).Round(2)

	return Totals{
		Subtotal:     subtotal.InexactFloat64(),
		Tax:          tax.InexactFloat64(),
		ShippingCost: shipping.InexactFloat64(),
		Total:        total.InexactFloat64(),
	}
}

// Paise converts a rupee amount to integer minor units, the format the
// gateway expects.
func Paise(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
