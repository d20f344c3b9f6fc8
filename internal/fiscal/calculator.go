// Package fiscal computes per-line tax figures under the v4.4 precision
// rules: unit-level figures carry 5 decimal places, document-level totals 2,
// and every rounding step is half-away-from-zero.
//
// The calculator is deliberately permissive about economics: it does not
// reject discounts exceeding the subtotal, so a line can legitimately
// produce a negative net total (return-adjustment lines rely on this).
// Validating economic sanity is the caller's job.
package fiscal

import (
	"github.com/shopspring/decimal"
)

// Mandated precision for each figure class.
const (
	UnitPlaces  int32 = 5
	TotalPlaces int32 = 2
)

// DefaultTaxRate is the standard VAT rate applied when the input carries no
// explicit rate.
var DefaultTaxRate = decimal.NewFromFloat(0.13)

// LineInput describes one invoice line before calculation.
type LineInput struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	// TaxIncluded marks IVI pricing: the unit price already contains tax
	// and the base price is backed out by dividing by (1 + rate).
	TaxIncluded bool
	// TaxRate is the fractional rate (0.13 for 13%). Zero means DefaultTaxRate.
	TaxRate decimal.Decimal
	// Discount is an absolute amount subtracted from the line subtotal.
	Discount decimal.Decimal
}

// LineCalculation is the calculator's result for one line. All monetary
// figures are independently rounded to 5 decimal places; each figure feeds
// the next computation already rounded, matching the authority's unit-level
// precision requirement.
type LineCalculation struct {
	BaseUnitPrice decimal.Decimal
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	NetSubtotal   decimal.Decimal
	TaxAmount     decimal.Decimal
	Total         decimal.Decimal
}

// CalculateLine computes the tax base, discount effect, tax amount, and
// total for one line. A zero quantity yields an all-zero result without
// error.
func CalculateLine(in LineInput) LineCalculation {
	rate := in.TaxRate
	if rate.IsZero() {
		rate = DefaultTaxRate
	}

	base := in.UnitPrice
	if in.TaxIncluded {
		base = in.UnitPrice.Div(decimal.NewFromInt(1).Add(rate))
	}
	base = Round(base, UnitPlaces)

	subtotal := Round(in.Quantity.Mul(base), UnitPlaces)
	net := Round(subtotal.Sub(in.Discount), UnitPlaces)
	tax := Round(net.Mul(rate), UnitPlaces)
	total := Round(net.Add(tax), UnitPlaces)

	return LineCalculation{
		BaseUnitPrice: base,
		Subtotal:      subtotal,
		Discount:      in.Discount,
		NetSubtotal:   net,
		TaxAmount:     tax,
		Total:         total,
	}
}

// Round rounds to the given number of decimal places with ties away from
// zero, the rule mandated for both 5-decimal unit figures and 2-decimal
// document totals.
func Round(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// RoundTotal rounds a document-level figure to the presentation precision.
func RoundTotal(d decimal.Decimal) decimal.Decimal {
	return Round(d, TotalPlaces)
}
