// Package types implements the fixed-point scalars that flow through the
// hot path: Price, Quantity and Timestamp. All three are value types backed
// by a single machine word so they copy for free through the SPSC queue.
package types

import "fmt"

// scale is the fixed number of fractional digits carried by Price and
// Quantity: four digits, i.e. a denominator of 10,000.
const scale = 10_000

// Price is a signed fixed-point price with a scale of 10,000 (four
// fractional digits). The raw representation uniquely determines the value;
// there is no rounding except at explicit conversion to/from float64.
type Price struct {
	raw int64
}

// NewPrice builds a Price from an integer part and a fractional part
// expressed in scale units (e.g. NewPrice(100, 1234) == 100.1234).
func NewPrice(integer, fractional int64) Price {
	return Price{raw: integer*scale + fractional}
}

// PriceFromRaw wraps a raw scaled integer directly.
func PriceFromRaw(raw int64) Price {
	return Price{raw: raw}
}

// PriceFromFloat64 rounds a float64 to the nearest representable Price.
func PriceFromFloat64(v float64) Price {
	return Price{raw: int64(v*scale + signOf(v)*0.5)}
}

// Raw returns the underlying scaled integer.
func (p Price) Raw() int64 { return p.raw }

// Float64 converts back to a floating point approximation.
func (p Price) Float64() float64 { return float64(p.raw) / scale }

// Add returns p + q.
func (p Price) Add(q Price) Price { return Price{raw: p.raw + q.raw} }

// Sub returns p - q.
func (p Price) Sub(q Price) Price { return Price{raw: p.raw - q.raw} }

// Less reports whether p < q.
func (p Price) Less(q Price) bool { return p.raw < q.raw }

// Greater reports whether p > q.
func (p Price) Greater(q Price) bool { return p.raw > q.raw }

// Equal reports whether p == q.
func (p Price) Equal(q Price) bool { return p.raw == q.raw }

// String renders "integer.fractional" matching the original engine's
// Display implementation.
func (p Price) String() string {
	integer := p.raw / scale
	fractional := p.raw % scale
	if fractional < 0 {
		fractional = -fractional
	}
	return fmt.Sprintf("%d.%04d", integer, fractional)
}

func signOf(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
