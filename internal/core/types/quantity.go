package types

import "fmt"

// Quantity is a signed fixed-point quantity with the same scale as Price.
// Multiplying two Quantities rescales the product by the scale factor so
// that the result stays in the same fixed-point representation.
type Quantity struct {
	raw int64
}

// NewQuantity builds a Quantity from an integer part and a fractional part
// expressed in scale units.
func NewQuantity(integer, fractional int64) Quantity {
	return Quantity{raw: integer*scale + fractional}
}

// QuantityFromRaw wraps a raw scaled integer directly.
func QuantityFromRaw(raw int64) Quantity {
	return Quantity{raw: raw}
}

// QuantityFromFloat64 rounds a float64 to the nearest representable Quantity.
func QuantityFromFloat64(v float64) Quantity {
	return Quantity{raw: int64(v*scale + signOf(v)*0.5)}
}

// Raw returns the underlying scaled integer.
func (q Quantity) Raw() int64 { return q.raw }

// Float64 converts back to a floating point approximation.
func (q Quantity) Float64() float64 { return float64(q.raw) / scale }

// Add returns q + r.
func (q Quantity) Add(r Quantity) Quantity { return Quantity{raw: q.raw + r.raw} }

// Sub returns q - r.
func (q Quantity) Sub(r Quantity) Quantity { return Quantity{raw: q.raw - r.raw} }

// Mul returns q * r rescaled by the fixed-point scale, so that
// (10.0 * 2.0) == 20.0 rather than 200000.0.
func (q Quantity) Mul(r Quantity) Quantity { return Quantity{raw: (q.raw * r.raw) / scale} }

// Less reports whether q < r.
func (q Quantity) Less(r Quantity) bool { return q.raw < r.raw }

// Greater reports whether q > r.
func (q Quantity) Greater(r Quantity) bool { return q.raw > r.raw }

// Equal reports whether q == r.
func (q Quantity) Equal(r Quantity) bool { return q.raw == r.raw }

// IsZero reports whether q is exactly zero.
func (q Quantity) IsZero() bool { return q.raw == 0 }

// String renders "integer.fractional" matching the original engine's
// Display implementation.
func (q Quantity) String() string {
	integer := q.raw / scale
	fractional := q.raw % scale
	if fractional < 0 {
		fractional = -fractional
	}
	return fmt.Sprintf("%d.%04d", integer, fractional)
}
