package currency

import "github.com/shopspring/decimal"

// RoundingType selects how Rounding treats the discarded digits.
type RoundingType int

const (
	RoundNone RoundingType = iota
	RoundUp
	RoundDown
	RoundClosest
)

// Rounding rounds amounts to a fixed number of decimal places.
type Rounding struct {
	Type      RoundingType
	Precision int32
}

func None() Rounding           { return Rounding{Type: RoundNone} }
func Up(p int32) Rounding      { return Rounding{Type: RoundUp, Precision: p} }
func Down(p int32) Rounding    { return Rounding{Type: RoundDown, Precision: p} }
func Closest(p int32) Rounding { return Rounding{Type: RoundClosest, Precision: p} }

// Apply rounds d. Up and Down move away from and towards zero.
func (r Rounding) Apply(d decimal.Decimal) decimal.Decimal {
	switch r.Type {
	case RoundUp:
		return d.RoundUp(r.Precision)
	case RoundDown:
		return d.RoundDown(r.Precision)
	case RoundClosest:
		return d.Round(r.Precision)
	default:
		return d
	}
}
