// Package termstructure provides discount curves that recalculate lazily
// when the quotes they are built from move.
package termstructure

import (
	"errors"
	"math"
	"time"

	"github.com/meenmo/qlgo/daycount"
	"github.com/meenmo/qlgo/patterns"
)

var (
	// ErrBeforeReference is returned for dates before the curve's reference date.
	ErrBeforeReference = errors.New("termstructure: date before reference date")
	// ErrNotCalculated is returned when a curve frozen before its first
	// calculation is asked for discount factors.
	ErrNotCalculated = errors.New("termstructure: curve not calculated")
)

// YieldTermStructure gives discount factors from its reference date.
type YieldTermStructure interface {
	patterns.Observable
	ReferenceDate() time.Time
	DayCounter() daycount.DayCounter
	DiscountFactor(d time.Time) (float64, error)
}

// Handle is a relinkable curve reference.
type Handle = patterns.Handle[YieldTermStructure]

// NewHandle links a handle to ts.
func NewHandle(ts YieldTermStructure) *Handle {
	return patterns.NewHandle[YieldTermStructure](ts)
}

// ZeroRate returns the continuously compounded zero rate to d.
func ZeroRate(ts YieldTermStructure, d time.Time) (float64, error) {
	df, err := ts.DiscountFactor(d)
	if err != nil {
		return 0, err
	}
	t := ts.DayCounter().YearFraction(ts.ReferenceDate(), d)
	if t <= 0 {
		return 0, nil
	}
	return -math.Log(df) / t, nil
}

// DiscountFactor dereferences h and reads a discount factor.
func DiscountFactor(h *Handle, d time.Time) (float64, error) {
	ts, err := h.Link()
	if err != nil {
		return 0, err
	}
	return ts.DiscountFactor(d)
}
