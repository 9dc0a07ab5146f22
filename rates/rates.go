// Package rates models interest rates together with their compounding rule.
package rates

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/qlgo/daycount"
	"github.com/meenmo/qlgo/schedule"
)

// Compounding is the rule turning a rate into a growth factor.
type Compounding int

const (
	Simple Compounding = iota
	Compounded
	Continuous
	SimpleThenCompounded
)

func (c Compounding) String() string {
	switch c {
	case Simple:
		return "Simple"
	case Compounded:
		return "Compounded"
	case Continuous:
		return "Continuous"
	case SimpleThenCompounded:
		return "SimpleThenCompounded"
	default:
		return fmt.Sprintf("Compounding(%d)", int(c))
	}
}

// InterestRate is a rate with its day counter, compounding and frequency.
// Rate is a decimal (0.025 == 2.5%).
type InterestRate struct {
	Rate        float64
	DayCounter  daycount.DayCounter
	Compounding Compounding
	Frequency   schedule.Frequency
}

// New validates the frequency against the compounding rule.
func New(rate float64, dc daycount.DayCounter, comp Compounding, freq schedule.Frequency) (InterestRate, error) {
	if dc == nil {
		return InterestRate{}, fmt.Errorf("rates.New: day counter is required")
	}
	if (comp == Compounded || comp == SimpleThenCompounded) && freq <= 0 {
		return InterestRate{}, fmt.Errorf("rates.New: %s compounding needs a positive frequency, got %s", comp, freq)
	}
	return InterestRate{Rate: rate, DayCounter: dc, Compounding: comp, Frequency: freq}, nil
}

// CompoundFactor is the growth of one unit over t years.
func (r InterestRate) CompoundFactor(t float64) float64 {
	f := float64(r.Frequency)
	switch r.Compounding {
	case Simple:
		return 1 + r.Rate*t
	case Compounded:
		return math.Pow(1+r.Rate/f, f*t)
	case Continuous:
		return math.Exp(r.Rate * t)
	case SimpleThenCompounded:
		if t <= 1/f {
			return 1 + r.Rate*t
		}
		return math.Pow(1+r.Rate/f, f*t)
	default:
		return math.NaN()
	}
}

// DiscountFactor is 1 / CompoundFactor(t).
func (r InterestRate) DiscountFactor(t float64) float64 {
	return 1 / r.CompoundFactor(t)
}

// DiscountFactorBetween measures t with the rate's day counter.
func (r InterestRate) DiscountFactorBetween(d1, d2 time.Time) float64 {
	return r.DiscountFactor(r.DayCounter.YearFraction(d1, d2))
}

// DerivativeOfDiscount is d(DiscountFactor)/d(Rate) at t, used by yield solvers.
func (r InterestRate) DerivativeOfDiscount(t float64) float64 {
	f := float64(r.Frequency)
	df := r.DiscountFactor(t)
	switch r.Compounding {
	case Simple:
		return -t * df * df
	case Compounded:
		return -t * df / (1 + r.Rate/f)
	case Continuous:
		return -t * df
	case SimpleThenCompounded:
		if t <= 1/f {
			return -t * df * df
		}
		return -t * df / (1 + r.Rate/f)
	default:
		return math.NaN()
	}
}

// ImpliedRate returns the rate under the given rule that grows one unit to
// compound over t years.
func ImpliedRate(compound float64, dc daycount.DayCounter, comp Compounding, freq schedule.Frequency, t float64) (InterestRate, error) {
	if compound <= 0 {
		return InterestRate{}, fmt.Errorf("rates.ImpliedRate: positive compound factor required, got %g", compound)
	}
	if t <= 0 {
		return InterestRate{}, fmt.Errorf("rates.ImpliedRate: positive time required, got %g", t)
	}
	f := float64(freq)
	var r float64
	switch comp {
	case Simple:
		r = (compound - 1) / t
	case Compounded:
		r = (math.Pow(compound, 1/(f*t)) - 1) * f
	case Continuous:
		r = math.Log(compound) / t
	case SimpleThenCompounded:
		if t <= 1/f {
			r = (compound - 1) / t
		} else {
			r = (math.Pow(compound, 1/(f*t)) - 1) * f
		}
	default:
		return InterestRate{}, fmt.Errorf("rates.ImpliedRate: unknown compounding %s", comp)
	}
	return New(r, dc, comp, freq)
}

func (r InterestRate) String() string {
	name := "no day counter"
	if r.DayCounter != nil {
		name = r.DayCounter.Name()
	}
	return fmt.Sprintf("%.6f%% %s %s %s", r.Rate*100, name, r.Compounding, r.Frequency)
}
