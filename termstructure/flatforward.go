package termstructure

import (
	"fmt"
	"time"

	"github.com/meenmo/qlgo/daycount"
	"github.com/meenmo/qlgo/patterns"
	"github.com/meenmo/qlgo/quote"
	"github.com/meenmo/qlgo/rates"
	"github.com/meenmo/qlgo/schedule"
	"github.com/meenmo/qlgo/utils"
)

// FlatForward is a curve with a single rate read from a quote.
type FlatForward struct {
	*patterns.LazyObject

	reference time.Time
	forward   *quote.Handle
	dc        daycount.DayCounter
	comp      rates.Compounding
	freq      schedule.Frequency

	rate rates.InterestRate
}

// NewFlatForward builds a curve whose rate follows the quote behind forward.
func NewFlatForward(reference time.Time, forward *quote.Handle, dc daycount.DayCounter,
	comp rates.Compounding, freq schedule.Frequency, opts ...patterns.Option) *FlatForward {
	ff := &FlatForward{
		reference: utils.DateOnly(reference),
		forward:   forward,
		dc:        dc,
		comp:      comp,
		freq:      freq,
	}
	opts = append([]patterns.Option{patterns.WithName("flat-forward")}, opts...)
	ff.LazyObject = patterns.NewLazyObject(ff.performCalculations, opts...)
	ff.Observe(forward)
	return ff
}

func (ff *FlatForward) performCalculations() error {
	v, err := quote.Value(ff.forward)
	if err != nil {
		return fmt.Errorf("FlatForward: %w", err)
	}
	r, err := rates.New(v, ff.dc, ff.comp, ff.freq)
	if err != nil {
		return fmt.Errorf("FlatForward: %w", err)
	}
	ff.rate = r
	return nil
}

func (ff *FlatForward) ReferenceDate() time.Time        { return ff.reference }
func (ff *FlatForward) DayCounter() daycount.DayCounter { return ff.dc }

// Rate returns the cached rate.
func (ff *FlatForward) Rate() (rates.InterestRate, error) {
	if err := ff.Calculate(); err != nil {
		return rates.InterestRate{}, err
	}
	if ff.rate.DayCounter == nil {
		return rates.InterestRate{}, fmt.Errorf("FlatForward: %w", ErrNotCalculated)
	}
	return ff.rate, nil
}

func (ff *FlatForward) DiscountFactor(d time.Time) (float64, error) {
	d = utils.DateOnly(d)
	if d.Before(ff.reference) {
		return 0, fmt.Errorf("FlatForward: %w: %s", ErrBeforeReference, d.Format(utils.DateLayout))
	}
	r, err := ff.Rate()
	if err != nil {
		return 0, err
	}
	return r.DiscountFactor(ff.dc.YearFraction(ff.reference, d)), nil
}
