package cashflow

import (
	"fmt"

	"github.com/meenmo/qlgo/calendar"
	"github.com/meenmo/qlgo/daycount"
	"github.com/meenmo/qlgo/rates"
	"github.com/meenmo/qlgo/schedule"
)

// FixedRateLeg builds a leg of fixed-rate coupons over a schedule.
//
// Notionals and rates are given per period; when fewer values than periods
// are supplied the last one is repeated.
type FixedRateLeg struct {
	sched     *schedule.Schedule
	notionals []float64
	rates     []rates.InterestRate
	payCal    *calendar.Calendar
	payConv   calendar.BusinessDayConvention
	err       error
}

// NewFixedRateLeg starts a leg over s. Payments default to the schedule
// calendar with Following adjustment.
func NewFixedRateLeg(s *schedule.Schedule) *FixedRateLeg {
	return &FixedRateLeg{sched: s, payConv: calendar.Following}
}

func (b *FixedRateLeg) WithNotionals(notionals ...float64) *FixedRateLeg {
	b.notionals = notionals
	return b
}

// WithCouponRates sets simple annual coupon rates measured with dc.
func (b *FixedRateLeg) WithCouponRates(dc daycount.DayCounter, couponRates ...float64) *FixedRateLeg {
	b.rates = nil
	for _, r := range couponRates {
		ir, err := rates.New(r, dc, rates.Simple, schedule.Annual)
		if err != nil && b.err == nil {
			b.err = err
		}
		b.rates = append(b.rates, ir)
	}
	return b
}

func (b *FixedRateLeg) WithInterestRates(rs ...rates.InterestRate) *FixedRateLeg {
	b.rates = rs
	return b
}

func (b *FixedRateLeg) WithPaymentCalendar(cal calendar.Calendar) *FixedRateLeg {
	b.payCal = &cal
	return b
}

func (b *FixedRateLeg) WithPaymentAdjustment(conv calendar.BusinessDayConvention) *FixedRateLeg {
	b.payConv = conv
	return b
}

// Build returns one coupon per schedule period.
func (b *FixedRateLeg) Build() (Leg, error) {
	if b.err != nil {
		return nil, fmt.Errorf("FixedRateLeg.Build: %w", b.err)
	}
	if b.sched == nil || b.sched.Len() < 2 {
		return nil, fmt.Errorf("FixedRateLeg.Build: schedule with at least two dates is required")
	}
	periods := b.sched.Len() - 1
	if len(b.notionals) == 0 {
		return nil, fmt.Errorf("FixedRateLeg.Build: no notional given")
	}
	if len(b.notionals) > periods {
		return nil, fmt.Errorf("FixedRateLeg.Build: %d notionals for %d periods", len(b.notionals), periods)
	}
	if len(b.rates) == 0 {
		return nil, fmt.Errorf("FixedRateLeg.Build: no coupon rate given")
	}
	if len(b.rates) > periods {
		return nil, fmt.Errorf("FixedRateLeg.Build: %d coupon rates for %d periods", len(b.rates), periods)
	}

	cal := b.sched.Calendar()
	if b.payCal != nil {
		cal = *b.payCal
	}

	leg := make(Leg, 0, periods)
	for i := 0; i < periods; i++ {
		start, end := b.sched.Date(i), b.sched.Date(i+1)
		rate := nth(b.rates, i)
		if rate.DayCounter == nil {
			return nil, fmt.Errorf("FixedRateLeg.Build: coupon %d has no day counter", i)
		}
		leg = append(leg, NewFixedRateCoupon(cal.Adjust(end, b.payConv), nth(b.notionals, i), rate, start, end))
	}
	return leg, nil
}

func nth[T any](xs []T, i int) T {
	if i < len(xs) {
		return xs[i]
	}
	return xs[len(xs)-1]
}
