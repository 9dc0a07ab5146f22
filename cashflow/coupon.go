package cashflow

import (
	"time"

	"github.com/meenmo/qlgo/daycount"
	"github.com/meenmo/qlgo/event"
	"github.com/meenmo/qlgo/patterns"
	"github.com/meenmo/qlgo/rates"
	"github.com/meenmo/qlgo/utils"
)

// Coupon is a cashflow that accrues over a period.
type Coupon interface {
	CashFlow
	Nominal() float64
	Rate() float64
	DayCounter() daycount.DayCounter
	AccrualStartDate() time.Time
	AccrualEndDate() time.Time
	AccrualPeriod() float64
	AccrualDays() int
	AccruedAmount(d time.Time) float64
}

// FixedRateCoupon pays interest at a fixed rate on a nominal.
type FixedRateCoupon struct {
	event.Base
	nominal float64
	rate    rates.InterestRate
	start   time.Time
	end     time.Time
}

// NewFixedRateCoupon accrues rate on nominal from start to end and pays on payment.
func NewFixedRateCoupon(payment time.Time, nominal float64, rate rates.InterestRate, start, end time.Time) *FixedRateCoupon {
	return &FixedRateCoupon{
		Base:    event.NewBase(payment),
		nominal: nominal,
		rate:    rate,
		start:   utils.DateOnly(start),
		end:     utils.DateOnly(end),
	}
}

func (c *FixedRateCoupon) Nominal() float64                 { return c.nominal }
func (c *FixedRateCoupon) Rate() float64                    { return c.rate.Rate }
func (c *FixedRateCoupon) InterestRate() rates.InterestRate { return c.rate }
func (c *FixedRateCoupon) DayCounter() daycount.DayCounter  { return c.rate.DayCounter }
func (c *FixedRateCoupon) AccrualStartDate() time.Time      { return c.start }
func (c *FixedRateCoupon) AccrualEndDate() time.Time        { return c.end }
func (c *FixedRateCoupon) AccrualDays() int                 { return c.rate.DayCounter.DayCount(c.start, c.end) }
func (c *FixedRateCoupon) AccrualPeriod() float64           { return c.rate.DayCounter.YearFraction(c.start, c.end) }

func (c *FixedRateCoupon) Amount() float64 {
	return c.nominal * (c.rate.CompoundFactor(c.AccrualPeriod()) - 1)
}

// AccruedAmount is the interest earned from the accrual start up to d. It is
// zero up to the accrual start and after the payment date; on the payment
// date the full accrual is still reported.
func (c *FixedRateCoupon) AccruedAmount(d time.Time) float64 {
	d = utils.DateOnly(d)
	if !d.After(c.start) || d.After(c.Date()) {
		return 0
	}
	if d.After(c.end) {
		d = c.end
	}
	t := c.rate.DayCounter.YearFraction(c.start, d)
	return c.nominal * (c.rate.CompoundFactor(t) - 1)
}

func (c *FixedRateCoupon) Accept(v patterns.AcyclicVisitor) error {
	return event.Wrap(patterns.Dispatch(v,
		patterns.As[*FixedRateCoupon](c),
		patterns.As[Coupon](c),
		patterns.As[CashFlow](c),
		patterns.As[event.Event](c),
	))
}
