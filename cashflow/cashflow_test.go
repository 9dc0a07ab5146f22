package cashflow_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/qlgo/calendar"
	"github.com/meenmo/qlgo/cashflow"
	"github.com/meenmo/qlgo/currency"
	"github.com/meenmo/qlgo/daycount"
	"github.com/meenmo/qlgo/patterns"
	"github.com/meenmo/qlgo/rates"
	"github.com/meenmo/qlgo/schedule"
	"github.com/meenmo/qlgo/utils"
)

func annualSchedule(t *testing.T, from, to time.Time) *schedule.Schedule {
	t.Helper()
	s, err := schedule.New(schedule.Params{
		Effective:   from,
		Termination: to,
		Tenor:       schedule.Period{Length: 1, Unit: schedule.Years},
		Calendar:    calendar.NullCalendar(),
		Rule:        schedule.Backward,
	})
	require.NoError(t, err)
	return s
}

func fivePercent(t *testing.T) rates.InterestRate {
	t.Helper()
	r, err := rates.New(0.05, daycount.Thirty360{}, rates.Simple, schedule.Annual)
	require.NoError(t, err)
	return r
}

func TestFixedRateCoupon_AmountAndAccrual(t *testing.T) {
	t.Parallel()

	start, end := utils.MustDate(2024, 1, 15), utils.MustDate(2025, 1, 15)
	c := cashflow.NewFixedRateCoupon(end, 100, fivePercent(t), start, end)

	assert.InDelta(t, 5.0, c.Amount(), 1e-12)
	assert.InDelta(t, 1.0, c.AccrualPeriod(), 1e-12)
	assert.Equal(t, 360, c.AccrualDays())
	assert.InDelta(t, 2.5, c.AccruedAmount(utils.MustDate(2024, 7, 15)), 1e-12)
	assert.Zero(t, c.AccruedAmount(start))
	assert.InDelta(t, 5.0, c.AccruedAmount(end), 1e-12, "full accrual on the payment date")
	assert.Zero(t, c.AccruedAmount(end.AddDate(0, 0, 1)))
	assert.Zero(t, c.AccruedAmount(utils.MustDate(2023, 6, 1)))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	d := utils.MustDate(2025, 1, 15)
	leg := cashflow.Leg{
		cashflow.NewFixedRateCoupon(d, 100, fivePercent(t), utils.MustDate(2024, 1, 15), d),
		cashflow.NewRedemption(100, d),
		cashflow.NewSimpleCashFlow(1.5, d),
	}

	got, err := cashflow.Classify(leg)
	require.NoError(t, err)
	assert.Len(t, got.Coupons, 1)
	assert.Len(t, got.Redemptions, 1)
	assert.Len(t, got.Others, 1)
	assert.Equal(t, 100.0, got.Redemptions[0].Amount())
	assert.Equal(t, 1.5, got.Others[0].Amount())
}

func TestAccept_VisitorErrors(t *testing.T) {
	t.Parallel()

	r := cashflow.NewRedemption(100, utils.MustDate(2025, 1, 15))
	assert.ErrorIs(t, r.Accept(nil), patterns.ErrInvalidVisitor)
	assert.ErrorIs(t, r.Accept(patterns.NewComposite()), patterns.ErrUnsupportedVisitor)

	var seen float64
	require.NoError(t, r.Accept(patterns.VisitorFunc[cashflow.CashFlow](func(cf cashflow.CashFlow) { seen = cf.Amount() })))
	assert.Equal(t, 100.0, seen)
}

func TestFixedRateLeg_Build(t *testing.T) {
	t.Parallel()

	s := annualSchedule(t, utils.MustDate(2024, 1, 15), utils.MustDate(2027, 1, 15))
	leg, err := cashflow.NewFixedRateLeg(s).
		WithNotionals(100, 50).
		WithCouponRates(daycount.Thirty360{}, 0.05).
		Build()
	require.NoError(t, err)
	require.Len(t, leg, 3)

	assert.InDelta(t, 5.0, leg[0].Amount(), 1e-12)
	assert.InDelta(t, 2.5, leg[1].Amount(), 1e-12)
	assert.InDelta(t, 2.5, leg[2].Amount(), 1e-12, "last notional repeats")
	assert.Equal(t, utils.MustDate(2027, 1, 15), leg[2].Date())

	start, err := cashflow.StartDate(leg)
	require.NoError(t, err)
	assert.Equal(t, utils.MustDate(2024, 1, 15), start)
	maturity, err := cashflow.MaturityDate(leg)
	require.NoError(t, err)
	assert.Equal(t, utils.MustDate(2027, 1, 15), maturity)
}

func TestFixedRateLeg_PaymentAdjustment(t *testing.T) {
	t.Parallel()

	// 2025-01-15 is a Wednesday
	holiday := utils.MustDate(2025, 1, 15)
	s := annualSchedule(t, utils.MustDate(2024, 1, 15), utils.MustDate(2026, 1, 15))
	leg, err := cashflow.NewFixedRateLeg(s).
		WithNotionals(100).
		WithCouponRates(daycount.Actual360{}, 0.03).
		WithPaymentCalendar(calendar.New("test", holiday)).
		WithPaymentAdjustment(calendar.Following).
		Build()
	require.NoError(t, err)
	assert.Equal(t, utils.MustDate(2025, 1, 16), leg[0].Date())

	c := leg[0].(cashflow.Coupon)
	assert.Equal(t, holiday, c.AccrualEndDate(), "accrual uses unadjusted schedule dates")
}

func TestFixedRateLeg_Errors(t *testing.T) {
	t.Parallel()

	s := annualSchedule(t, utils.MustDate(2024, 1, 15), utils.MustDate(2026, 1, 15))

	_, err := cashflow.NewFixedRateLeg(s).WithCouponRates(daycount.Actual360{}, 0.03).Build()
	assert.ErrorContains(t, err, "no notional")

	_, err = cashflow.NewFixedRateLeg(s).WithNotionals(100).Build()
	assert.ErrorContains(t, err, "no coupon rate")

	_, err = cashflow.NewFixedRateLeg(s).WithNotionals(100, 100, 100).WithCouponRates(daycount.Actual360{}, 0.03).Build()
	assert.ErrorContains(t, err, "3 notionals for 2 periods")

	_, err = cashflow.NewFixedRateLeg(s).WithNotionals(100).WithCouponRates(nil, 0.03).Build()
	assert.Error(t, err)

	_, err = cashflow.NewFixedRateLeg(nil).Build()
	assert.Error(t, err)
}

func TestCashFlowDates(t *testing.T) {
	t.Parallel()

	s := annualSchedule(t, utils.MustDate(2024, 1, 15), utils.MustDate(2027, 1, 15))
	leg, err := cashflow.NewFixedRateLeg(s).WithNotionals(100).WithCouponRates(daycount.Thirty360{}, 0.05).Build()
	require.NoError(t, err)

	d := utils.MustDate(2025, 7, 15)
	prev, ok := cashflow.PreviousCashFlowDate(leg, d)
	require.True(t, ok)
	assert.Equal(t, utils.MustDate(2025, 1, 15), prev)
	next, ok := cashflow.NextCashFlowDate(leg, d)
	require.True(t, ok)
	assert.Equal(t, utils.MustDate(2026, 1, 15), next)

	// a payment date counts as occurred
	next, ok = cashflow.NextCashFlowDate(leg, utils.MustDate(2025, 1, 15))
	require.True(t, ok)
	assert.Equal(t, utils.MustDate(2026, 1, 15), next)

	_, ok = cashflow.NextCashFlowDate(leg, utils.MustDate(2027, 1, 15))
	assert.False(t, ok)
	_, ok = cashflow.PreviousCashFlowDate(leg, utils.MustDate(2024, 6, 1))
	assert.False(t, ok)

	assert.InDelta(t, 2.5, cashflow.AccruedAmount(leg, d), 1e-12)
	// on a coupon date the paid coupon no longer counts
	assert.Zero(t, cashflow.AccruedAmount(leg, utils.MustDate(2025, 1, 15)))
}

// flatCurve discounts continuously at a constant rate on Actual/365.
type flatCurve struct {
	ref  time.Time
	rate float64
}

func (c flatCurve) DiscountFactor(d time.Time) (float64, error) {
	return math.Exp(-c.rate * daycount.Actual365Fixed{}.YearFraction(c.ref, d)), nil
}

func TestNPV(t *testing.T) {
	t.Parallel()

	ref := utils.MustDate(2024, 1, 1)
	curve := flatCurve{ref: ref, rate: 0.03}
	leg := cashflow.Leg{
		cashflow.NewSimpleCashFlow(10, ref.AddDate(0, 0, 365)),
		cashflow.NewRedemption(100, ref.AddDate(0, 0, 730)),
	}

	npv, err := cashflow.NPV(leg, curve, ref, ref)
	require.NoError(t, err)
	assert.InDelta(t, 10*math.Exp(-0.03)+100*math.Exp(-0.06), npv, 1e-10)

	// settled after the first flow, valued as of the settlement date
	settle := ref.AddDate(0, 0, 365)
	npv, err = cashflow.NPV(leg, curve, settle, settle)
	require.NoError(t, err)
	assert.InDelta(t, 100*math.Exp(-0.03), npv, 1e-10)

	npv, err = cashflow.NPV(leg, curve, ref.AddDate(5, 0, 0), ref)
	require.NoError(t, err)
	assert.Zero(t, npv)
}

func TestYield_RoundTrip(t *testing.T) {
	t.Parallel()

	s := annualSchedule(t, utils.MustDate(2024, 1, 15), utils.MustDate(2029, 1, 15))
	leg, err := cashflow.NewFixedRateLeg(s).WithNotionals(100).WithCouponRates(daycount.Thirty360{}, 0.05).Build()
	require.NoError(t, err)
	leg = append(leg, cashflow.NewRedemption(100, utils.MustDate(2029, 1, 15)))

	settle := utils.MustDate(2024, 1, 15)
	// at issue a 5% annual bond priced at par yields 5% annual compounded
	y, iters, err := cashflow.Yield(leg, 100, daycount.Thirty360{}, rates.Compounded, schedule.Annual, settle, cashflow.SolverConfig{})
	require.NoError(t, err)
	assert.InDelta(t, 0.05, y, 1e-10)
	assert.Positive(t, iters)

	target, err := rates.New(0.0375, daycount.Thirty360{}, rates.Compounded, schedule.Annual)
	require.NoError(t, err)
	var price float64
	for _, cf := range leg {
		price += cf.Amount() * target.DiscountFactorBetween(settle, cf.Date())
	}
	y, _, err = cashflow.Yield(leg, price, daycount.Thirty360{}, rates.Compounded, schedule.Annual, settle, cashflow.DefaultSolverConfig)
	require.NoError(t, err)
	assert.InDelta(t, 0.0375, y, 1e-10)
}

func TestYield_Errors(t *testing.T) {
	t.Parallel()

	leg := cashflow.Leg{cashflow.NewRedemption(100, utils.MustDate(2025, 1, 1))}
	settle := utils.MustDate(2024, 1, 1)

	_, _, err := cashflow.Yield(leg, 0, daycount.Actual365Fixed{}, rates.Compounded, schedule.Annual, settle, cashflow.SolverConfig{})
	assert.Error(t, err)

	_, _, err = cashflow.Yield(leg, 95, daycount.Actual365Fixed{}, rates.Compounded, schedule.Annual, utils.MustDate(2026, 1, 1), cashflow.SolverConfig{})
	assert.ErrorContains(t, err, "no cashflows")

	_, _, err = cashflow.Yield(leg, 95, daycount.Actual365Fixed{}, rates.Compounded, schedule.Once, settle, cashflow.SolverConfig{})
	assert.Error(t, err)

	cfg := cashflow.DefaultSolverConfig
	cfg.MaxIterations = 1
	_, iters, err := cashflow.Yield(leg, 50, daycount.Actual365Fixed{}, rates.Compounded, schedule.Annual, settle, cfg)
	assert.ErrorContains(t, err, "did not converge")
	assert.Equal(t, 1, iters)
}

func TestFromCents(t *testing.T) {
	t.Parallel()

	d1, d2 := utils.MustDate(2025, 2, 15), utils.MustDate(2026, 2, 15)
	leg := cashflow.FromCents([]cashflow.CashflowCents{
		{Date: d1, CouponCents: 250_000},
		{Date: d2, CouponCents: 250_000, PrincipalCents: 10_000_000},
	}, currency.EUR)

	require.Len(t, leg, 3)
	assert.Equal(t, 2500.0, leg[0].Amount())
	assert.Equal(t, d2, leg[2].Date())

	got, err := cashflow.Classify(leg)
	require.NoError(t, err)
	require.Len(t, got.Redemptions, 1)
	assert.Equal(t, 100_000.0, got.Redemptions[0].Amount())
	assert.Len(t, got.Others, 2)
}
