package cashflow

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/qlgo/daycount"
	"github.com/meenmo/qlgo/rates"
	"github.com/meenmo/qlgo/schedule"
	"github.com/meenmo/qlgo/utils"
)

// Discounter is the part of a yield curve the leg analytics need.
type Discounter interface {
	DiscountFactor(d time.Time) (float64, error)
}

// StartDate is the earliest accrual start, or cashflow date for plain
// payments.
func StartDate(leg Leg) (time.Time, error) {
	if len(leg) == 0 {
		return time.Time{}, fmt.Errorf("StartDate: empty leg")
	}
	var d time.Time
	for i, cf := range leg {
		s := cf.Date()
		if c, ok := cf.(Coupon); ok {
			s = c.AccrualStartDate()
		}
		if i == 0 || s.Before(d) {
			d = s
		}
	}
	return d, nil
}

// MaturityDate is the latest cashflow date, or accrual end for coupons.
func MaturityDate(leg Leg) (time.Time, error) {
	if len(leg) == 0 {
		return time.Time{}, fmt.Errorf("MaturityDate: empty leg")
	}
	var d time.Time
	for _, cf := range leg {
		e := cf.Date()
		if c, ok := cf.(Coupon); ok {
			e = c.AccrualEndDate()
		}
		if e.After(d) {
			d = e
		}
	}
	return d, nil
}

// PreviousCashFlowDate is the last cashflow date on or before d.
func PreviousCashFlowDate(leg Leg, d time.Time) (time.Time, bool) {
	var prev time.Time
	found := false
	for _, cf := range leg {
		if cf.HasOccurred(d) && (!found || cf.Date().After(prev)) {
			prev, found = cf.Date(), true
		}
	}
	return prev, found
}

// NextCashFlowDate is the first cashflow date strictly after d.
func NextCashFlowDate(leg Leg, d time.Time) (time.Time, bool) {
	var next time.Time
	found := false
	for _, cf := range leg {
		if !cf.HasOccurred(d) && (!found || cf.Date().Before(next)) {
			next, found = cf.Date(), true
		}
	}
	return next, found
}

// AccruedAmount sums the interest accrued at d over the coupons not yet
// paid at d.
func AccruedAmount(leg Leg, d time.Time) float64 {
	var sum float64
	for _, cf := range leg {
		if cf.HasOccurred(d) {
			continue
		}
		if c, ok := cf.(Coupon); ok {
			sum += c.AccruedAmount(d)
		}
	}
	return sum
}

// pending collects amounts and dates of cashflows not yet paid at settlement.
func pending(leg Leg, settlement time.Time) ([]float64, []time.Time) {
	amounts := make([]float64, 0, len(leg))
	dates := make([]time.Time, 0, len(leg))
	for _, cf := range leg {
		if cf.HasOccurred(settlement) {
			continue
		}
		amounts = append(amounts, cf.Amount())
		dates = append(dates, cf.Date())
	}
	return amounts, dates
}

// NPV discounts the cashflows paid after settlement and expresses the sum
// as of npvDate.
func NPV(leg Leg, disc Discounter, settlement, npvDate time.Time) (float64, error) {
	amounts, dates := pending(leg, settlement)
	if len(amounts) == 0 {
		return 0, nil
	}
	dfs := make([]float64, len(dates))
	for i, d := range dates {
		df, err := disc.DiscountFactor(d)
		if err != nil {
			return 0, fmt.Errorf("NPV: discount factor at %s: %w", d.Format(utils.DateLayout), err)
		}
		dfs[i] = df
	}
	base, err := disc.DiscountFactor(npvDate)
	if err != nil {
		return 0, fmt.Errorf("NPV: discount factor at %s: %w", npvDate.Format(utils.DateLayout), err)
	}
	return floats.Dot(amounts, dfs) / base, nil
}

// Yield solves for the rate y such that discounting the cashflows paid after
// settlement at y reproduces dirtyPrice (same units as the leg amounts).
//
// The solver uses Newton-Raphson with analytic first derivative; a zero cfg
// means DefaultSolverConfig. The iteration count is returned alongside.
func Yield(leg Leg, dirtyPrice float64, dc daycount.DayCounter, comp rates.Compounding,
	freq schedule.Frequency, settlement time.Time, cfg SolverConfig) (float64, int, error) {
	if cfg == (SolverConfig{}) {
		cfg = DefaultSolverConfig
	}
	if dirtyPrice <= 0 {
		return 0, 0, fmt.Errorf("Yield: positive dirty price required, got %g", dirtyPrice)
	}
	amounts, dates := pending(leg, settlement)
	if len(amounts) == 0 {
		return 0, 0, fmt.Errorf("Yield: no cashflows after %s", settlement.Format(utils.DateLayout))
	}
	if _, err := rates.New(cfg.Guess, dc, comp, freq); err != nil {
		return 0, 0, fmt.Errorf("Yield: %w", err)
	}

	times := make([]float64, len(dates))
	for i, d := range dates {
		times[i] = dc.YearFraction(settlement, d)
	}
	tol := cfg.Tolerance * math.Max(1, math.Abs(dirtyPrice))

	y := clamp(cfg.Guess, cfg.Floor, cfg.Ceiling)
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		price, dPdy := priceAndDeriv(rates.InterestRate{Rate: y, DayCounter: dc, Compounding: comp, Frequency: freq}, amounts, times)
		f := price - dirtyPrice

		if math.Abs(f) < tol {
			return y, iter + 1, nil
		}
		if math.Abs(dPdy) < cfg.DerivativeThreshold {
			return y, iter + 1, fmt.Errorf("Yield: derivative too small at iter %d", iter)
		}

		y = clamp(y-f/dPdy, cfg.Floor, cfg.Ceiling)
	}

	return y, cfg.MaxIterations, fmt.Errorf("Yield: did not converge after %d iterations", cfg.MaxIterations)
}

// priceAndDeriv returns (price, dPrice/dy):
//
//	price = Σ CF_k · DF_y(t_k)
//	dP/dy = Σ CF_k · dDF_y(t_k)/dy
func priceAndDeriv(y rates.InterestRate, amounts, times []float64) (float64, float64) {
	dfs := make([]float64, len(times))
	ddfs := make([]float64, len(times))
	for i, t := range times {
		dfs[i] = y.DiscountFactor(t)
		ddfs[i] = y.DerivativeOfDiscount(t)
	}
	return floats.Dot(amounts, dfs), floats.Dot(amounts, ddfs)
}
