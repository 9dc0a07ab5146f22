package termstructure

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/qlgo/calendar"
	"github.com/meenmo/qlgo/daycount"
	"github.com/meenmo/qlgo/patterns"
	"github.com/meenmo/qlgo/quote"
	"github.com/meenmo/qlgo/utils"
)

var (
	// ErrTooFewPillars is returned when a curve is built from fewer than two quotes.
	ErrTooFewPillars = errors.New("termstructure: at least two pillars required")
)

// Pillar is a par swap rate quote, in percent, for a tenor in years.
type Pillar struct {
	Tenor float64
	Quote quote.Quote
}

// PiecewiseCurve bootstraps quarterly discount factors from par swap rates
// (quarterly fixed leg, ACT/365) and interpolates them log-linearly.
//
// Tenors between quoted pillars get a par rate interpolated linearly in time.
type PiecewiseCurve struct {
	*patterns.LazyObject

	reference time.Time
	cal       calendar.Calendar
	dc        daycount.DayCounter
	pillars   []Pillar

	dates []time.Time
	dfs   []float64
}

// NewPiecewiseCurve observes every pillar quote; the bootstrap runs on first use.
func NewPiecewiseCurve(reference time.Time, cal calendar.Calendar, pillars []Pillar, opts ...patterns.Option) (*PiecewiseCurve, error) {
	if len(pillars) < 2 {
		return nil, ErrTooFewPillars
	}
	sorted := make([]Pillar, len(pillars))
	copy(sorted, pillars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Tenor < sorted[j].Tenor })
	for i, p := range sorted {
		if p.Quote == nil {
			return nil, fmt.Errorf("NewPiecewiseCurve: pillar %gY has no quote", p.Tenor)
		}
		if p.Tenor < 0 || math.Abs(p.Tenor*4-math.Round(p.Tenor*4)) > 1e-9 {
			return nil, fmt.Errorf("NewPiecewiseCurve: tenor %gY is not on the quarterly grid", p.Tenor)
		}
		if i > 0 && p.Tenor == sorted[i-1].Tenor {
			return nil, fmt.Errorf("NewPiecewiseCurve: duplicate tenor %gY", p.Tenor)
		}
	}

	crv := &PiecewiseCurve{
		reference: utils.DateOnly(reference),
		cal:       cal,
		dc:        daycount.Actual365Fixed{},
		pillars:   sorted,
	}
	opts = append([]patterns.Option{patterns.WithName("piecewise-curve")}, opts...)
	crv.LazyObject = patterns.NewLazyObject(crv.performCalculations, opts...)
	for _, p := range sorted {
		crv.Observe(p.Quote)
	}
	return crv, nil
}

func (crv *PiecewiseCurve) performCalculations() error {
	par := make(map[int]float64, len(crv.pillars))
	quoted := make([]int, 0, len(crv.pillars))
	for _, p := range crv.pillars {
		v, err := p.Quote.Value()
		if err != nil {
			return fmt.Errorf("PiecewiseCurve: %gY pillar: %w", p.Tenor, err)
		}
		idx := int(math.Round(p.Tenor * 4))
		par[idx] = v / 100
		quoted = append(quoted, idx)
	}

	n := quoted[len(quoted)-1]
	dates := make([]time.Time, n+1)
	for i := range dates {
		dates[i] = crv.cal.Adjust(utils.AddMonth(crv.reference, 3*i), calendar.ModifiedFollowing)
	}
	dates[0] = crv.reference

	rates := crv.parRates(dates, par, quoted)

	dfs := make([]float64, n+1)
	accruals := make([]float64, n+1)
	dfs[0] = 1
	for i := 1; i <= n; i++ {
		accruals[i] = crv.dc.YearFraction(dates[i-1], dates[i])
		annuity := floats.Dot(accruals[1:i], dfs[1:i])
		df := (1 - rates[i]*annuity) / (1 + rates[i]*accruals[i])
		if df <= 0 || math.IsNaN(df) {
			return fmt.Errorf("PiecewiseCurve: non-positive discount factor at %s", dates[i].Format(utils.DateLayout))
		}
		dfs[i] = utils.RoundTo(df, 12)
	}

	crv.dates = dates
	crv.dfs = dfs
	crv.Logger().Debug().Int("nodes", len(dates)).Str("last", dates[n].Format(utils.DateLayout)).Msg("bootstrapped")
	return nil
}

// parRates fills the quarterly grid: quoted nodes as is, others linearly
// interpolated in days between neighbouring quotes, flat outside.
func (crv *PiecewiseCurve) parRates(dates []time.Time, par map[int]float64, quoted []int) []float64 {
	out := make([]float64, len(dates))
	for i := range dates {
		if r, ok := par[i]; ok {
			out[i] = r
			continue
		}
		k := sort.SearchInts(quoted, i)
		switch {
		case k == 0:
			out[i] = par[quoted[0]]
		case k >= len(quoted):
			out[i] = par[quoted[len(quoted)-1]]
		default:
			lo, hi := quoted[k-1], quoted[k]
			w := float64(utils.Days(dates[lo], dates[i])) / float64(utils.Days(dates[lo], dates[hi]))
			out[i] = par[lo] + (par[hi]-par[lo])*w
		}
	}
	return out
}

func (crv *PiecewiseCurve) ReferenceDate() time.Time        { return crv.reference }
func (crv *PiecewiseCurve) DayCounter() daycount.DayCounter { return crv.dc }

// Nodes returns the bootstrapped dates and discount factors.
func (crv *PiecewiseCurve) Nodes() ([]time.Time, []float64, error) {
	if err := crv.Calculate(); err != nil {
		return nil, nil, err
	}
	if len(crv.dates) == 0 {
		return nil, nil, fmt.Errorf("PiecewiseCurve: %w", ErrNotCalculated)
	}
	dates := make([]time.Time, len(crv.dates))
	copy(dates, crv.dates)
	dfs := make([]float64, len(crv.dfs))
	copy(dfs, crv.dfs)
	return dates, dfs, nil
}

// DiscountFactor interpolates log-linearly between nodes and extrapolates
// with the last node's zero rate.
func (crv *PiecewiseCurve) DiscountFactor(d time.Time) (float64, error) {
	d = utils.DateOnly(d)
	if d.Before(crv.reference) {
		return 0, fmt.Errorf("PiecewiseCurve: %w: %s", ErrBeforeReference, d.Format(utils.DateLayout))
	}
	if err := crv.Calculate(); err != nil {
		return 0, err
	}
	if len(crv.dates) == 0 {
		return 0, fmt.Errorf("PiecewiseCurve: %w", ErrNotCalculated)
	}
	if d.Equal(crv.reference) {
		return 1, nil
	}

	last := len(crv.dates) - 1
	if d.After(crv.dates[last]) {
		tLast := crv.dc.YearFraction(crv.reference, crv.dates[last])
		z := -math.Log(crv.dfs[last]) / tLast
		return math.Exp(-z * crv.dc.YearFraction(crv.reference, d)), nil
	}

	d1, d2 := utils.AdjacentDates(d, crv.dates)
	i1 := sort.Search(len(crv.dates), func(i int) bool { return !crv.dates[i].Before(d1) })
	i2 := i1 + 1
	if d.Equal(d2) {
		return crv.dfs[i2], nil
	}
	w := float64(utils.Days(d1, d)) / float64(utils.Days(d1, d2))
	lnDF := math.Log(crv.dfs[i1]) + (math.Log(crv.dfs[i2])-math.Log(crv.dfs[i1]))*w
	return math.Exp(lnDF), nil
}
