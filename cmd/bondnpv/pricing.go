package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/meenmo/qlgo/calendar"
	"github.com/meenmo/qlgo/currency"
	"github.com/meenmo/qlgo/daycount"
	"github.com/meenmo/qlgo/instruments/bonds"
	"github.com/meenmo/qlgo/internal/config"
	"github.com/meenmo/qlgo/marketdata"
	"github.com/meenmo/qlgo/metrics"
	"github.com/meenmo/qlgo/patterns"
	"github.com/meenmo/qlgo/quote"
	"github.com/meenmo/qlgo/rates"
	"github.com/meenmo/qlgo/schedule"
	"github.com/meenmo/qlgo/termstructure"
	"github.com/meenmo/qlgo/utils"
)

// PricingInput defines the JSON input schema for fixed-rate bond pricing.
//
// Conventions:
// - rates and prices are in percent (e.g., 2.50 means 2.50%)
// - bumps are in bp (e.g., 10 means +10bp)
// - exactly one of flat_rate, par_quotes or feed_key selects the curve
type PricingInput struct {
	CurveDate      string `json:"curve_date"`      // "2025-12-15"
	EvaluationDate string `json:"evaluation_date"` // optional, defaults to curve_date

	// FlatRatePct is a continuously compounded ACT/365F zero rate.
	FlatRatePct *float64 `json:"flat_rate"`
	// ParQuotesPct are quarterly par swap rates keyed by tenor in years ("1", "2.5").
	ParQuotesPct map[string]float64 `json:"par_quotes"`
	// FeedKey reads the flat rate (as a decimal) from the QLGO_QUOTES_DSN store.
	FeedKey string `json:"feed_key"`

	Bond BondInput `json:"bond"`

	CleanPrice float64 `json:"clean_price"` // optional; yield is solved when set
	BumpBP     float64 `json:"bump_bp"`     // optional parallel curve bump
}

type BondInput struct {
	Currency       string   `json:"currency"` // ISO code, default EUR
	Face           float64  `json:"face"`
	IssueDate      string   `json:"issue_date"`
	MaturityDate   string   `json:"maturity_date"`
	CouponPct      float64  `json:"coupon"`
	Frequency      int      `json:"frequency"` // coupons per year, default 1
	DayCount       string   `json:"day_count"` // default 30E/360
	SettlementDays int      `json:"settlement_days"`
	Holidays       []string `json:"holidays"`
	Redemption     float64  `json:"redemption"` // per 100, default 100
}

type PricingOutput struct {
	NPV            float64  `json:"npv"`
	NPVFormatted   string   `json:"npv_formatted"`
	DirtyPrice     float64  `json:"dirty_price"`
	CleanPrice     float64  `json:"clean_price"`
	Accrued        float64  `json:"accrued"`
	YieldPct       *float64 `json:"yield,omitempty"`
	BumpedNPV      *float64 `json:"bumped_npv,omitempty"`
	SettlementDate string   `json:"settlement_date"`
	MaturityDate   string   `json:"maturity_date"`
	Error          string   `json:"error,omitempty"`
}

type pricer struct {
	cfg *config.Config
	log zerolog.Logger
	rec *metrics.Recorder
}

func (p pricer) opts(name string) []patterns.Option {
	return []patterns.Option{patterns.WithName(name), patterns.WithLogger(p.log), patterns.WithRecorder(p.rec)}
}

// curve builds the discount curve and returns the quotes a bump should move.
func (p pricer) curve(ctx context.Context, input PricingInput, curveDate time.Time, cal calendar.Calendar) (termstructure.YieldTermStructure, []*quote.SimpleQuote, error) {
	selected := 0
	if input.FlatRatePct != nil {
		selected++
	}
	if len(input.ParQuotesPct) > 0 {
		selected++
	}
	if input.FeedKey != "" {
		selected++
	}
	if selected != 1 {
		return nil, nil, fmt.Errorf("exactly one of flat_rate, par_quotes or feed_key is required")
	}

	switch {
	case input.FlatRatePct != nil:
		q := quote.NewSimpleQuote(*input.FlatRatePct / 100)
		ff := termstructure.NewFlatForward(curveDate, quote.NewHandle(q), daycount.Actual365Fixed{},
			rates.Continuous, schedule.Annual, p.opts("flat-forward")...)
		return ff, []*quote.SimpleQuote{q}, nil

	case len(input.ParQuotesPct) > 0:
		tenors := make([]string, 0, len(input.ParQuotesPct))
		for k := range input.ParQuotesPct {
			tenors = append(tenors, k)
		}
		sort.Strings(tenors)
		pillars := make([]termstructure.Pillar, 0, len(tenors))
		quotes := make([]*quote.SimpleQuote, 0, len(tenors))
		for _, k := range tenors {
			years, err := strconv.ParseFloat(strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(k)), "Y"), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid par_quotes tenor %q", k)
			}
			q := quote.NewSimpleQuote(input.ParQuotesPct[k])
			pillars = append(pillars, termstructure.Pillar{Tenor: years, Quote: q})
			quotes = append(quotes, q)
		}
		crv, err := termstructure.NewPiecewiseCurve(curveDate, cal, pillars, p.opts("par-curve")...)
		if err != nil {
			return nil, nil, err
		}
		return crv, quotes, nil

	default:
		if p.cfg.QuotesDSN == "" {
			return nil, nil, fmt.Errorf("feed_key requires QLGO_QUOTES_DSN")
		}
		feed, err := marketdata.OpenSQLFeed(ctx, p.cfg.QuotesDSN)
		if err != nil {
			return nil, nil, err
		}
		defer feed.Close()
		binder := marketdata.NewBinder(feed, p.log)
		q := binder.Bind(input.FeedKey)
		if err := binder.Refresh(ctx, curveDate); err != nil {
			return nil, nil, err
		}
		if !q.IsValid() {
			return nil, nil, fmt.Errorf("no quote for %s on %s", input.FeedKey, curveDate.Format(utils.DateLayout))
		}
		ff := termstructure.NewFlatForward(curveDate, quote.NewHandle(q), daycount.Actual365Fixed{},
			rates.Continuous, schedule.Annual, p.opts("flat-forward")...)
		return ff, []*quote.SimpleQuote{q}, nil
	}
}

func parseDate(name, s string) (time.Time, error) {
	d, err := utils.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %v", name, err)
	}
	return d, nil
}

func (p pricer) price(ctx context.Context, input PricingInput) (*PricingOutput, error) {
	curveDate, err := parseDate("curve_date", input.CurveDate)
	if err != nil {
		return nil, err
	}
	evalDate := curveDate
	if strings.TrimSpace(input.EvaluationDate) != "" {
		if evalDate, err = parseDate("evaluation_date", input.EvaluationDate); err != nil {
			return nil, err
		}
	}
	issue, err := parseDate("issue_date", input.Bond.IssueDate)
	if err != nil {
		return nil, err
	}
	maturity, err := parseDate("maturity_date", input.Bond.MaturityDate)
	if err != nil {
		return nil, err
	}

	code := input.Bond.Currency
	if code == "" {
		code = "EUR"
	}
	ccy, ok := currency.Lookup(strings.ToUpper(code))
	if !ok {
		return nil, fmt.Errorf("unknown currency %q", input.Bond.Currency)
	}
	dcName := input.Bond.DayCount
	if dcName == "" {
		dcName = "30E/360"
	}
	dc, err := daycount.Parse(dcName)
	if err != nil {
		return nil, err
	}
	freq := schedule.Frequency(input.Bond.Frequency)
	if freq == 0 {
		freq = schedule.Annual
	}
	tenor, err := schedule.PeriodOf(freq)
	if err != nil {
		return nil, err
	}
	holidays := make([]time.Time, 0, len(input.Bond.Holidays))
	for _, h := range input.Bond.Holidays {
		d, err := parseDate("holiday", h)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, d)
	}
	cal := calendar.New(ccy.Code, holidays...)

	ts, quotes, err := p.curve(ctx, input, curveDate, cal)
	if err != nil {
		return nil, err
	}

	bond, err := bonds.NewFixedRateBond(bonds.Params{
		SettlementDays: input.Bond.SettlementDays,
		FaceAmount:     input.Bond.Face,
		Generation: &bonds.Generation{
			Calendar:          cal,
			StartDate:         issue,
			MaturityDate:      maturity,
			Tenor:             tenor,
			AccrualConvention: calendar.Unadjusted,
			Rule:              schedule.Backward,
		},
		Coupons:           []float64{input.Bond.CouponPct / 100},
		DayCounter:        dc,
		PaymentConvention: calendar.Following,
		Redemption:        input.Bond.Redemption,
		IssueDate:         issue,
		EvaluationDate:    evalDate,
	}, p.opts("bond")...)
	if err != nil {
		return nil, err
	}
	if err := bond.SetPricingEngine(bonds.NewDiscountingEngine(termstructure.NewHandle(ts))); err != nil {
		return nil, err
	}

	npv, err := bond.NPV()
	if err != nil {
		return nil, err
	}
	dirty, err := bond.DirtyPrice()
	if err != nil {
		return nil, err
	}
	clean, err := bond.CleanPrice()
	if err != nil {
		return nil, err
	}
	settle := bond.SettlementDate(evalDate)

	out := &PricingOutput{
		NPV:            npv,
		NPVFormatted:   ccy.Of(npv).Rounded().String(),
		DirtyPrice:     dirty,
		CleanPrice:     clean,
		Accrued:        bond.AccruedAmount(settle),
		SettlementDate: settle.Format(utils.DateLayout),
		MaturityDate:   bond.MaturityDate().Format(utils.DateLayout),
	}

	if input.CleanPrice > 0 {
		y, err := bond.Yield(input.CleanPrice, dc, rates.Compounded, freq, p.cfg.Solver)
		if err != nil {
			return nil, err
		}
		pct := y * 100
		out.YieldPct = &pct
	}

	if input.BumpBP != 0 {
		bumped, err := bumpAndReprice(bond, quotes, input)
		if err != nil {
			return nil, err
		}
		out.BumpedNPV = &bumped
	}
	return out, nil
}

// bumpAndReprice shifts every curve quote; the bond notices through the
// curve and engine and re-prices on the next read.
func bumpAndReprice(bond *bonds.FixedRateBond, quotes []*quote.SimpleQuote, input PricingInput) (float64, error) {
	shift := input.BumpBP / 1e4
	if len(input.ParQuotesPct) > 0 {
		shift = input.BumpBP / 100 // par quotes are in percent
	}
	for _, q := range quotes {
		v, err := q.Value()
		if err != nil {
			return 0, err
		}
		if _, err := q.SetValue(v + shift); err != nil {
			return 0, err
		}
	}
	return bond.NPV()
}
