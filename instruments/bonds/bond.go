// Package bonds prices bonds from their cashflow legs.
package bonds

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/qlgo/calendar"
	"github.com/meenmo/qlgo/cashflow"
	"github.com/meenmo/qlgo/daycount"
	"github.com/meenmo/qlgo/instruments"
	"github.com/meenmo/qlgo/patterns"
	"github.com/meenmo/qlgo/rates"
	"github.com/meenmo/qlgo/schedule"
	"github.com/meenmo/qlgo/utils"
)

var (
	ErrNoCashflows         = errors.New("bond with no cashflows")
	ErrMultipleRedemptions = errors.New("multiple redemptions created")
	ErrStubNotAllowed      = errors.New("stub date not allowed")
)

// Arguments are what a bond engine needs.
type Arguments struct {
	SettlementDate time.Time
	Cashflows      cashflow.Leg
	Calendar       calendar.Calendar
}

func (a *Arguments) Validate() error {
	if a.SettlementDate.IsZero() {
		return fmt.Errorf("bond arguments: no settlement date")
	}
	if len(a.Cashflows) == 0 {
		return fmt.Errorf("bond arguments: %w", ErrNoCashflows)
	}
	return nil
}

// Terms are the static data shared by every bond.
type Terms struct {
	SettlementDays int
	Calendar       calendar.Calendar
	FaceAmount     float64
	IssueDate      time.Time
	// EvaluationDate is the trade date settlement is counted from; zero
	// means the issue date, or the first accrual start without one.
	EvaluationDate time.Time
}

// Bond is a leg of cashflows sold for a price.
//
// Prices are quoted per 100 of face amount.
type Bond struct {
	*instruments.Instrument

	terms       Terms
	cashflows   cashflow.Leg
	coupons     []cashflow.Coupon
	redemptions []*cashflow.Redemption
	maturity    time.Time
}

// NewBond wraps leg as a bond. Cashflows are classified into coupons and
// redemptions; a leg with no cashflows is rejected.
func NewBond(terms Terms, leg cashflow.Leg, opts ...patterns.Option) (*Bond, error) {
	if len(leg) == 0 {
		return nil, fmt.Errorf("NewBond: %w", ErrNoCashflows)
	}
	parts, err := cashflow.Classify(leg)
	if err != nil {
		return nil, fmt.Errorf("NewBond: %w", err)
	}
	maturity, err := cashflow.MaturityDate(leg)
	if err != nil {
		return nil, fmt.Errorf("NewBond: %w", err)
	}
	if terms.FaceAmount == 0 {
		for _, r := range parts.Redemptions {
			terms.FaceAmount += r.Amount()
		}
	}
	if terms.FaceAmount <= 0 {
		return nil, fmt.Errorf("NewBond: positive face amount required")
	}
	if terms.Calendar.IsEmpty() {
		terms.Calendar = calendar.NullCalendar()
	}
	terms.IssueDate = utils.DateOnly(terms.IssueDate)
	if terms.EvaluationDate.IsZero() {
		terms.EvaluationDate = terms.IssueDate
		if terms.EvaluationDate.IsZero() {
			terms.EvaluationDate, _ = cashflow.StartDate(leg)
		}
	}

	b := &Bond{
		terms:       terms,
		cashflows:   leg,
		coupons:     parts.Coupons,
		redemptions: parts.Redemptions,
		maturity:    maturity,
	}
	opts = append([]patterns.Option{patterns.WithName("bond")}, opts...)
	b.Instrument = instruments.New(b.arguments, b.expired, opts...)
	b.SetExpiredResults(instruments.Results{Additional: map[string]float64{SettlementValue: 0}})
	return b, nil
}

func (b *Bond) arguments() (instruments.Arguments, error) {
	return &Arguments{
		SettlementDate: b.SettlementDate(b.terms.EvaluationDate),
		Cashflows:      b.cashflows,
		Calendar:       b.terms.Calendar,
	}, nil
}

func (b *Bond) expired() bool {
	_, ok := cashflow.NextCashFlowDate(b.cashflows, b.terms.EvaluationDate)
	return !ok
}

// SetEvaluationDate moves the trade date and invalidates cached prices.
func (b *Bond) SetEvaluationDate(d time.Time) error {
	b.terms.EvaluationDate = utils.DateOnly(d)
	return b.Update()
}

func (b *Bond) EvaluationDate() time.Time           { return b.terms.EvaluationDate }
func (b *Bond) SettlementDays() int                 { return b.terms.SettlementDays }
func (b *Bond) Calendar() calendar.Calendar         { return b.terms.Calendar }
func (b *Bond) IssueDate() time.Time                { return b.terms.IssueDate }
func (b *Bond) MaturityDate() time.Time             { return b.maturity }
func (b *Bond) Cashflows() cashflow.Leg             { return b.cashflows }
func (b *Bond) Coupons() []cashflow.Coupon          { return b.coupons }
func (b *Bond) Redemptions() []*cashflow.Redemption { return b.redemptions }

// Redemption returns the single redemption of a bullet bond.
func (b *Bond) Redemption() (*cashflow.Redemption, error) {
	if len(b.redemptions) != 1 {
		return nil, fmt.Errorf("Bond.Redemption: %w: %d", ErrMultipleRedemptions, len(b.redemptions))
	}
	return b.redemptions[0], nil
}

// SettlementDate is d advanced by the settlement days on the bond calendar,
// never before issue.
func (b *Bond) SettlementDate(d time.Time) time.Time {
	s := b.terms.Calendar.AddBusinessDays(utils.DateOnly(d), b.terms.SettlementDays)
	if s.Before(b.terms.IssueDate) {
		return b.terms.IssueDate
	}
	return s
}

// Notional is the face amount outstanding at d: the nominal of the first
// coupon not yet paid, or the face amount until maturity for a leg without
// coupons.
func (b *Bond) Notional(d time.Time) float64 {
	if len(b.coupons) == 0 {
		if _, ok := cashflow.NextCashFlowDate(b.cashflows, d); ok {
			return b.terms.FaceAmount
		}
		return 0
	}
	for _, c := range b.coupons {
		if !c.HasOccurred(d) {
			return c.Nominal()
		}
	}
	return 0
}

// AccruedAmount is the accrued interest at the settlement date d, per 100
// of outstanding notional.
func (b *Bond) AccruedAmount(d time.Time) float64 {
	n := b.Notional(d)
	if n == 0 {
		return 0
	}
	return cashflow.AccruedAmount(b.cashflows, d) * 100 / n
}

// DirtyPrice is the settlement value per 100 of outstanding notional.
func (b *Bond) DirtyPrice() (float64, error) {
	v, err := b.Result(SettlementValue)
	if err != nil {
		return 0, err
	}
	n := b.Notional(b.SettlementDate(b.terms.EvaluationDate))
	if n == 0 {
		return 0, nil
	}
	return v * 100 / n, nil
}

// CleanPrice is the dirty price less accrued interest.
func (b *Bond) CleanPrice() (float64, error) {
	dirty, err := b.DirtyPrice()
	if err != nil {
		return 0, err
	}
	return dirty - b.AccruedAmount(b.SettlementDate(b.terms.EvaluationDate)), nil
}

// Yield returns the yield implied by a clean price at the bond's settlement date.
func (b *Bond) Yield(cleanPrice float64, dc daycount.DayCounter, comp rates.Compounding,
	freq schedule.Frequency, cfg cashflow.SolverConfig) (float64, error) {
	settle := b.SettlementDate(b.terms.EvaluationDate)
	n := b.Notional(settle)
	if n == 0 {
		return 0, fmt.Errorf("Bond.Yield: bond expired at %s", settle.Format(utils.DateLayout))
	}
	dirty := (cleanPrice + b.AccruedAmount(settle)) * n / 100
	y, iters, err := cashflow.Yield(b.cashflows, dirty, dc, comp, freq, settle, cfg)
	if err != nil {
		return 0, fmt.Errorf("Bond.Yield: %w", err)
	}
	b.Logger().Debug().Float64("clean", cleanPrice).Float64("yield", y).Int("iterations", iters).Msg("yield solved")
	return y, nil
}
