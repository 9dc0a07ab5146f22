package bonds

import (
	"fmt"
	"time"

	"github.com/meenmo/qlgo/calendar"
	"github.com/meenmo/qlgo/cashflow"
	"github.com/meenmo/qlgo/daycount"
	"github.com/meenmo/qlgo/patterns"
	"github.com/meenmo/qlgo/rates"
	"github.com/meenmo/qlgo/schedule"
)

// Generation describes a coupon schedule to be generated for the bond.
type Generation struct {
	Calendar          calendar.Calendar
	StartDate         time.Time
	MaturityDate      time.Time
	Tenor             schedule.Period
	AccrualConvention calendar.BusinessDayConvention
	Rule              schedule.Rule
	EndOfMonth        bool
	// StubDate is the next-to-last date under Backward generation and the
	// first date under Forward generation. Only those two rules are accepted.
	StubDate time.Time
}

func (g Generation) schedule() (*schedule.Schedule, error) {
	p := schedule.Params{
		Effective:             g.StartDate,
		Termination:           g.MaturityDate,
		Tenor:                 g.Tenor,
		Calendar:              g.Calendar,
		Convention:            g.AccrualConvention,
		TerminationConvention: g.AccrualConvention,
		Rule:                  g.Rule,
		EndOfMonth:            g.EndOfMonth,
	}
	switch g.Rule {
	case schedule.Backward:
		p.NextToLastDate = g.StubDate
	case schedule.Forward:
		p.FirstDate = g.StubDate
	case schedule.Zero, schedule.ThirdWednesday, schedule.Twentieth, schedule.TwentiethIMM:
		return nil, fmt.Errorf("%w with %s rule", ErrStubNotAllowed, g.Rule)
	default:
		return nil, fmt.Errorf("unknown date generation rule %s", g.Rule)
	}
	return schedule.New(p)
}

// Params describe a fixed-rate bond. Either Schedule or Generation must be
// set, and either Coupons (simple annual rates on DayCounter) or
// InterestRates.
type Params struct {
	SettlementDays int
	// FaceAmount is outstanding until maturity. Amortizing legs go through
	// NewBond instead.
	FaceAmount float64

	Schedule   *schedule.Schedule
	Generation *Generation

	Coupons       []float64
	DayCounter    daycount.DayCounter
	InterestRates []rates.InterestRate

	// PaymentConvention adjusts payment dates on PaymentCalendar, which
	// defaults to the schedule calendar.
	PaymentConvention calendar.BusinessDayConvention
	PaymentCalendar   *calendar.Calendar

	// Redemption is paid per 100 of face amount; zero means 100.
	Redemption     float64
	IssueDate      time.Time
	EvaluationDate time.Time
}

// FixedRateBond pays fixed coupons and a single redemption.
type FixedRateBond struct {
	*Bond
	frequency  schedule.Frequency
	dayCounter daycount.DayCounter
}

// NewFixedRateBond builds the coupon leg and appends the redemption at
// maturity.
func NewFixedRateBond(p Params, opts ...patterns.Option) (*FixedRateBond, error) {
	if p.FaceAmount <= 0 {
		return nil, fmt.Errorf("NewFixedRateBond: positive face amount required, got %g", p.FaceAmount)
	}
	sched := p.Schedule
	if sched == nil {
		if p.Generation == nil {
			return nil, fmt.Errorf("NewFixedRateBond: schedule or generation terms required")
		}
		s, err := p.Generation.schedule()
		if err != nil {
			return nil, fmt.Errorf("NewFixedRateBond: %w", err)
		}
		sched = s
	}
	if sched.Len() < 2 {
		return nil, fmt.Errorf("NewFixedRateBond: %w", ErrNoCashflows)
	}

	payCal := sched.Calendar()
	if p.PaymentCalendar != nil {
		payCal = *p.PaymentCalendar
	}
	builder := cashflow.NewFixedRateLeg(sched).
		WithNotionals(p.FaceAmount).
		WithPaymentCalendar(payCal).
		WithPaymentAdjustment(p.PaymentConvention)
	dc := p.DayCounter
	switch {
	case len(p.InterestRates) > 0:
		builder.WithInterestRates(p.InterestRates...)
		dc = p.InterestRates[0].DayCounter
	default:
		builder.WithCouponRates(p.DayCounter, p.Coupons...)
	}
	leg, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("NewFixedRateBond: %w", err)
	}

	redemption := p.Redemption
	if redemption == 0 {
		redemption = 100
	}
	leg = append(leg, cashflow.NewRedemption(p.FaceAmount*redemption/100, leg[len(leg)-1].Date()))

	opts = append([]patterns.Option{patterns.WithName("fixed-rate-bond")}, opts...)
	b, err := NewBond(Terms{
		SettlementDays: p.SettlementDays,
		Calendar:       payCal,
		FaceAmount:     p.FaceAmount,
		IssueDate:      p.IssueDate,
		EvaluationDate: p.EvaluationDate,
	}, leg, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewFixedRateBond: %w", err)
	}
	return &FixedRateBond{Bond: b, frequency: sched.Tenor().Frequency(), dayCounter: dc}, nil
}

func (b *FixedRateBond) Frequency() schedule.Frequency  { return b.frequency }
func (b *FixedRateBond) DayCounter() daycount.DayCounter { return b.dayCounter }
