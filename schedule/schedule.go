// Package schedule generates coupon date schedules.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/qlgo/calendar"
	"github.com/meenmo/qlgo/utils"
)

// Rule is the direction in which schedule dates are generated.
type Rule int

const (
	Backward Rule = iota
	Forward
	Zero
	ThirdWednesday
	Twentieth
	TwentiethIMM
)

func (r Rule) String() string {
	switch r {
	case Backward:
		return "Backward"
	case Forward:
		return "Forward"
	case Zero:
		return "Zero"
	case ThirdWednesday:
		return "ThirdWednesday"
	case Twentieth:
		return "Twentieth"
	case TwentiethIMM:
		return "TwentiethIMM"
	default:
		return fmt.Sprintf("Rule(%d)", int(r))
	}
}

var (
	// ErrUnsupportedRule is returned for IMM-style rules, which need holiday-aware date logic.
	ErrUnsupportedRule = errors.New("schedule: unsupported date generation rule")
)

// Params describes a schedule.
type Params struct {
	Effective   time.Time
	Termination time.Time
	Tenor       Period
	Calendar    calendar.Calendar

	Convention            calendar.BusinessDayConvention
	TerminationConvention calendar.BusinessDayConvention

	Rule       Rule
	EndOfMonth bool

	// FirstDate and NextToLastDate pin a short/long stub; zero means none.
	FirstDate      time.Time
	NextToLastDate time.Time
}

// Schedule is an ordered list of adjusted period boundaries.
type Schedule struct {
	dates    []time.Time
	tenor    Period
	calendar calendar.Calendar
	conv     calendar.BusinessDayConvention
	eom      bool
}

// New generates the schedule described by p.
func New(p Params) (*Schedule, error) {
	if p.Effective.IsZero() || p.Termination.IsZero() {
		return nil, fmt.Errorf("schedule.New: effective and termination dates are required")
	}
	if !p.Termination.After(p.Effective) {
		return nil, fmt.Errorf("schedule.New: termination %s not after effective %s",
			p.Termination.Format(utils.DateLayout), p.Effective.Format(utils.DateLayout))
	}
	if p.Tenor.Length < 0 {
		return nil, fmt.Errorf("schedule.New: negative tenor %s", p.Tenor)
	}

	rule := p.Rule
	if p.Tenor.Length == 0 {
		rule = Zero
	}

	var unadjusted []time.Time
	switch rule {
	case Zero:
		unadjusted = []time.Time{p.Effective, p.Termination}
	case Backward:
		unadjusted = backward(p)
	case Forward:
		unadjusted = forward(p)
	default:
		return nil, fmt.Errorf("schedule.New: %w: %s", ErrUnsupportedRule, rule)
	}

	dates := make([]time.Time, 0, len(unadjusted))
	for i, d := range unadjusted {
		conv := p.Convention
		if i == len(unadjusted)-1 {
			conv = p.TerminationConvention
		}
		adj := p.Calendar.Adjust(d, conv)
		if len(dates) > 0 && !adj.After(dates[len(dates)-1]) {
			continue
		}
		dates = append(dates, adj)
	}
	if len(dates) < 2 {
		return nil, fmt.Errorf("schedule.New: degenerate schedule between %s and %s",
			p.Effective.Format(utils.DateLayout), p.Termination.Format(utils.DateLayout))
	}

	return &Schedule{
		dates:    dates,
		tenor:    p.Tenor,
		calendar: p.Calendar,
		conv:     p.Convention,
		eom:      p.EndOfMonth,
	}, nil
}

// backward rolls from the termination (or next-to-last) date towards the
// effective date; any stub ends up at the front.
func backward(p Params) []time.Time {
	tail := []time.Time{p.Termination}
	seed := p.Termination
	if !p.NextToLastDate.IsZero() && p.NextToLastDate.Before(p.Termination) && p.NextToLastDate.After(p.Effective) {
		tail = append([]time.Time{p.NextToLastDate}, tail...)
		seed = p.NextToLastDate
	}
	lower := p.Effective
	if !p.FirstDate.IsZero() && p.FirstDate.After(p.Effective) && p.FirstDate.Before(seed) {
		lower = p.FirstDate
	}

	var head []time.Time
	for i := 1; ; i++ {
		d := p.Tenor.Advance(seed, -i, p.EndOfMonth)
		if !d.After(lower) {
			break
		}
		head = append(head, d)
	}

	out := make([]time.Time, 0, len(head)+len(tail)+2)
	out = append(out, p.Effective)
	if !lower.Equal(p.Effective) {
		out = append(out, lower)
	}
	for i := len(head) - 1; i >= 0; i-- {
		out = append(out, head[i])
	}
	return append(out, tail...)
}

// forward rolls from the effective (or first) date towards termination; any
// stub ends up at the back.
func forward(p Params) []time.Time {
	out := []time.Time{p.Effective}
	seed := p.Effective
	if !p.FirstDate.IsZero() && p.FirstDate.After(p.Effective) && p.FirstDate.Before(p.Termination) {
		out = append(out, p.FirstDate)
		seed = p.FirstDate
	}
	upper := p.Termination
	if !p.NextToLastDate.IsZero() && p.NextToLastDate.After(seed) && p.NextToLastDate.Before(p.Termination) {
		upper = p.NextToLastDate
	}

	for i := 1; ; i++ {
		d := p.Tenor.Advance(seed, i, p.EndOfMonth)
		if !d.Before(upper) {
			break
		}
		out = append(out, d)
	}
	if !upper.Equal(p.Termination) {
		out = append(out, upper)
	}
	return append(out, p.Termination)
}

// FromDates wraps an explicit list of dates, which must be strictly increasing.
func FromDates(dates []time.Time, cal calendar.Calendar, conv calendar.BusinessDayConvention) (*Schedule, error) {
	if len(dates) < 2 {
		return nil, fmt.Errorf("schedule.FromDates: need at least 2 dates, got %d", len(dates))
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("schedule.FromDates: dates not increasing at %d", i)
		}
	}
	out := make([]time.Time, len(dates))
	copy(out, dates)
	return &Schedule{dates: out, calendar: cal, conv: conv}, nil
}

// Dates returns a copy of the schedule dates.
func (s *Schedule) Dates() []time.Time {
	out := make([]time.Time, len(s.dates))
	copy(out, s.dates)
	return out
}

func (s *Schedule) Len() int                                   { return len(s.dates) }
func (s *Schedule) Date(i int) time.Time                       { return s.dates[i] }
func (s *Schedule) StartDate() time.Time                       { return s.dates[0] }
func (s *Schedule) EndDate() time.Time                         { return s.dates[len(s.dates)-1] }
func (s *Schedule) Tenor() Period                              { return s.tenor }
func (s *Schedule) Calendar() calendar.Calendar                { return s.calendar }
func (s *Schedule) Convention() calendar.BusinessDayConvention { return s.conv }
func (s *Schedule) EndOfMonth() bool                           { return s.eom }
