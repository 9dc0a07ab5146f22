package schedule

import (
	"fmt"
	"time"

	"github.com/meenmo/qlgo/utils"
)

// Frequency is the number of periods per year.
type Frequency int

const (
	Once       Frequency = 0
	Annual     Frequency = 1
	Semiannual Frequency = 2
	Quarterly  Frequency = 4
	Monthly    Frequency = 12
)

func (f Frequency) String() string {
	switch f {
	case Once:
		return "Once"
	case Annual:
		return "Annual"
	case Semiannual:
		return "Semiannual"
	case Quarterly:
		return "Quarterly"
	case Monthly:
		return "Monthly"
	default:
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
}

// TimeUnit is the unit of a Period.
type TimeUnit int

const (
	Days TimeUnit = iota
	Weeks
	Months
	Years
)

// Period is a length of time such as 6M or 10Y.
type Period struct {
	Length int
	Unit   TimeUnit
}

// PeriodOf returns the tenor matching a coupon frequency. Once maps to a zero period.
func PeriodOf(f Frequency) (Period, error) {
	switch f {
	case Once:
		return Period{}, nil
	case Annual, Semiannual, Quarterly, Monthly:
		return Period{Length: 12 / int(f), Unit: Months}, nil
	default:
		return Period{}, fmt.Errorf("PeriodOf: unsupported frequency %d", int(f))
	}
}

// Frequency maps the period back to a coupon frequency when it divides a year.
func (p Period) Frequency() Frequency {
	months := p.months()
	switch {
	case p.Length == 0:
		return Once
	case months > 0 && 12%months == 0:
		return Frequency(12 / months)
	default:
		return Frequency(-1)
	}
}

func (p Period) months() int {
	switch p.Unit {
	case Months:
		return p.Length
	case Years:
		return 12 * p.Length
	default:
		return 0
	}
}

func (p Period) String() string {
	units := map[TimeUnit]string{Days: "D", Weeks: "W", Months: "M", Years: "Y"}
	return fmt.Sprintf("%d%s", p.Length, units[p.Unit])
}

// Advance moves t by n periods. Month arithmetic clamps to month end like EDATE;
// with eom set, a month-end start stays at month end.
func (p Period) Advance(t time.Time, n int, eom bool) time.Time {
	switch p.Unit {
	case Days:
		return t.AddDate(0, 0, n*p.Length)
	case Weeks:
		return t.AddDate(0, 0, 7*n*p.Length)
	default:
		d := utils.AddMonth(t, n*p.months())
		if eom && utils.IsLastDayOfMonth(t) {
			return utils.EndOfMonth(d)
		}
		return d
	}
}
