// Package daycount implements the day count conventions used to accrue
// coupons and to turn dates into times for discounting.
package daycount

import (
	"fmt"
	"strings"
	"time"

	"github.com/meenmo/qlgo/utils"
)

// DayCounter measures the distance between two dates.
type DayCounter interface {
	Name() string
	DayCount(d1, d2 time.Time) int
	YearFraction(d1, d2 time.Time) float64
}

// Actual365Fixed is "Actual/365 (Fixed)", also known as A/365F.
type Actual365Fixed struct{}

func (Actual365Fixed) Name() string                  { return "Actual/365 (Fixed)" }
func (Actual365Fixed) DayCount(d1, d2 time.Time) int { return utils.Days(d1, d2) }
func (a Actual365Fixed) YearFraction(d1, d2 time.Time) float64 {
	return float64(a.DayCount(d1, d2)) / 365.0
}

// Actual360 is "Actual/360".
type Actual360 struct{}

func (Actual360) Name() string                  { return "Actual/360" }
func (Actual360) DayCount(d1, d2 time.Time) int { return utils.Days(d1, d2) }
func (a Actual360) YearFraction(d1, d2 time.Time) float64 {
	return float64(a.DayCount(d1, d2)) / 360.0
}

// Thirty360 is the 30E/360 (Eurobond basis) convention: day 31 is read as day 30
// on both ends.
type Thirty360 struct{}

func (Thirty360) Name() string { return "30E/360 (Eurobond Basis)" }

func (Thirty360) DayCount(d1, d2 time.Time) int {
	dd1 := d1.Day()
	if dd1 > 30 {
		dd1 = 30
	}
	dd2 := d2.Day()
	if dd2 > 30 {
		dd2 = 30
	}
	return 360*(d2.Year()-d1.Year()) + 30*(int(d2.Month())-int(d1.Month())) + (dd2 - dd1)
}

func (t Thirty360) YearFraction(d1, d2 time.Time) float64 {
	return float64(t.DayCount(d1, d2)) / 360.0
}

// ActualActualISDA splits the period by calendar year and divides each piece
// by the length of its year.
type ActualActualISDA struct{}

func (ActualActualISDA) Name() string                  { return "Actual/Actual (ISDA)" }
func (ActualActualISDA) DayCount(d1, d2 time.Time) int { return utils.Days(d1, d2) }

func (a ActualActualISDA) YearFraction(d1, d2 time.Time) float64 {
	if d1.Equal(d2) {
		return 0
	}
	if d2.Before(d1) {
		return -a.YearFraction(d2, d1)
	}
	y1, y2 := d1.Year(), d2.Year()
	dib1, dib2 := float64(daysInYear(y1)), float64(daysInYear(y2))

	sum := float64(y2 - y1 - 1)
	sum += float64(utils.Days(d1, utils.MustDate(y1+1, time.January, 1))) / dib1
	sum += float64(utils.Days(utils.MustDate(y2, time.January, 1), d2)) / dib2
	return sum
}

func daysInYear(y int) int {
	if y%4 == 0 && (y%100 != 0 || y%400 == 0) {
		return 366
	}
	return 365
}

// Parse resolves a convention by its market shorthand.
// Supported: ACT/365F, ACT/360, 30E/360 (alias 30/360), ACT/ACT.
func Parse(name string) (DayCounter, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ACT/365F", "ACT/365", "A/365F", "ACTUAL/365 (FIXED)":
		return Actual365Fixed{}, nil
	case "ACT/360", "A/360", "ACTUAL/360":
		return Actual360{}, nil
	case "30E/360", "30/360":
		return Thirty360{}, nil
	case "ACT/ACT", "ACT/ACT ISDA", "ACTUAL/ACTUAL":
		return ActualActualISDA{}, nil
	default:
		return nil, fmt.Errorf("daycount.Parse: unknown convention %q", name)
	}
}
