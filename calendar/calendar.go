// Package calendar adjusts dates to business days. Holiday tables are
// supplied by the caller; the package only knows about weekends.
package calendar

import (
	"fmt"
	"time"

	"github.com/meenmo/qlgo/utils"
)

// BusinessDayConvention says how a date falling on a holiday is moved.
type BusinessDayConvention int

const (
	Unadjusted BusinessDayConvention = iota
	Following
	ModifiedFollowing
	Preceding
	ModifiedPreceding
)

func (c BusinessDayConvention) String() string {
	switch c {
	case Unadjusted:
		return "Unadjusted"
	case Following:
		return "Following"
	case ModifiedFollowing:
		return "ModifiedFollowing"
	case Preceding:
		return "Preceding"
	case ModifiedPreceding:
		return "ModifiedPreceding"
	default:
		return fmt.Sprintf("BusinessDayConvention(%d)", int(c))
	}
}

// Calendar is a set of non-business days.
type Calendar struct {
	name     string
	weekends bool
	holidays map[string]struct{}
}

// NullCalendar treats every day as a business day.
func NullCalendar() Calendar {
	return Calendar{name: "Null"}
}

// WeekendsOnly closes on Saturdays and Sundays.
func WeekendsOnly() Calendar {
	return Calendar{name: "WeekendsOnly", weekends: true}
}

// New returns a weekend calendar that is also closed on the given holidays.
func New(name string, holidays ...time.Time) Calendar {
	c := Calendar{name: name, weekends: true, holidays: make(map[string]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[h.Format(utils.DateLayout)] = struct{}{}
	}
	return c
}

// Name returns the calendar label.
func (c Calendar) Name() string {
	if c.name == "" {
		return "Null"
	}
	return c.name
}

// IsEmpty reports whether c is the zero Calendar.
func (c Calendar) IsEmpty() bool {
	return c.name == "" && !c.weekends && len(c.holidays) == 0
}

func (c Calendar) isHoliday(t time.Time) bool {
	_, ok := c.holidays[t.Format(utils.DateLayout)]
	return ok
}

// IsBusinessDay checks weekends and the holiday set.
func (c Calendar) IsBusinessDay(t time.Time) bool {
	if c.weekends && (t.Weekday() == time.Saturday || t.Weekday() == time.Sunday) {
		return false
	}
	return !c.isHoliday(t)
}

// Adjust moves t to a business day according to conv.
func (c Calendar) Adjust(t time.Time, conv BusinessDayConvention) time.Time {
	switch conv {
	case Following:
		return c.following(t)
	case ModifiedFollowing:
		adj := c.following(t)
		if adj.Month() != t.Month() {
			return c.preceding(t)
		}
		return adj
	case Preceding:
		return c.preceding(t)
	case ModifiedPreceding:
		adj := c.preceding(t)
		if adj.Month() != t.Month() {
			return c.following(t)
		}
		return adj
	default:
		return t
	}
}

func (c Calendar) following(t time.Time) time.Time {
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func (c Calendar) preceding(t time.Time) time.Time {
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func (c Calendar) AddBusinessDays(t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if c.IsBusinessDay(t) {
			n -= step
		}
	}
	return t
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func (c Calendar) LastBusinessDayOfMonth(t time.Time) time.Time {
	return c.preceding(utils.EndOfMonth(t))
}

// IsEndOfMonth checks if t is the last business day of its month.
func (c Calendar) IsEndOfMonth(t time.Time) bool {
	return t.Equal(c.LastBusinessDayOfMonth(t))
}
