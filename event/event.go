// Package event defines dated events, the base of every cashflow.
package event

import (
	"fmt"
	"time"

	"github.com/meenmo/qlgo/patterns"
	"github.com/meenmo/qlgo/utils"
)

// Event is something that happens on a given date.
type Event interface {
	patterns.Observable

	Date() time.Time
	// HasOccurred reports whether the event date is on or before d.
	HasOccurred(d time.Time) bool
	// HasOccurredToday compares strictly (date < d) when includeToday is
	// true and inclusively (date <= d) otherwise.
	HasOccurredToday(d time.Time, includeToday bool) bool
	Accept(v patterns.AcyclicVisitor) error
}

// Base carries the date of an event. Concrete events embed it and override
// Accept to offer their own views first.
type Base struct {
	*patterns.Subject
	date time.Time
}

// NewBase returns a Base for the calendar day of date.
func NewBase(date time.Time) Base {
	return Base{Subject: patterns.NewSubject(), date: utils.DateOnly(date)}
}

func (b Base) Date() time.Time {
	return b.date
}

func (b Base) HasOccurred(d time.Time) bool {
	return !b.date.After(utils.DateOnly(d))
}

func (b Base) HasOccurredToday(d time.Time, includeToday bool) bool {
	d = utils.DateOnly(d)
	if includeToday {
		return b.date.Before(d)
	}
	return !b.date.After(d)
}

// Accept offers the event to v as an Event.
func Accept(e Event, v patterns.AcyclicVisitor) error {
	return Wrap(patterns.Dispatch(v, patterns.As[Event](e)))
}

// Wrap turns dispatch failures into errors that name the event protocol.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("not an event visitor: %w", err)
}
