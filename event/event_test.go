package event_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/qlgo/event"
	"github.com/meenmo/qlgo/patterns"
	"github.com/meenmo/qlgo/utils"
)

type fixing struct {
	event.Base
}

func (f *fixing) Accept(v patterns.AcyclicVisitor) error {
	return event.Accept(f, v)
}

func newFixing(d time.Time) *fixing {
	return &fixing{Base: event.NewBase(d)}
}

func TestHasOccurred_LiteralCases(t *testing.T) {
	t.Parallel()

	e := newFixing(utils.MustDate(2025, 1, 10))

	assert.True(t, e.HasOccurred(utils.MustDate(2025, 1, 10)))
	assert.False(t, e.HasOccurredToday(utils.MustDate(2025, 1, 10), true))
	assert.True(t, e.HasOccurredToday(utils.MustDate(2025, 1, 10), false))
	assert.True(t, e.HasOccurredToday(utils.MustDate(2025, 1, 11), false))
	assert.True(t, e.HasOccurredToday(utils.MustDate(2025, 1, 11), true))
	assert.False(t, e.HasOccurred(utils.MustDate(2025, 1, 9)))
}

func TestHasOccurred_IgnoresClock(t *testing.T) {
	t.Parallel()

	e := newFixing(time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC))
	assert.True(t, e.HasOccurred(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)))
}

func TestAccept(t *testing.T) {
	t.Parallel()

	e := newFixing(utils.MustDate(2025, 1, 10))

	var seen []time.Time
	visitor := patterns.VisitorFunc[event.Event](func(ev event.Event) {
		seen = append(seen, ev.Date())
	})
	require.NoError(t, e.Accept(visitor))
	require.Len(t, seen, 1)
	assert.True(t, seen[0].Equal(e.Date()))

	err := e.Accept(nil)
	require.ErrorIs(t, err, patterns.ErrInvalidVisitor)
	assert.Contains(t, err.Error(), "not an event visitor")
	assert.Len(t, seen, 1)

	err = e.Accept(patterns.VisitorFunc[string](func(string) { t.Fatal("string visitor called") }))
	assert.ErrorIs(t, err, patterns.ErrUnsupportedVisitor)
}

func TestEvent_IsObservable(t *testing.T) {
	t.Parallel()

	var e event.Event = newFixing(utils.MustDate(2025, 1, 10))
	assert.NoError(t, e.NotifyObservers())
}
