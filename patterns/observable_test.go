package patterns_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/qlgo/patterns"
)

type countingObserver struct {
	updates int
	err     error
	panics  bool
}

func (c *countingObserver) Update() error {
	c.updates++
	if c.panics {
		panic("boom")
	}
	return c.err
}

func TestSubject_RegisterIsIdempotent(t *testing.T) {
	t.Parallel()

	s := patterns.NewSubject()
	obs := &countingObserver{}

	assert.True(t, s.RegisterObserver(obs))
	assert.False(t, s.RegisterObserver(obs))
	assert.Equal(t, 1, s.Observers())

	require.NoError(t, s.NotifyObservers())
	assert.Equal(t, 1, obs.updates)
}

func TestSubject_UnregisterAbsentIsNoop(t *testing.T) {
	t.Parallel()

	s := patterns.NewSubject()
	a, b, c := &countingObserver{}, &countingObserver{}, &countingObserver{}
	s.RegisterObserver(a)
	s.RegisterObserver(b)
	s.RegisterObserver(c)

	assert.True(t, s.UnregisterObserver(b))
	assert.False(t, s.UnregisterObserver(b))
	assert.False(t, s.UnregisterObserver(nil))
	assert.Equal(t, 2, s.Observers())

	require.NoError(t, s.NotifyObservers())
	assert.Equal(t, 1, a.updates)
	assert.Equal(t, 0, b.updates)
	assert.Equal(t, 1, c.updates)

	// the index must survive the removal in the middle
	assert.True(t, s.UnregisterObserver(c))
	assert.True(t, s.UnregisterObserver(a))
	assert.Equal(t, 0, s.Observers())
}

func TestSubject_FailingObserverDoesNotSuppressOthers(t *testing.T) {
	t.Parallel()

	errFirst := errors.New("first failed")
	s := patterns.NewSubject()
	failing := &countingObserver{err: errFirst}
	panicking := &countingObserver{panics: true}
	healthy := &countingObserver{}
	s.RegisterObserver(failing)
	s.RegisterObserver(panicking)
	s.RegisterObserver(healthy)

	err := s.NotifyObservers()
	require.Error(t, err)
	assert.ErrorIs(t, err, errFirst)
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, 1, failing.updates)
	assert.Equal(t, 1, panicking.updates)
	assert.Equal(t, 1, healthy.updates)
}

type selfRemovingObserver struct {
	s       *patterns.Subject
	updates int
}

func (o *selfRemovingObserver) Update() error {
	o.updates++
	o.s.UnregisterObserver(o)
	return nil
}

func TestSubject_NotifyUsesSnapshot(t *testing.T) {
	t.Parallel()

	s := patterns.NewSubject()
	self := &selfRemovingObserver{s: s}
	other := &countingObserver{}
	s.RegisterObserver(self)
	s.RegisterObserver(other)

	require.NoError(t, s.NotifyObservers())
	require.NoError(t, s.NotifyObservers())

	assert.Equal(t, 1, self.updates)
	assert.Equal(t, 2, other.updates)
}
