package patterns_test

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/qlgo/patterns"
)

// squarer is a minimal analytic: it caches input*input.
type squarer struct {
	*patterns.LazyObject

	input  float64
	result float64
	runs   int
	fail   error
}

func newSquarer(input float64) *squarer {
	s := &squarer{input: input}
	s.LazyObject = patterns.NewLazyObject(s.performCalculations, patterns.WithName("squarer"))
	return s
}

func (s *squarer) performCalculations() error {
	s.runs++
	if s.fail != nil {
		return s.fail
	}
	s.result = s.input * s.input
	return nil
}

func (s *squarer) Result() (float64, error) {
	if err := s.Calculate(); err != nil {
		return 0, err
	}
	return s.result, nil
}

func TestLazyObject_InitialState(t *testing.T) {
	t.Parallel()

	s := newSquarer(3)
	assert.False(t, s.Calculated())
	assert.False(t, s.Frozen())
	assert.Equal(t, "squarer", s.Name())
}

func TestLazyObject_LoggerIsTagged(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lo := patterns.NewLazyObject(func() error { return nil },
		patterns.WithName("curve"), patterns.WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))

	lo.Logger().Debug().Int("nodes", 3).Msg("bootstrapped")
	assert.Contains(t, buf.String(), `"object":"curve"`)
	assert.Contains(t, buf.String(), `"nodes":3`)
	assert.Contains(t, buf.String(), lo.ID().String())
}

func TestLazyObject_CalculateIsCached(t *testing.T) {
	t.Parallel()

	s := newSquarer(3)
	first, err := s.Result()
	require.NoError(t, err)
	second, err := s.Result()
	require.NoError(t, err)

	assert.Equal(t, 9.0, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, s.runs)
	assert.True(t, s.Calculated())
}

func TestLazyObject_InvalidationPropagates(t *testing.T) {
	t.Parallel()

	input := patterns.NewSubject()
	b := newSquarer(2)
	b.Observe(input)

	downstream := &countingObserver{}
	b.RegisterObserver(downstream)

	_, err := b.Result()
	require.NoError(t, err)
	require.True(t, b.Calculated())

	require.NoError(t, input.NotifyObservers())
	assert.False(t, b.Calculated())
	assert.Equal(t, 1, downstream.updates)

	// already uncalculated: nothing left to invalidate downstream
	require.NoError(t, input.NotifyObservers())
	assert.Equal(t, 1, downstream.updates)

	b.input = 5
	v, err := b.Result()
	require.NoError(t, err)
	assert.Equal(t, 25.0, v)
	assert.Equal(t, 2, b.runs)
}

func TestLazyObject_FrozenInvalidationDoesNotPropagate(t *testing.T) {
	t.Parallel()

	input := patterns.NewSubject()
	b := newSquarer(2)
	b.Observe(input)
	downstream := &countingObserver{}
	b.RegisterObserver(downstream)

	_, err := b.Result()
	require.NoError(t, err)
	b.Freeze()

	require.NoError(t, input.NotifyObservers())
	assert.False(t, b.Calculated())
	assert.Equal(t, 0, downstream.updates)
}

func TestLazyObject_FreezeReturnsStaleResult(t *testing.T) {
	t.Parallel()

	input := patterns.NewSubject()
	s := newSquarer(2)
	s.Observe(input)
	downstream := &countingObserver{}
	s.RegisterObserver(downstream)

	_, err := s.Result()
	require.NoError(t, err)
	s.Freeze()

	s.input = 10
	require.NoError(t, input.NotifyObservers())
	for i := 0; i < 3; i++ {
		v, err := s.Result()
		require.NoError(t, err)
		assert.Equal(t, 4.0, v)
	}
	assert.Equal(t, 1, s.runs)

	require.NoError(t, s.Unfreeze())
	assert.Equal(t, 1, downstream.updates)
	assert.False(t, s.Frozen())

	v, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)
}

func TestLazyObject_FreezeBeforeFirstCalculation(t *testing.T) {
	t.Parallel()

	s := newSquarer(3)
	s.Freeze()
	v, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 0, s.runs)
}

func TestLazyObject_ErrorRollsBack(t *testing.T) {
	t.Parallel()

	errBad := errors.New("bad input")
	s := newSquarer(3)
	s.fail = errBad

	_, err := s.Result()
	require.ErrorIs(t, err, errBad)
	assert.Same(t, errBad, err)
	assert.False(t, s.Calculated())

	s.fail = nil
	v, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, 9.0, v)
	assert.Equal(t, 2, s.runs)
}

func TestLazyObject_PanicRollsBack(t *testing.T) {
	t.Parallel()

	lo := patterns.NewLazyObject(func() error { panic("no curve") })

	err := lo.Calculate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no curve")
	assert.False(t, lo.Calculated())
}

func TestLazyObject_NilBodyIsNotImplemented(t *testing.T) {
	t.Parallel()

	lo := patterns.NewLazyObject(nil)
	require.ErrorIs(t, lo.Calculate(), patterns.ErrNotImplemented)
	assert.False(t, lo.Calculated())
}

func TestLazyObject_RecalculateNotifiesAndRestoresFrozen(t *testing.T) {
	t.Parallel()

	s := newSquarer(2)
	downstream := &countingObserver{}
	s.RegisterObserver(downstream)

	_, err := s.Result()
	require.NoError(t, err)
	s.Freeze()
	s.input = 4

	require.NoError(t, s.Recalculate())
	assert.True(t, s.Frozen())
	assert.True(t, s.Calculated())
	assert.Equal(t, 1, downstream.updates)
	v, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, 16.0, v)
	assert.Equal(t, 2, s.runs)
}

func TestLazyObject_RecalculateNotifiesOnFailure(t *testing.T) {
	t.Parallel()

	errBad := errors.New("bootstrap failed")
	s := newSquarer(2)
	s.Freeze()
	s.fail = errBad

	var frozenSeen bool
	notified := 0
	s.RegisterObserver(&hookObserver{fn: func() error {
		notified++
		frozenSeen = s.Frozen()
		return nil
	}})

	err := s.Recalculate()
	require.ErrorIs(t, err, errBad)
	assert.Equal(t, 1, notified)
	assert.True(t, frozenSeen, "frozen flag must be restored before observers run")
	assert.True(t, s.Frozen())
	assert.False(t, s.Calculated())
}

func TestLazyObject_RecalculateJoinsNotificationError(t *testing.T) {
	t.Parallel()

	errCalc := errors.New("calc")
	errObs := errors.New("observer")
	s := newSquarer(2)
	s.fail = errCalc
	s.RegisterObserver(&countingObserver{err: errObs})

	err := s.Recalculate()
	assert.ErrorIs(t, err, errCalc)
	assert.ErrorIs(t, err, errObs)
}

func TestLazyObject_ReentrantReadDoesNotRecurse(t *testing.T) {
	t.Parallel()

	var lo *patterns.LazyObject
	depth := 0
	lo = patterns.NewLazyObject(func() error {
		depth++
		if depth > 1 {
			return errors.New("recursed")
		}
		return lo.Calculate()
	})

	require.NoError(t, lo.Calculate())
	assert.Equal(t, 1, depth)
}

func TestLazyObject_CloseDeregisters(t *testing.T) {
	t.Parallel()

	a, b := patterns.NewSubject(), patterns.NewSubject()
	s := newSquarer(1)
	s.Observe(a, b, a)
	assert.Equal(t, 1, a.Observers())
	assert.Equal(t, 1, b.Observers())

	s.Unobserve(b)
	assert.Equal(t, 0, b.Observers())

	require.NoError(t, s.Close())
	assert.Equal(t, 0, a.Observers())
}

func TestLazyObject_ConcurrentCalculateRunsOnce(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	runs := 0
	lo := patterns.NewLazyObject(func() error {
		mu.Lock()
		runs++
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = lo.Calculate()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, runs)
}

type recorderSpy struct {
	calculations  int
	failures      int
	invalidations int
	notifications int
}

func (r *recorderSpy) Calculation(_ string, _ time.Duration, err error) {
	r.calculations++
	if err != nil {
		r.failures++
	}
}
func (r *recorderSpy) Invalidation(string)      { r.invalidations++ }
func (r *recorderSpy) Notification(string, int) { r.notifications++ }

func TestLazyObject_RecorderSeesLifecycle(t *testing.T) {
	t.Parallel()

	spy := &recorderSpy{}
	fail := true
	lo := patterns.NewLazyObject(func() error {
		if fail {
			return errors.New("x")
		}
		return nil
	}, patterns.WithRecorder(spy))

	require.Error(t, lo.Calculate())
	fail = false
	require.NoError(t, lo.Calculate())
	require.NoError(t, lo.Update())
	require.NoError(t, lo.Unfreeze())

	assert.Equal(t, 2, spy.calculations)
	assert.Equal(t, 1, spy.failures)
	assert.Equal(t, 1, spy.invalidations)
	assert.Equal(t, 2, spy.notifications)
}

type hookObserver struct {
	fn func() error
}

func (h *hookObserver) Update() error { return h.fn() }
