package patterns

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrNotImplemented is returned by Calculate when no calculation hook was supplied.
	ErrNotImplemented = errors.New("patterns: performCalculations not implemented")
)

// Recorder receives lifecycle events of lazy objects, typically for metrics.
type Recorder interface {
	Calculation(name string, elapsed time.Duration, err error)
	Invalidation(name string)
	Notification(name string, observers int)
}

type nopRecorder struct{}

func (nopRecorder) Calculation(string, time.Duration, error) {}
func (nopRecorder) Invalidation(string)                      {}
func (nopRecorder) Notification(string, int)                 {}

// Option configures a LazyObject.
type Option func(*LazyObject)

// WithLogger sets the logger used for calculation events.
func WithLogger(log zerolog.Logger) Option {
	return func(l *LazyObject) { l.log = log }
}

// WithRecorder sets the recorder notified of calculations and invalidations.
func WithRecorder(r Recorder) Option {
	return func(l *LazyObject) {
		if r != nil {
			l.rec = r
		}
	}
}

// WithName labels the object in logs and metrics.
func WithName(name string) Option {
	return func(l *LazyObject) { l.name = name }
}

// LazyObject caches the result of a calculation until one of its inputs
// changes. It is both an Observable and an Observer.
//
// Results live in the embedding type; perform fills them in. Reads of those
// results should call Calculate first.
type LazyObject struct {
	*Subject

	perform func() error
	name    string
	log     zerolog.Logger
	rec     Recorder

	mu         sync.Mutex
	calculated bool
	frozen     bool

	inputs []Observable
}

// NewLazyObject returns an uncalculated, unfrozen LazyObject whose
// calculation body is perform.
func NewLazyObject(perform func() error, opts ...Option) *LazyObject {
	l := &LazyObject{
		Subject: NewSubject(),
		perform: perform,
		name:    "lazy",
		log:     zerolog.Nop(),
		rec:     nopRecorder{},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With().Str("object", l.name).Str("id", l.ID().String()).Logger()
	return l
}

// Name returns the label given with WithName.
func (l *LazyObject) Name() string {
	return l.name
}

// Logger returns the object's logger, already tagged with its name and id.
func (l *LazyObject) Logger() *zerolog.Logger {
	return &l.log
}

// Calculated reports whether a cached result is available.
func (l *LazyObject) Calculated() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calculated
}

// Frozen reports whether recalculation is suppressed.
func (l *LazyObject) Frozen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frozen
}

// Update invalidates the cache. Observers are only told when a valid result
// is being discarded and the object is not frozen.
func (l *LazyObject) Update() error {
	l.mu.Lock()
	notify := !l.frozen && l.calculated
	l.calculated = false
	l.mu.Unlock()

	l.rec.Invalidation(l.name)
	l.log.Debug().Bool("propagate", notify).Msg("invalidated")
	if notify {
		return l.notify()
	}
	return nil
}

// Calculate runs the calculation body unless a result is cached or the
// object is frozen.
//
// The object is marked calculated before the body runs, so a body that ends
// up reading its own results (bootstrapping loops) does not recurse. If the
// body fails the mark is rolled back and the error returned unchanged.
func (l *LazyObject) Calculate() error {
	l.mu.Lock()
	if l.calculated || l.frozen {
		l.mu.Unlock()
		return nil
	}
	l.calculated = true
	l.mu.Unlock()

	start := time.Now()
	err := l.run()
	elapsed := time.Since(start)
	l.rec.Calculation(l.name, elapsed, err)

	if err != nil {
		l.mu.Lock()
		l.calculated = false
		l.mu.Unlock()
		l.log.Warn().Err(err).Dur("elapsed", elapsed).Msg("calculation failed")
		return err
	}
	l.log.Debug().Dur("elapsed", elapsed).Msg("calculated")
	return nil
}

func (l *LazyObject) run() (err error) {
	if l.perform == nil {
		return ErrNotImplemented
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: calculation panicked: %v", l.name, r)
		}
	}()
	return l.perform()
}

// Recalculate forces a fresh calculation even when frozen or calculated.
//
// The frozen flag is restored afterwards and observers are notified whether
// or not the calculation succeeded.
func (l *LazyObject) Recalculate() error {
	l.mu.Lock()
	wasFrozen := l.frozen
	l.calculated = false
	l.frozen = false
	l.mu.Unlock()

	err := l.Calculate()

	l.mu.Lock()
	l.frozen = wasFrozen
	l.mu.Unlock()

	nerr := l.notify()
	if err == nil {
		return nerr
	}
	if nerr != nil {
		return errors.Join(err, nerr)
	}
	return err
}

// Freeze makes Calculate return the cached results, stale or not, until Unfreeze.
func (l *LazyObject) Freeze() {
	l.mu.Lock()
	l.frozen = true
	l.mu.Unlock()
}

// Unfreeze re-enables recalculation and notifies observers, since
// invalidations received while frozen were not propagated.
func (l *LazyObject) Unfreeze() error {
	l.mu.Lock()
	l.frozen = false
	l.mu.Unlock()
	return l.notify()
}

// Observe registers the object with each input and remembers it for Close.
func (l *LazyObject) Observe(inputs ...Observable) {
	for _, in := range inputs {
		if in == nil {
			continue
		}
		if in.RegisterObserver(l) {
			l.mu.Lock()
			l.inputs = append(l.inputs, in)
			l.mu.Unlock()
		}
	}
}

// Unobserve deregisters the object from a single input.
func (l *LazyObject) Unobserve(in Observable) {
	if in == nil {
		return
	}
	in.UnregisterObserver(l)
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, o := range l.inputs {
		if o == in {
			l.inputs = append(l.inputs[:i], l.inputs[i+1:]...)
			return
		}
	}
}

// Close deregisters the object from every input it observes.
func (l *LazyObject) Close() error {
	l.mu.Lock()
	inputs := l.inputs
	l.inputs = nil
	l.mu.Unlock()

	for _, in := range inputs {
		in.UnregisterObserver(l)
	}
	return nil
}

func (l *LazyObject) notify() error {
	l.rec.Notification(l.name, l.Observers())
	return l.NotifyObservers()
}
