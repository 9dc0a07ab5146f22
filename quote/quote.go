// Package quote holds observable market quotes.
package quote

import (
	"errors"
	"math"
	"sync"

	"github.com/meenmo/qlgo/patterns"
)

// ErrInvalidQuote is returned when reading a quote that has no value.
var ErrInvalidQuote = errors.New("quote: invalid value")

// Quote is an observable market value.
type Quote interface {
	patterns.Observable
	Value() (float64, error)
	IsValid() bool
}

// SimpleQuote is a quote set by the caller.
type SimpleQuote struct {
	*patterns.Subject

	mu    sync.RWMutex
	value float64
	valid bool
}

// NewSimpleQuote returns a valid quote holding v.
func NewSimpleQuote(v float64) *SimpleQuote {
	return &SimpleQuote{Subject: patterns.NewSubject(), value: v, valid: true}
}

// NewEmptyQuote returns a quote without a value.
func NewEmptyQuote() *SimpleQuote {
	return &SimpleQuote{Subject: patterns.NewSubject()}
}

func (q *SimpleQuote) Value() (float64, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.valid {
		return 0, ErrInvalidQuote
	}
	return q.value, nil
}

func (q *SimpleQuote) IsValid() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.valid
}

// SetValue stores v and returns the change. Observers are notified only if
// the value actually changed.
func (q *SimpleQuote) SetValue(v float64) (float64, error) {
	q.mu.Lock()
	diff := v - q.value
	changed := !q.valid || diff != 0 || math.IsNaN(diff)
	q.value = v
	q.valid = true
	q.mu.Unlock()

	if !changed {
		return 0, nil
	}
	return diff, q.NotifyObservers()
}

// Reset invalidates the quote and notifies observers.
func (q *SimpleQuote) Reset() error {
	q.mu.Lock()
	q.valid = false
	q.mu.Unlock()
	return q.NotifyObservers()
}

// Handle is a relinkable quote reference.
type Handle = patterns.Handle[Quote]

// NewHandle links a handle to q.
func NewHandle(q Quote) *Handle {
	return patterns.NewHandle[Quote](q)
}

// Value dereferences h and reads its quote.
func Value(h *Handle) (float64, error) {
	q, err := h.Link()
	if err != nil {
		return 0, err
	}
	return q.Value()
}
