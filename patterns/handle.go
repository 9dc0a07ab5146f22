package patterns

import (
	"errors"
	"sync"
)

// ErrEmptyHandle is returned when dereferencing a handle that points nowhere.
var ErrEmptyHandle = errors.New("patterns: empty handle")

// Handle is a relinkable reference to an Observable. Observers of the handle
// are told both when the target changes and when the handle is relinked.
type Handle[T Observable] struct {
	*Subject

	mu     sync.RWMutex
	link   T
	linked bool
}

// NewHandle returns a handle linked to target.
func NewHandle[T Observable](target T) *Handle[T] {
	h := &Handle[T]{Subject: NewSubject()}
	h.set(target)
	return h
}

// EmptyHandle returns a handle with no target.
func EmptyHandle[T Observable]() *Handle[T] {
	return &Handle[T]{Subject: NewSubject()}
}

// Link returns the current target.
func (h *Handle[T]) Link() (T, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.linked {
		var zero T
		return zero, ErrEmptyHandle
	}
	return h.link, nil
}

// Empty reports whether the handle has no target.
func (h *Handle[T]) Empty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.linked
}

// LinkTo points the handle at target and notifies its observers.
func (h *Handle[T]) LinkTo(target T) error {
	h.set(target)
	return h.NotifyObservers()
}

func (h *Handle[T]) set(target T) {
	h.mu.Lock()
	old, wasLinked := h.link, h.linked
	h.link = target
	h.linked = any(target) != nil
	h.mu.Unlock()

	if wasLinked {
		old.UnregisterObserver(h)
	}
	if h.linked {
		target.RegisterObserver(h)
	}
}

// Update forwards a change of the target to the handle's observers.
func (h *Handle[T]) Update() error {
	return h.NotifyObservers()
}
