// Package patterns provides the notification fabric, the lazy calculation
// cache and the acyclic visitor dispatch shared by every analytic object.
package patterns

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Observer reacts to change notifications from the Observables it registered with.
type Observer interface {
	Update() error
}

// Observable is anything that can be watched for change.
//
// Observers are held by identity, so implementations should be pointer types.
type Observable interface {
	RegisterObserver(o Observer) bool
	UnregisterObserver(o Observer) bool
	NotifyObservers() error
}

// Subject is the default Observable. The zero value is not usable; call NewSubject.
type Subject struct {
	id uuid.UUID

	mu        sync.RWMutex
	observers []Observer
	index     map[Observer]int
}

// NewSubject returns a Subject with an empty observer set.
func NewSubject() *Subject {
	return &Subject{
		id:    uuid.New(),
		index: make(map[Observer]int),
	}
}

// ID identifies the subject in log output.
func (s *Subject) ID() uuid.UUID {
	return s.id
}

// RegisterObserver adds o to the notification set. It reports false when o
// was already registered.
func (s *Subject) RegisterObserver(o Observer) bool {
	if o == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[o]; ok {
		return false
	}
	s.index[o] = len(s.observers)
	s.observers = append(s.observers, o)
	return true
}

// UnregisterObserver removes o. It reports false when o was not registered.
func (s *Subject) UnregisterObserver(o Observer) bool {
	if o == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[o]
	if !ok {
		return false
	}
	delete(s.index, o)
	copy(s.observers[i:], s.observers[i+1:])
	s.observers[len(s.observers)-1] = nil
	s.observers = s.observers[:len(s.observers)-1]
	for j := i; j < len(s.observers); j++ {
		s.index[s.observers[j]] = j
	}
	return true
}

// Observers returns the number of registered observers.
func (s *Subject) Observers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// NotifyObservers calls Update on a snapshot of the registered observers.
//
// Every observer is called even if an earlier one fails or panics; the
// failures are joined into the returned error.
func (s *Subject) NotifyObservers() error {
	s.mu.RLock()
	snapshot := make([]Observer, len(s.observers))
	copy(snapshot, s.observers)
	s.mu.RUnlock()

	var errs []error
	for _, o := range snapshot {
		if err := safeUpdate(o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func safeUpdate(o Observer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer %T panicked: %v", o, r)
		}
	}()
	return o.Update()
}
