// Package marketdata supplies quote values by key and date, and pushes them
// into the quotes a curve or instrument observes.
package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/meenmo/qlgo/utils"
)

// Feed supplies quote values (e.g., a CD91 fixing or a swap par rate) by key and date.
type Feed interface {
	RateOn(ctx context.Context, key string, date time.Time) (float64, bool, error)
}

// MapFeed is a static map-backed implementation for development/testing.
type MapFeed struct {
	mu    sync.RWMutex
	rates map[string]map[string]float64
}

// NewMapFeed returns a feed over rates, keyed by quote key then ISO date.
func NewMapFeed(rates map[string]map[string]float64) *MapFeed {
	if rates == nil {
		rates = make(map[string]map[string]float64)
	}
	return &MapFeed{rates: rates}
}

// Set records a value for key on date.
func (m *MapFeed) Set(key string, date time.Time, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDate, ok := m.rates[key]
	if !ok {
		byDate = make(map[string]float64)
		m.rates[key] = byDate
	}
	byDate[date.Format(utils.DateLayout)] = value
}

func (m *MapFeed) RateOn(_ context.Context, key string, date time.Time) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.rates[key][date.Format(utils.DateLayout)]
	return val, ok, nil
}
