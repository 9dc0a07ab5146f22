package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/meenmo/qlgo/quote"
	"github.com/meenmo/qlgo/utils"
)

// Binder keeps a set of quotes in step with a feed. Refresh only pushes
// values; whatever observes the quotes recalculates on its next read.
type Binder struct {
	feed Feed
	log  zerolog.Logger

	mu     sync.Mutex
	quotes map[string]*quote.SimpleQuote
}

func NewBinder(feed Feed, log zerolog.Logger) *Binder {
	return &Binder{feed: feed, log: log, quotes: make(map[string]*quote.SimpleQuote)}
}

// Bind returns the quote fed by key, creating an empty one on first use.
func (b *Binder) Bind(key string) *quote.SimpleQuote {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.quotes[key]
	if !ok {
		q = quote.NewEmptyQuote()
		b.quotes[key] = q
	}
	return q
}

// Keys lists the bound keys in order.
func (b *Binder) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.quotes))
	for k := range b.quotes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Refresh loads every bound key for date. Keys missing from the feed have
// their quotes reset to invalid. All keys are attempted; failures are joined.
func (b *Binder) Refresh(ctx context.Context, date time.Time) error {
	var errs []error
	changed := 0
	for _, key := range b.Keys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		q := b.Bind(key)
		v, ok, err := b.feed.RateOn(ctx, key, date)
		if err != nil {
			errs = append(errs, fmt.Errorf("Refresh: %s: %w", key, err))
			continue
		}
		if !ok {
			b.log.Warn().Str("key", key).Str("date", date.Format(utils.DateLayout)).Msg("no quote")
			if err := q.Reset(); err != nil {
				errs = append(errs, fmt.Errorf("Refresh: %s: %w", key, err))
			}
			continue
		}
		diff, err := q.SetValue(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("Refresh: %s: %w", key, err))
		}
		if diff != 0 {
			changed++
		}
	}
	b.log.Debug().Str("date", date.Format(utils.DateLayout)).Int("changed", changed).Msg("quotes refreshed")
	return errors.Join(errs...)
}
