// Package instruments holds the lazily priced instrument base and the
// pricing engine protocol.
package instruments

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/qlgo/patterns"
)

var (
	// ErrNoEngine is returned when an instrument is priced without an engine.
	ErrNoEngine = errors.New("instruments: null pricing engine")
)

// Arguments are the inputs an instrument hands to its engine.
type Arguments interface {
	Validate() error
}

// Results are what an engine returns.
type Results struct {
	Value         float64
	ErrorEstimate float64
	ValuationDate time.Time
	Additional    map[string]float64
}

// PricingEngine prices instruments. Engines are observable so that
// instruments recalculate when the engine's market data moves.
type PricingEngine interface {
	patterns.Observable
	Calculate(args Arguments) (Results, error)
}

// Instrument caches the results of its engine.
//
// Concrete instruments embed it and supply two hooks: one that fills in the
// engine arguments and one that reports expiry. Expired instruments are
// worth zero and never reach the engine.
type Instrument struct {
	*patterns.LazyObject

	engine    PricingEngine
	arguments func() (Arguments, error)
	isExpired func() bool
	expired   Results

	results Results
}

// New returns an instrument with no engine.
func New(arguments func() (Arguments, error), isExpired func() bool, opts ...patterns.Option) *Instrument {
	inst := &Instrument{arguments: arguments, isExpired: isExpired}
	opts = append([]patterns.Option{patterns.WithName("instrument")}, opts...)
	inst.LazyObject = patterns.NewLazyObject(inst.performCalculations, opts...)
	return inst
}

// SetExpiredResults sets what the instrument reports once expired, so that
// additional results read by concrete instruments stay available.
func (inst *Instrument) SetExpiredResults(r Results) {
	inst.expired = r
}

// SetPricingEngine swaps the engine and invalidates cached results.
func (inst *Instrument) SetPricingEngine(e PricingEngine) error {
	if inst.engine != nil {
		inst.Unobserve(inst.engine)
	}
	inst.engine = e
	if e != nil {
		inst.Observe(e)
	}
	return inst.Update()
}

// PricingEngine returns the current engine, possibly nil.
func (inst *Instrument) PricingEngine() PricingEngine {
	return inst.engine
}

// IsExpired reports whether the instrument has no remaining value.
func (inst *Instrument) IsExpired() bool {
	return inst.isExpired != nil && inst.isExpired()
}

func (inst *Instrument) performCalculations() error {
	if inst.IsExpired() {
		inst.results = inst.expired
		if inst.expired.Additional != nil {
			inst.results.Additional = make(map[string]float64, len(inst.expired.Additional))
			for k, v := range inst.expired.Additional {
				inst.results.Additional[k] = v
			}
		}
		return nil
	}
	if inst.engine == nil {
		return ErrNoEngine
	}
	if inst.arguments == nil {
		return fmt.Errorf("%s: no arguments", inst.Name())
	}
	args, err := inst.arguments()
	if err != nil {
		return fmt.Errorf("%s: %w", inst.Name(), err)
	}
	if err := args.Validate(); err != nil {
		return fmt.Errorf("%s: %w", inst.Name(), err)
	}
	res, err := inst.engine.Calculate(args)
	if err != nil {
		return fmt.Errorf("%s: %w", inst.Name(), err)
	}
	inst.results = res
	return nil
}

// NPV returns the net present value, pricing first if needed.
func (inst *Instrument) NPV() (float64, error) {
	if err := inst.Calculate(); err != nil {
		return 0, err
	}
	return inst.results.Value, nil
}

func (inst *Instrument) ErrorEstimate() (float64, error) {
	if err := inst.Calculate(); err != nil {
		return 0, err
	}
	return inst.results.ErrorEstimate, nil
}

func (inst *Instrument) ValuationDate() (time.Time, error) {
	if err := inst.Calculate(); err != nil {
		return time.Time{}, err
	}
	return inst.results.ValuationDate, nil
}

// Result returns an additional engine result by name.
func (inst *Instrument) Result(name string) (float64, error) {
	if err := inst.Calculate(); err != nil {
		return 0, err
	}
	v, ok := inst.results.Additional[name]
	if !ok {
		return 0, fmt.Errorf("%s: %s not provided", inst.Name(), name)
	}
	return v, nil
}
