package bonds

import (
	"fmt"

	"github.com/meenmo/qlgo/cashflow"
	"github.com/meenmo/qlgo/instruments"
	"github.com/meenmo/qlgo/patterns"
	"github.com/meenmo/qlgo/termstructure"
)

// SettlementValue names the additional result holding the value of the
// bond at its settlement date.
const SettlementValue = "settlementValue"

// DiscountingEngine prices bonds by discounting their cashflows on a curve.
// It notifies the bonds using it whenever the curve changes or is relinked.
type DiscountingEngine struct {
	*patterns.Subject
	curve *termstructure.Handle
}

func NewDiscountingEngine(curve *termstructure.Handle) *DiscountingEngine {
	e := &DiscountingEngine{Subject: patterns.NewSubject(), curve: curve}
	curve.RegisterObserver(e)
	return e
}

func (e *DiscountingEngine) Update() error {
	return e.NotifyObservers()
}

func (e *DiscountingEngine) Calculate(args instruments.Arguments) (instruments.Results, error) {
	a, ok := args.(*Arguments)
	if !ok {
		return instruments.Results{}, fmt.Errorf("DiscountingEngine: unexpected arguments %T", args)
	}
	ts, err := e.curve.Link()
	if err != nil {
		return instruments.Results{}, fmt.Errorf("DiscountingEngine: %w", err)
	}
	ref := ts.ReferenceDate()

	npv, err := cashflow.NPV(a.Cashflows, ts, ref, ref)
	if err != nil {
		return instruments.Results{}, fmt.Errorf("DiscountingEngine: %w", err)
	}
	settlementValue, err := cashflow.NPV(a.Cashflows, ts, a.SettlementDate, a.SettlementDate)
	if err != nil {
		return instruments.Results{}, fmt.Errorf("DiscountingEngine: %w", err)
	}
	return instruments.Results{
		Value:         npv,
		ValuationDate: ref,
		Additional:    map[string]float64{SettlementValue: settlementValue},
	}, nil
}
