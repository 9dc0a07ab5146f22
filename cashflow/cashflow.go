// Package cashflow models dated payments, coupons and legs, and the
// analytics that only need a leg and a curve.
package cashflow

import (
	"time"

	"github.com/meenmo/qlgo/event"
	"github.com/meenmo/qlgo/patterns"
)

// CashFlow is a dated payment.
//
// Amounts are in currency units (e.g., EUR), not price-per-100.
type CashFlow interface {
	event.Event
	Amount() float64
}

// Leg is a sequence of cashflows ordered by date.
type Leg []CashFlow

// SimpleCashFlow is a fixed amount paid on a date.
type SimpleCashFlow struct {
	event.Base
	amount float64
}

// NewSimpleCashFlow returns a payment of amount on date.
func NewSimpleCashFlow(amount float64, date time.Time) *SimpleCashFlow {
	return &SimpleCashFlow{Base: event.NewBase(date), amount: amount}
}

func (c *SimpleCashFlow) Amount() float64 {
	return c.amount
}

func (c *SimpleCashFlow) Accept(v patterns.AcyclicVisitor) error {
	return event.Wrap(patterns.Dispatch(v,
		patterns.As[*SimpleCashFlow](c),
		patterns.As[CashFlow](c),
		patterns.As[event.Event](c),
	))
}

// Redemption is the repayment of principal.
type Redemption struct {
	SimpleCashFlow
}

// NewRedemption returns a principal repayment of amount on date.
func NewRedemption(amount float64, date time.Time) *Redemption {
	return &Redemption{SimpleCashFlow: *NewSimpleCashFlow(amount, date)}
}

func (r *Redemption) Accept(v patterns.AcyclicVisitor) error {
	return event.Wrap(patterns.Dispatch(v,
		patterns.As[*Redemption](r),
		patterns.As[CashFlow](r),
		patterns.As[event.Event](r),
	))
}
