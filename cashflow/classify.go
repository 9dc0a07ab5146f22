package cashflow

import (
	"fmt"

	"github.com/meenmo/qlgo/patterns"
)

// Classification splits a leg by cashflow kind.
type Classification struct {
	Coupons     []Coupon
	Redemptions []*Redemption
	Others      []CashFlow
}

// Classify visits every cashflow in leg and sorts it into coupons,
// redemptions and anything else.
func Classify(leg Leg) (Classification, error) {
	var out Classification
	v := patterns.NewComposite()
	patterns.On(v, func(c Coupon) { out.Coupons = append(out.Coupons, c) })
	patterns.On(v, func(r *Redemption) { out.Redemptions = append(out.Redemptions, r) })
	patterns.On(v, func(cf CashFlow) { out.Others = append(out.Others, cf) })

	for i, cf := range leg {
		if cf == nil {
			return Classification{}, fmt.Errorf("Classify: cashflow %d is nil", i)
		}
		if err := cf.Accept(v); err != nil {
			return Classification{}, fmt.Errorf("Classify: cashflow %d: %w", i, err)
		}
	}
	return out, nil
}
