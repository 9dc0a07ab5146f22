package cashflow

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/qlgo/currency"
)

// CashflowCents mirrors the Bloomberg-style cashflow feed where coupon/principal
// are stored as integer minor units (e.g., cents for EUR).
type CashflowCents struct {
	Date           time.Time
	CouponCents    int64
	PrincipalCents int64
}

// FromCents converts minor-unit rows into a leg in units of ccy. Coupons
// become simple cashflows and principal becomes a redemption on the same date.
func FromCents(rows []CashflowCents, ccy currency.Currency) Leg {
	per := decimal.NewFromInt(int64(max(ccy.FractionsPerUnit, 1)))
	units := func(cents int64) float64 {
		return decimal.NewFromInt(cents).Div(per).InexactFloat64()
	}

	leg := make(Leg, 0, len(rows))
	for _, r := range rows {
		if r.CouponCents != 0 {
			leg = append(leg, NewSimpleCashFlow(units(r.CouponCents), r.Date))
		}
		if r.PrincipalCents != 0 {
			leg = append(leg, NewRedemption(units(r.PrincipalCents), r.Date))
		}
	}
	return leg
}
