// Package currency holds currency specifications and money amounts.
package currency

import (
	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency specification.
//
// The zero Currency is a placeholder; IsEmpty reports it.
type Currency struct {
	Name             string
	Code             string
	Numeric          int
	Symbol           string
	FractionSymbol   string
	FractionsPerUnit int
	Rounding         Rounding
	// Format is a fmt layout fed the amount, code and symbol as explicit
	// argument indexes 1, 2 and 3, e.g. "%[3]s%[1]s".
	Format string
}

// IsEmpty reports whether c is the zero placeholder.
func (c Currency) IsEmpty() bool {
	return c.Name == ""
}

// Equal compares name and code.
func (c Currency) Equal(o Currency) bool {
	return c.Name == o.Name && c.Code == o.Code
}

func (c Currency) String() string {
	return c.Code
}

// Of builds an amount of money in c.
func (c Currency) Of(amount float64) Money {
	return Money{Amount: decimal.NewFromFloat(amount), Currency: c}
}

// Decimals returns the number of minor-unit digits implied by FractionsPerUnit.
func (c Currency) Decimals() int32 {
	var n int32
	for f := c.FractionsPerUnit; f > 1; f /= 10 {
		n++
	}
	return n
}

var (
	USD = Currency{Name: "U.S. dollar", Code: "USD", Numeric: 840, Symbol: "$", FractionSymbol: "¢",
		FractionsPerUnit: 100, Rounding: Closest(2), Format: "%[3]s%[1]s"}
	EUR = Currency{Name: "European Euro", Code: "EUR", Numeric: 978, Symbol: "", FractionSymbol: "",
		FractionsPerUnit: 100, Rounding: Closest(2), Format: "%[1]s %[2]s"}
	GBP = Currency{Name: "British pound sterling", Code: "GBP", Numeric: 826, Symbol: "£", FractionSymbol: "p",
		FractionsPerUnit: 100, Rounding: Closest(2), Format: "%[3]s %[1]s"}
	JPY = Currency{Name: "Japanese yen", Code: "JPY", Numeric: 392, Symbol: "¥", FractionSymbol: "",
		FractionsPerUnit: 100, Rounding: None(), Format: "%[3]s %[1]s"}
	CNY = Currency{Name: "Chinese yuan", Code: "CNY", Numeric: 156, Symbol: "CN¥", FractionSymbol: "",
		FractionsPerUnit: 100, Rounding: None(), Format: "%[3]s %[1]s"}
	KRW = Currency{Name: "South-Korean won", Code: "KRW", Numeric: 410, Symbol: "W", FractionSymbol: "",
		FractionsPerUnit: 100, Rounding: Closest(0), Format: "%[3]s%[1]s"}
)

var byCode = map[string]Currency{
	USD.Code: USD, EUR.Code: EUR, GBP.Code: GBP, JPY.Code: JPY, CNY.Code: CNY, KRW.Code: KRW,
}

// Lookup returns the predefined currency for an ISO code.
func Lookup(code string) (Currency, bool) {
	c, ok := byCode[code]
	return c, ok
}
