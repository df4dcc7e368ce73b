// Package money provides an integer-cents amount type. Balance arithmetic
// must be exact, so amounts are never stored or added as floats; floats only
// appear at the quote boundary and are converted with a single round-half-up.
package money

import (
	"fmt"
	"math"
)

// Cents is a money amount in US cents.
type Cents int64

// FromDollars converts a dollar amount to cents, rounding half-up at the
// second decimal place. This is the only float-to-money conversion in the
// system and callers must apply it exactly once, after all multipliers.
func FromDollars(dollars float64) Cents {
	return Cents(math.Floor(dollars*100 + 0.5))
}

// Dollars returns the amount as a float64 dollar value for display and quotes.
func (c Cents) Dollars() float64 {
	return float64(c) / 100
}

func (c Cents) String() string {
	neg := ""
	v := int64(c)
	if v < 0 {
		neg = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", neg, v/100, v%100)
}
