// Package odds prices moneyline, parlay and exact-score wagers from standings points.
package odds

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrPayoutOverflow means stake x price is larger than a Millcoin balance can hold
var ErrPayoutOverflow = errors.New("payout overflows int64")

var (
	// Base is returned when standings are missing and is the centre of the scale
	Base = decimal.RequireFromString("2.00")
	// Min and Max bound every quoted price
	Min = decimal.RequireFromString("1.10")
	Max = decimal.RequireFromString("5.00")
	// PerPoint is how much the price moves for each standings point of difference
	PerPoint = decimal.RequireFromString("0.02")
	// LongShotFactor multiplies the matchup price of an exact-score prediction
	LongShotFactor = decimal.RequireFromString("5.0")
)

// Compute prices a team against an opponent. Stronger teams get shorter odds.
// Either total being zero or negative means standings are unknown and Base is returned.
func Compute(teamPoints, opponentPoints int) decimal.Decimal {
	if teamPoints <= 0 || opponentPoints <= 0 {
		return Base
	}

	diff := decimal.NewFromInt(int64(teamPoints - opponentPoints))
	price := Base.Sub(PerPoint.Mul(diff))

	if price.LessThan(Min) {
		return Min
	}
	if price.GreaterThan(Max) {
		return Max
	}
	return price
}

// Combine multiplies leg prices into a parlay price
func Combine(legs ...decimal.Decimal) decimal.Decimal {
	total := decimal.NewFromInt(1)
	for _, leg := range legs {
		total = total.Mul(leg)
	}
	return total
}

// Payout is stake x price rounded to a whole Millcoin, halves away from zero
func Payout(stake int64, price decimal.Decimal) int64 {
	return decimal.NewFromInt(stake).Mul(price).Round(0).IntPart()
}

var maxPayout = decimal.NewFromInt(math.MaxInt64)

// CheckedPayout is Payout that refuses a result which does not fit in an int64
func CheckedPayout(stake int64, price decimal.Decimal) (int64, error) {
	win := decimal.NewFromInt(stake).Mul(price).Round(0)
	if win.GreaterThan(maxPayout) {
		return 0, fmt.Errorf("%w: %s x %s", ErrPayoutOverflow, decimal.NewFromInt(stake), price)
	}
	return win.IntPart(), nil
}

// ExactScore prices an exact-score prediction from the predicted winner's matchup price
func ExactScore(matchup decimal.Decimal) decimal.Decimal {
	return matchup.Mul(LongShotFactor)
}
