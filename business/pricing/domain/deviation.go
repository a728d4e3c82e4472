package domain

import "github.com/shopspring/decimal"

// Deviation compares the rate a trade pays with the market rate.
type Deviation struct {
	MarketRate  decimal.Decimal
	TradeRate   decimal.Decimal
	Absolute    decimal.Decimal // trade - market
	BasisPoints decimal.Decimal // (trade - market) / market * 10000
	Direction   DeviationDirection
}

// DeviationDirection tells whether the trade beats the market.
type DeviationDirection string

const (
	DeviationBetter DeviationDirection = "BETTER"
	DeviationWorse  DeviationDirection = "WORSE"
	DeviationNone   DeviationDirection = "NONE"
)

// CalculateDeviation computes how far tradeRate sits from marketRate, both
// expressed as output units per input unit.
func CalculateDeviation(marketRate, tradeRate decimal.Decimal) Deviation {
	absolute := tradeRate.Sub(marketRate)
	bps := decimal.Zero
	if !marketRate.IsZero() {
		bps = absolute.Div(marketRate).Mul(decimal.NewFromInt(10000))
	}

	var direction DeviationDirection
	switch {
	case absolute.IsPositive():
		direction = DeviationBetter
	case absolute.IsNegative():
		direction = DeviationWorse
	default:
		direction = DeviationNone
	}

	return Deviation{
		MarketRate:  marketRate,
		TradeRate:   tradeRate,
		Absolute:    absolute,
		BasisPoints: bps,
		Direction:   direction,
	}
}

// MarketRate derives output units per input unit from two USD prices.
// ok is false when either price is unknown.
func MarketRate(fromUSD, toUSD decimal.Decimal) (decimal.Decimal, bool) {
	if !fromUSD.IsPositive() || !toUSD.IsPositive() {
		return decimal.Zero, false
	}
	return fromUSD.Div(toUSD), true
}
