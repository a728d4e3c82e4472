package token

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/swap-aggregator/internal/apperror"
)

var (
	ErrNilWei        = errors.New("token: nil wei amount")
	ErrTokenMismatch = errors.New("token: cannot operate on different tokens")
)

// maxPriceImpact clamps price impact to [-maxPriceImpact, maxPriceImpact].
var maxPriceImpact = decimal.NewFromInt(100)

// PriceTokenAmount is the unit passed between every calculation step. The
// wei amount is the source of truth; the token amount is derived from it, so
// the two can never drift apart.
type PriceTokenAmount struct {
	PriceToken
	wei *big.Int
}

// NewPriceTokenAmount builds an amount from human units. Digits beyond the
// token's decimals are truncated. Negative amounts fail with WRONG_AMOUNT.
func NewPriceTokenAmount(pt PriceToken, tokenAmount decimal.Decimal) (PriceTokenAmount, error) {
	if tokenAmount.IsNegative() {
		return PriceTokenAmount{}, apperror.New(apperror.CodeWrongAmount,
			apperror.WithContext(fmt.Sprintf("%s %s", tokenAmount.String(), pt.Symbol())))
	}
	wei := tokenAmount.Shift(int32(pt.Decimals())).Truncate(0).BigInt()
	return PriceTokenAmount{PriceToken: pt, wei: wei}, nil
}

// ParseTokenAmount parses a decimal string; non-numeric input fails with
// WRONG_AMOUNT.
func ParseTokenAmount(pt PriceToken, s string) (PriceTokenAmount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return PriceTokenAmount{}, apperror.New(apperror.CodeWrongAmount,
			apperror.WithContext(fmt.Sprintf("%q is not a number", s)),
			apperror.WithCause(err))
	}
	return NewPriceTokenAmount(pt, d)
}

// NewPriceTokenAmountFromWei builds an amount from base units.
func NewPriceTokenAmountFromWei(pt PriceToken, wei *big.Int) (PriceTokenAmount, error) {
	if wei == nil {
		return PriceTokenAmount{}, ErrNilWei
	}
	if wei.Sign() < 0 {
		return PriceTokenAmount{}, apperror.New(apperror.CodeWrongAmount,
			apperror.WithContext(fmt.Sprintf("%s wei of %s", wei.String(), pt.Symbol())))
	}
	return PriceTokenAmount{PriceToken: pt, wei: new(big.Int).Set(wei)}, nil
}

// WeiAmount returns a copy of the amount in base units.
func (a PriceTokenAmount) WeiAmount() *big.Int {
	if a.wei == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(a.wei)
}

// StringWeiAmount returns the base-unit amount as an integer string.
func (a PriceTokenAmount) StringWeiAmount() string {
	return a.WeiAmount().String()
}

// TokenAmount returns the amount in human units.
func (a PriceTokenAmount) TokenAmount() decimal.Decimal {
	return decimal.NewFromBigInt(a.WeiAmount(), -int32(a.Decimals()))
}

// IsZero reports whether the amount is zero.
func (a PriceTokenAmount) IsZero() bool {
	return a.wei == nil || a.wei.Sign() == 0
}

// WithWeiAmount returns a copy with a different amount.
func (a PriceTokenAmount) WithWeiAmount(wei *big.Int) (PriceTokenAmount, error) {
	return NewPriceTokenAmountFromWei(a.PriceToken, wei)
}

// WithTokenAmount returns a copy with a different amount in human units.
func (a PriceTokenAmount) WithTokenAmount(d decimal.Decimal) (PriceTokenAmount, error) {
	return NewPriceTokenAmount(a.PriceToken, d)
}

// WithPrice returns a copy with a known price.
func (a PriceTokenAmount) WithPrice(price decimal.Decimal) PriceTokenAmount {
	return PriceTokenAmount{PriceToken: a.PriceToken.WithPrice(price), wei: a.WeiAmount()}
}

// Cmp compares two amounts of the same token.
func (a PriceTokenAmount) Cmp(b PriceTokenAmount) (int, error) {
	if !a.Equal(b.Token) {
		return 0, fmt.Errorf("%w: %s vs %s", ErrTokenMismatch, a.Token, b.Token)
	}
	return a.WeiAmount().Cmp(b.WeiAmount()), nil
}

// WeiAmountMinusSlippage returns wei × (1 − slippage), truncated.
func (a PriceTokenAmount) WeiAmountMinusSlippage(slippage float64) *big.Int {
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(slippage))
	return decimal.NewFromBigInt(a.WeiAmount(), 0).Mul(factor).Truncate(0).BigInt()
}

// WeiAmountPlusSlippage returns wei × (1 + slippage), truncated.
func (a PriceTokenAmount) WeiAmountPlusSlippage(slippage float64) *big.Int {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(slippage))
	return decimal.NewFromBigInt(a.WeiAmount(), 0).Mul(factor).Truncate(0).BigInt()
}

// SubtractPercent returns a copy reduced by percent (0..100), truncated to
// base units.
func (a PriceTokenAmount) SubtractPercent(percent decimal.Decimal) PriceTokenAmount {
	keep := decimal.NewFromInt(100).Sub(percent).Div(decimal.NewFromInt(100))
	wei := decimal.NewFromBigInt(a.WeiAmount(), 0).Mul(keep).Truncate(0).BigInt()
	if wei.Sign() < 0 {
		wei = big.NewInt(0)
	}
	return PriceTokenAmount{PriceToken: a.PriceToken, wei: wei}
}

// USDValue returns tokenAmount × price when the price is known.
func (a PriceTokenAmount) USDValue() (decimal.Decimal, bool) {
	price, ok := a.Price()
	if !ok {
		return decimal.Zero, false
	}
	return a.TokenAmount().Mul(price), true
}

// CalculatePriceImpactPercent returns (valueIn − valueOut) / valueIn × 100,
// rounded to two places and clamped to [-100, 100]. It reports false when
// either price is unknown or the input has no value.
func (a PriceTokenAmount) CalculatePriceImpactPercent(to PriceTokenAmount) (float64, bool) {
	valueIn, ok := a.USDValue()
	if !ok || valueIn.IsZero() {
		return 0, false
	}
	valueOut, ok := to.USDValue()
	if !ok {
		return 0, false
	}

	impact := valueIn.Sub(valueOut).Div(valueIn).Mul(decimal.NewFromInt(100)).Round(2)
	if impact.GreaterThan(maxPriceImpact) {
		impact = maxPriceImpact
	}
	if impact.LessThan(maxPriceImpact.Neg()) {
		impact = maxPriceImpact.Neg()
	}

	f, _ := impact.Float64()
	return f, true
}

// String returns a human-readable representation (e.g., "1.5 ETH").
func (a PriceTokenAmount) String() string {
	return fmt.Sprintf("%s %s", a.TokenAmount().String(), a.Symbol())
}
