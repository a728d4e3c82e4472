package token

import "github.com/shopspring/decimal"

// PriceToken is a Token with an optional USD price. An absent price means
// unknown, never zero.
type PriceToken struct {
	Token
	price decimal.NullDecimal
}

// NewPriceToken attaches a known price.
func NewPriceToken(t Token, price decimal.Decimal) PriceToken {
	return PriceToken{Token: t, price: decimal.NullDecimal{Decimal: price, Valid: true}}
}

// NewUnpricedToken wraps a token whose price is unknown.
func NewUnpricedToken(t Token) PriceToken {
	return PriceToken{Token: t}
}

// Price returns the price and whether it is known.
func (p PriceToken) Price() (decimal.Decimal, bool) {
	return p.price.Decimal, p.price.Valid
}

// WithPrice returns a copy carrying price.
func (p PriceToken) WithPrice(price decimal.Decimal) PriceToken {
	return NewPriceToken(p.Token, price)
}
