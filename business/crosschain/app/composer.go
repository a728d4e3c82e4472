// Package app composes bridge quotes with on-chain swap legs and fans
// cross-chain requests out to the bridge providers.
package app

import (
	"context"
	"math/big"

	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// Leg is the on-chain swap on one side of a bridge. Trade is nil for a
// direct leg, where the input already is the transit token.
type Leg struct {
	Trade domain.Trade
	Out   token.PriceTokenAmount
}

// Direct reports a leg without a swap.
func (l Leg) Direct() bool { return l.Trade == nil }

// AmountOutMin is the least the leg delivers.
func (l Leg) AmountOutMin() *big.Int {
	if l.Trade == nil {
		return l.Out.WeiAmount()
	}
	return l.Trade.ToTokenAmountMin()
}

// Composer quotes swap legs with the on-chain providers.
type Composer struct {
	providers []domain.Provider
	calc      *tradeapp.Calculator
}

// NewComposer creates a composer over the given on-chain providers.
func NewComposer(providers []domain.Provider, calc *tradeapp.Calculator) *Composer {
	return &Composer{providers: providers, calc: calc}
}

// BestLeg swaps from into transit with the best provider whose kind is in
// allowed. When from already is the transit token the leg is direct and
// carries the transit price. Disabled providers in opts are skipped. Legs
// run inside the bridge transaction and never go through the fee gateway.
// When no provider quotes, the first provider error is returned.
func (c *Composer) BestLeg(ctx context.Context, allowed []domain.ProviderKind, from token.PriceTokenAmount, transit token.PriceToken, opts domain.CalculationOptions) (Leg, error) {
	if from.Blockchain() == transit.Blockchain() && token.CompareAddresses(from.Address(), transit.Address()) {
		out := from
		if _, ok := from.Price(); !ok {
			if price, ok := transit.Price(); ok {
				out = from.WithPrice(price)
			}
		}
		return Leg{Out: out}, nil
	}

	direct := false
	opts.UseProxy = &direct

	providers := domain.SelectProviders(c.providers, allowed, opts.DisabledProviders)
	results := c.calc.Run(ctx, providers, from, transit, opts)
	domain.SortResults(results)

	if best, ok := domain.Best(results); ok {
		return Leg{Trade: best.Trade, Out: best.Trade.To()}, nil
	}
	for _, r := range results {
		if r.Err != nil {
			return Leg{}, r.Err
		}
	}
	return Leg{}, apperror.SDK("Can't calculate best trade for with current params.", nil)
}
