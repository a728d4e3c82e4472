// Package app quotes same-chain swaps across the registered DEX and
// aggregator providers.
package app

import (
	"context"

	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/config"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// Manager holds the on-chain providers in registration order. The order
// breaks ties between equal quotes.
type Manager struct {
	providers []domain.Provider
	calc      *tradeapp.Calculator
	defaults  config.SwapConfig
}

// NewManager creates a manager. Providers of cross-chain kinds are ignored.
func NewManager(providers []domain.Provider, calc *tradeapp.Calculator, defaults config.SwapConfig) *Manager {
	return &Manager{
		providers: domain.SelectProviders(providers, domain.OnChainKinds, nil),
		calc:      calc,
		defaults:  defaults,
	}
}

// Providers returns the registered providers.
func (m *Manager) Providers() []domain.Provider {
	return m.providers
}

// Provider looks a provider up by trade type.
func (m *Manager) Provider(t domain.Type) (domain.Provider, bool) {
	for _, p := range m.providers {
		if p.Type() == t {
			return p, true
		}
	}
	return nil, false
}

// Calculate quotes every enabled provider and returns the results best
// first. Pairs across chains give no results.
func (m *Manager) Calculate(ctx context.Context, from token.PriceTokenAmount, to token.PriceToken, opts domain.CalculationOptions) []domain.Result {
	if from.Blockchain() != to.Blockchain() {
		return nil
	}
	opts = tradeapp.ApplyDefaults(opts, m.defaults)
	providers := domain.SelectProviders(m.providers, nil, opts.DisabledProviders)

	results := m.calc.Run(ctx, providers, from, to, opts)
	domain.SortResults(results)
	return results
}

// Best returns the best trade, or the first error when no provider quoted.
func (m *Manager) Best(ctx context.Context, from token.PriceTokenAmount, to token.PriceToken, opts domain.CalculationOptions) (domain.Result, bool) {
	results := m.Calculate(ctx, from, to, opts)
	if best, ok := domain.Best(results); ok {
		return best, true
	}
	for _, r := range results {
		if r.Err != nil {
			return r, false
		}
	}
	return domain.Result{}, false
}
