package app

import (
	"context"

	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/config"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// Manager fans cross-chain requests out to the bridge providers.
type Manager struct {
	providers []domain.Provider
	calc      *tradeapp.Calculator
	defaults  config.SwapConfig
}

// NewManager creates a manager. Providers of on-chain kinds are ignored.
func NewManager(providers []domain.Provider, calc *tradeapp.Calculator, defaults config.SwapConfig) *Manager {
	return &Manager{
		providers: domain.SelectProviders(providers, []domain.ProviderKind{domain.KindCrossChainBridge}, nil),
		calc:      calc,
		defaults:  defaults,
	}
}

// Providers returns the registered bridges.
func (m *Manager) Providers() []domain.Provider {
	return m.providers
}

// Calculate quotes every bridge that serves the chain pair and returns the
// results sorted by destination amount. Same-chain pairs give no results.
func (m *Manager) Calculate(ctx context.Context, from token.PriceTokenAmount, to token.PriceToken, opts domain.CalculationOptions) []domain.Result {
	if from.Blockchain() == to.Blockchain() {
		return nil
	}
	opts = tradeapp.ApplyDefaults(opts, m.defaults)
	providers := domain.SelectProviders(m.providers, nil, opts.DisabledProviders)

	results := m.calc.Run(ctx, providers, from, to, opts)
	domain.SortResults(results)
	return results
}
