// Package onchain implements the same-chain swap bounded context.
package onchain

import (
	"context"
	"strings"

	blockchainDI "github.com/fd1az/swap-aggregator/business/blockchain/di"
	symbiosisapi "github.com/fd1az/swap-aggregator/business/crosschain/infra/symbiosis"
	"github.com/fd1az/swap-aggregator/business/onchain/app"
	onchainDI "github.com/fd1az/swap-aggregator/business/onchain/di"
	"github.com/fd1az/swap-aggregator/business/onchain/infra/aerodrome"
	"github.com/fd1az/swap-aggregator/business/onchain/infra/amm"
	"github.com/fd1az/swap-aggregator/business/onchain/infra/symbiosis"
	"github.com/fd1az/swap-aggregator/business/onchain/infra/uniswapv2"
	"github.com/fd1az/swap-aggregator/business/onchain/infra/uniswapv3"
	routingapp "github.com/fd1az/swap-aggregator/business/routing/app"
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/config"
	"github.com/fd1az/swap-aggregator/internal/di"
	"github.com/fd1az/swap-aggregator/internal/httpclient"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/monolith"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// Module implements the on-chain bounded context.
type Module struct{}

// RegisterServices registers the manager with every enabled provider.
// Registration order is the tie-break order of equal quotes.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, onchainDI.OnChainManager, func(sr di.ServiceRegistry) *app.Manager {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		routingTokens := sr.Get(monolith.ServiceRoutingTokens).(map[token.Blockchain][]token.Token)
		chains := blockchainDI.GetBlockchainService(sr)

		proxy, err := tradeapp.FeeProxyFromConfig(cfg.Swap)
		if err != nil {
			panic("invalid swap.proxy_contracts: " + err.Error())
		}

		paths := routingapp.NewPathFactory()
		ammConfig := func(name string) amm.Config {
			return amm.Config{
				MaxTransitTokens: cfg.Routing.MaxTransitTokens,
				Fee:              tradeapp.NewFeePolicy(proxy, cfg.Provider(name)),
				RoutingTokens:    routingTokens,
			}
		}

		var providers []domain.Provider
		if cfg.Provider(config.ProviderUniswapV3).Enabled {
			providers = append(providers, amm.NewProvider(uniswapv3.NewStrategy(nil, nil), ammConfig(config.ProviderUniswapV3), chains, paths, log))
		}
		if cfg.Provider(config.ProviderUniswapV2).Enabled {
			providers = append(providers, amm.NewProvider(uniswapv2.NewStrategy(nil), ammConfig(config.ProviderUniswapV2), chains, paths, log))
		}
		if cfg.Provider(config.ProviderAerodrome).Enabled {
			providers = append(providers, amm.NewProvider(aerodrome.NewStrategy(nil), ammConfig(config.ProviderAerodrome), chains, paths, log))
		}
		if pc := cfg.Provider(config.ProviderSymbiosis); pc.Enabled && pc.APIURL != "" {
			client, err := httpclient.ForProvider("symbiosis-swap", pc.APIURL, cfg.HTTP)
			if err != nil {
				panic("failed to create symbiosis client: " + err.Error())
			}
			providers = append(providers, symbiosis.NewProvider(symbiosisapi.NewClient(client), symbiosis.Config{
				Fee:      tradeapp.NewFeePolicy(proxy, pc),
				GasLimit: cfg.Gas.DefaultGasLimit,
			}, chains, log))
		}

		calc, err := tradeapp.NewCalculator("onchain", cfg.Swap.ProviderTimeout, log)
		if err != nil {
			panic("failed to create calculator: " + err.Error())
		}
		return app.NewManager(providers, calc, cfg.Swap)
	})

	return nil
}

// Startup resolves the manager so misconfiguration surfaces at boot.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	manager := onchainDI.GetOnChainManager(mono.Services())

	names := make([]string, 0, len(manager.Providers()))
	for _, p := range manager.Providers() {
		names = append(names, p.Type().String())
	}
	mono.Logger().Info(ctx, "onchain module started", "providers", strings.Join(names, ","))
	return nil
}
