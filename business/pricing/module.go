// Package pricing implements the token price bounded context and builds
// the token factory other contexts create their inputs with.
package pricing

import (
	"context"

	blockchainDI "github.com/fd1az/swap-aggregator/business/blockchain/di"
	"github.com/fd1az/swap-aggregator/business/pricing/app"
	pricingDI "github.com/fd1az/swap-aggregator/business/pricing/di"
	"github.com/fd1az/swap-aggregator/business/pricing/infra/binance"
	"github.com/fd1az/swap-aggregator/business/pricing/infra/coingecko"
	"github.com/fd1az/swap-aggregator/internal/config"
	"github.com/fd1az/swap-aggregator/internal/di"
	"github.com/fd1az/swap-aggregator/internal/httpclient"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/monolith"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers the price sources, the cached price service
// and the token factory.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, pricingDI.PriceSource, func(sr di.ServiceRegistry) app.PriceSource {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)

		var opts []httpclient.ClientOption
		if cfg.Pricing.APIKey != "" {
			opts = append(opts, httpclient.WithHeaders(map[string]string{coingecko.APIKeyHeader: cfg.Pricing.APIKey}))
		}
		client, err := httpclient.ForProvider("coingecko", cfg.Pricing.APIURL, cfg.HTTP, opts...)
		if err != nil {
			panic("failed to create coingecko client: " + err.Error())
		}
		return coingecko.NewClient(client)
	})

	di.RegisterToken(c, pricingDI.FallbackSource, func(sr di.ServiceRegistry) app.CoinPricer {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		client, err := httpclient.ForProvider("binance", cfg.Pricing.FallbackURL, cfg.HTTP)
		if err != nil {
			panic("failed to create binance client: " + err.Error())
		}
		return binance.NewClient(client)
	})

	di.RegisterToken(c, pricingDI.PriceService, func(sr di.ServiceRegistry) *app.PriceService {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		var opts []app.Option
		if cfg.Pricing.FallbackURL != "" {
			opts = append(opts, app.WithFallback(pricingDI.GetFallbackSource(sr)))
		}
		return app.NewPriceService(pricingDI.GetPriceSource(sr), cfg.Pricing.CacheTTL, log, opts...)
	})

	di.RegisterToken(c, pricingDI.TokenFactory, func(sr di.ServiceRegistry) *token.Factory {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		registry := sr.Get(monolith.ServiceTokenRegistry).(*token.Registry)

		var prices token.PriceFetcher
		if cfg.Pricing.Enabled && cfg.Pricing.APIURL != "" {
			prices = pricingDI.GetPriceService(sr)
		}
		return token.NewFactory(registry, blockchainDI.GetBlockchainService(sr), prices)
	})

	return nil
}

// Startup resolves the factory and hooks cache shutdown into the monolith.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	pricingDI.GetTokenFactory(mono.Services())

	if cfg.Pricing.Enabled && cfg.Pricing.APIURL != "" {
		mono.OnClose(pricingDI.GetPriceService(mono.Services()).Close)
	}
	mono.Logger().Info(ctx, "pricing module started", "enabled", cfg.Pricing.Enabled, "api", cfg.Pricing.APIURL)
	return nil
}
