// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/swap-aggregator/business/pricing/app"
	"github.com/fd1az/swap-aggregator/internal/di"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// Public service tokens - exposed to other modules
var (
	PriceService = di.NewToken[*app.PriceService]("pricing.PriceService")
	TokenFactory = di.NewToken[*token.Factory]("pricing.TokenFactory")
)

// Private dependency tokens - internal to pricing module
var (
	PriceSource    = di.NewToken[app.PriceSource]("pricing:priceSource")
	FallbackSource = di.NewToken[app.CoinPricer]("pricing:fallbackSource")
)

// GetPriceService returns the cached USD price service.
func GetPriceService(c di.ServiceRegistry) *app.PriceService {
	return di.GetToken(c, PriceService)
}

// GetTokenFactory returns the factory that builds priced tokens.
func GetTokenFactory(c di.ServiceRegistry) *token.Factory {
	return di.GetToken(c, TokenFactory)
}

func GetPriceSource(c di.ServiceRegistry) app.PriceSource {
	return di.GetToken(c, PriceSource)
}

func GetFallbackSource(c di.ServiceRegistry) app.CoinPricer {
	return di.GetToken(c, FallbackSource)
}
