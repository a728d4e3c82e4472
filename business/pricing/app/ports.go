// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceSource is a USD price API.
type PriceSource interface {
	// TokenPrices returns USD prices keyed by lower-case contract address.
	// Addresses the API does not know are missing from the result.
	TokenPrices(ctx context.Context, platform string, addresses []string) (map[string]decimal.Decimal, error)

	CoinPricer
}

// CoinPricer prices coins by id.
type CoinPricer interface {
	// CoinPrice returns the USD price of a coin id.
	CoinPrice(ctx context.Context, id string) (decimal.Decimal, error)
}
