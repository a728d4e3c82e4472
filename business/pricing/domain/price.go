// Package domain contains the core domain types for the pricing context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/swap-aggregator/internal/token"
)

// platforms maps blockchains to price API asset platform ids.
var platforms = map[token.Blockchain]string{
	token.Ethereum:  "ethereum",
	token.BSC:       "binance-smart-chain",
	token.Polygon:   "polygon-pos",
	token.Arbitrum:  "arbitrum-one",
	token.Optimism:  "optimistic-ethereum",
	token.Avalanche: "avalanche",
	token.Base:      "base",
	token.Linea:     "linea",
	token.ZetaChain: "zetachain",
	token.Taiko:     "taiko",
	token.Scroll:    "scroll",
	token.Solana:    "solana",
	token.Algorand:  "algorand",
}

// nativeCoins maps blockchains to the coin id of their native currency.
var nativeCoins = map[token.Blockchain]string{
	token.Ethereum:  "ethereum",
	token.BSC:       "binancecoin",
	token.Polygon:   "polygon-ecosystem-token",
	token.Arbitrum:  "ethereum",
	token.Optimism:  "ethereum",
	token.Avalanche: "avalanche-2",
	token.Base:      "ethereum",
	token.Linea:     "ethereum",
	token.ZetaChain: "zetachain",
	token.Taiko:     "ethereum",
	token.Scroll:    "ethereum",
	token.Solana:    "solana",
	token.Ripple:    "ripple",
	token.Algorand:  "algorand",
}

// Platform returns the asset platform id of b.
func Platform(b token.Blockchain) (string, bool) {
	p, ok := platforms[b]
	return p, ok
}

// NativeCoin returns the coin id of the native currency of b.
func NativeCoin(b token.Blockchain) (string, bool) {
	id, ok := nativeCoins[b]
	return id, ok
}

// Price is a USD quote for one token.
type Price struct {
	Token     token.Key
	USD       decimal.Decimal
	Source    string
	Timestamp time.Time
}

// NewPrice creates a new Price stamped now.
func NewPrice(key token.Key, usd decimal.Decimal, source string) Price {
	return Price{
		Token:     key,
		USD:       usd,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// Known reports whether the price is usable. Zero is never a real price.
func (p Price) Known() bool {
	return p.USD.IsPositive()
}
