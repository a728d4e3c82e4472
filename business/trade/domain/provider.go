package domain

import (
	"context"

	"github.com/fd1az/swap-aggregator/internal/token"
)

// ProviderKind tags how a provider computes its quote.
type ProviderKind int

const (
	KindUniswapV2Style ProviderKind = iota
	KindUniswapV3Style
	KindAerodromeStyle
	KindAggregatorAPIProvider
	KindCrossChainBridge
)

func (k ProviderKind) String() string {
	switch k {
	case KindUniswapV2Style:
		return "uniswap_v2_style"
	case KindUniswapV3Style:
		return "uniswap_v3_style"
	case KindAerodromeStyle:
		return "aerodrome_style"
	case KindAggregatorAPIProvider:
		return "aggregator_api"
	case KindCrossChainBridge:
		return "cross_chain_bridge"
	}
	return "unknown"
}

// OnChainKinds are the kinds that swap within one chain.
var OnChainKinds = []ProviderKind{
	KindUniswapV2Style,
	KindUniswapV3Style,
	KindAerodromeStyle,
	KindAggregatorAPIProvider,
}

// Provider quotes trades. Calculate never returns a Go error: failures are
// reported in Result.Err, and an unsupported pair yields an empty Result
// without touching the network.
type Provider interface {
	Kind() ProviderKind
	Type() Type
	IsSupported(from, to token.Blockchain) bool
	Calculate(ctx context.Context, from token.PriceTokenAmount, to token.PriceToken, opts CalculationOptions) Result
}

// SelectProviders keeps providers whose kind is in kinds and whose type is
// not disabled. An empty kinds list keeps every kind.
func SelectProviders(providers []Provider, kinds []ProviderKind, disabled []Type) []Provider {
	var out []Provider
	for _, p := range providers {
		if len(kinds) > 0 && !containsKind(kinds, p.Kind()) {
			continue
		}
		if containsType(disabled, p.Type()) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func containsKind(kinds []ProviderKind, k ProviderKind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

func containsType(types []Type, t Type) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
