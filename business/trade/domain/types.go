// Package domain defines trades, their options and calculation results.
package domain

import (
	"math/big"
	"time"
)

// Type names a trade's provider.
type Type string

const (
	TypeUniswapV2   Type = "UNISWAP_V2"
	TypeUniswapV3   Type = "UNI_SWAP_V3"
	TypeAerodrome   Type = "AERODROME"
	TypeSymbiosis   Type = "SYMBIOSIS"
	TypeCeler       Type = "CELER"
	TypeDeBridge    Type = "DEBRIDGE"
	TypeMeson       Type = "MESON"
	TypeTaikoBridge Type = "TAIKO_BRIDGE"
	TypeEddyBridge  Type = "EDDY_BRIDGE"

	// TypeSymbiosisSwap is Symbiosis used as a same-chain aggregator.
	TypeSymbiosisSwap Type = "SYMBIOSIS_SWAP"
)

func (t Type) String() string { return string(t) }

// Kind is the trade family.
type Kind int

const (
	KindDirectAmm Kind = iota
	KindAggregatorAPI
	KindCrossChain
)

func (k Kind) String() string {
	switch k {
	case KindDirectAmm:
		return "direct_amm"
	case KindAggregatorAPI:
		return "aggregator_api"
	case KindCrossChain:
		return "cross_chain"
	}
	return "unknown"
}

// GasCalculation toggles gas estimation during quoting.
type GasCalculation string

const (
	GasCalculationEnabled  GasCalculation = "enabled"
	GasCalculationDisabled GasCalculation = "disabled"
)

// CalculationOptions tune a quote.
type CalculationOptions struct {
	GasCalculation    GasCalculation
	SlippageTolerance float64
	Deadline          int // minutes
	FromAddress       string
	ReceiverAddress   string
	ProviderAddress   string
	DisabledProviders []Type
	Timeout           time.Duration
	UseProxy          *bool // overrides the provider default when set

	// Bridge legs; zero falls back to SlippageTolerance.
	FromSlippageTolerance float64
	ToSlippageTolerance   float64
}

// GasEnabled reports whether gas data should be computed.
func (o CalculationOptions) GasEnabled() bool {
	return o.GasCalculation != GasCalculationDisabled
}

// LegSlippages returns the source and destination leg slippages.
func (o CalculationOptions) LegSlippages() (from, to float64) {
	from, to = o.FromSlippageTolerance, o.ToSlippageTolerance
	if from == 0 {
		from = o.SlippageTolerance
	}
	if to == 0 {
		to = o.SlippageTolerance
	}
	return from, to
}

// IsDisabled reports whether t was switched off by the caller.
func (o CalculationOptions) IsDisabled(t Type) bool {
	for _, d := range o.DisabledProviders {
		if d == t {
			return true
		}
	}
	return false
}

// DeadlineDuration returns the deadline as a duration.
func (o CalculationOptions) DeadlineDuration() time.Duration {
	return time.Duration(o.Deadline) * time.Minute
}

// ResolveUseProxy returns the caller's choice or the provider default.
func (o CalculationOptions) ResolveUseProxy(providerDefault bool) bool {
	if o.UseProxy != nil {
		return *o.UseProxy
	}
	return providerDefault
}

// SwapOptions tune execution. OnApprove and OnConfirm receive transaction
// hashes as soon as the node accepts them.
type SwapOptions struct {
	OnConfirm       func(hash string)
	OnApprove       func(hash string)
	ReceiverAddress string
	GasLimit        uint64
	GasPrice        *big.Int
}

// EncodeOptions are the addresses and gas overrides used to build calldata.
type EncodeOptions struct {
	FromAddress     string
	ReceiverAddress string
	SupportFee      bool
	GasLimit        uint64
	GasPrice        *big.Int
}
