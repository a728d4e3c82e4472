// Package token provides the immutable value model shared by every swap
// calculation: tokens, priced tokens and priced token amounts.
//
// Wei amounts are exact big.Int values; decimal.Decimal is used for human
// units, prices and fees.
package token

import (
	"fmt"
	"strings"
)

// Blockchain names a network.
type Blockchain string

// Supported blockchains.
const (
	Ethereum  Blockchain = "ETH"
	BSC       Blockchain = "BSC"
	Polygon   Blockchain = "POLYGON"
	Arbitrum  Blockchain = "ARBITRUM"
	Optimism  Blockchain = "OPTIMISM"
	Avalanche Blockchain = "AVALANCHE"
	Base      Blockchain = "BASE"
	Linea     Blockchain = "LINEA"
	ZetaChain Blockchain = "ZETACHAIN"
	Taiko     Blockchain = "TAIKO"
	Scroll    Blockchain = "SCROLL"
	Sepolia   Blockchain = "SEPOLIA"
	Solana    Blockchain = "SOLANA"
	Ripple    Blockchain = "RIPPLE"
	Algorand  Blockchain = "ALGORAND"
)

// ChainType is a blockchain family sharing address format and tooling.
type ChainType string

// Chain families.
const (
	ChainTypeEVM    ChainType = "EVM"
	ChainTypeSolana ChainType = "SOLANA"
	ChainTypeRipple ChainType = "RIPPLE"
	ChainTypeOther  ChainType = "OTHER"
)

// EVM native coins use the zero address.
const EVMNativeAddress = "0x0000000000000000000000000000000000000000"

// SolanaNativeAddress is the system program id used for SOL.
const SolanaNativeAddress = "So11111111111111111111111111111111111111111"

var evmChainIDs = map[Blockchain]int64{
	Ethereum:  1,
	BSC:       56,
	Polygon:   137,
	Arbitrum:  42161,
	Optimism:  10,
	Avalanche: 43114,
	Base:      8453,
	Linea:     59144,
	ZetaChain: 7000,
	Taiko:     167000,
	Scroll:    534352,
	Sepolia:   11155111,
}

var nativeSymbols = map[Blockchain]string{
	Ethereum:  "ETH",
	BSC:       "BNB",
	Polygon:   "MATIC",
	Arbitrum:  "ETH",
	Optimism:  "ETH",
	Avalanche: "AVAX",
	Base:      "ETH",
	Linea:     "ETH",
	ZetaChain: "ZETA",
	Taiko:     "ETH",
	Scroll:    "ETH",
	Sepolia:   "ETH",
	Solana:    "SOL",
	Ripple:    "XRP",
	Algorand:  "ALGO",
}

// ParseBlockchain accepts a blockchain name in any case.
func ParseBlockchain(s string) (Blockchain, error) {
	b := Blockchain(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := nativeSymbols[b]; !ok {
		return "", fmt.Errorf("token: unknown blockchain %q", s)
	}
	return b, nil
}

// ChainType returns the family of b.
func (b Blockchain) ChainType() ChainType {
	if _, ok := evmChainIDs[b]; ok {
		return ChainTypeEVM
	}
	switch b {
	case Solana:
		return ChainTypeSolana
	case Ripple:
		return ChainTypeRipple
	default:
		return ChainTypeOther
	}
}

// IsEVM reports whether b is an EVM chain.
func (b Blockchain) IsEVM() bool {
	return b.ChainType() == ChainTypeEVM
}

// ChainID returns the EVM chain id.
func (b Blockchain) ChainID() (int64, bool) {
	id, ok := evmChainIDs[b]
	return id, ok
}

// NativeAddress returns the address used for the chain's native coin.
func (b Blockchain) NativeAddress() string {
	if b == Solana {
		return SolanaNativeAddress
	}
	return EVMNativeAddress
}

// NativeSymbol returns the ticker of the chain's native coin.
func (b Blockchain) NativeSymbol() string {
	return nativeSymbols[b]
}

// String implements fmt.Stringer.
func (b Blockchain) String() string {
	return string(b)
}

// BlockchainByChainID reverses ChainID.
func BlockchainByChainID(id int64) (Blockchain, bool) {
	for b, cid := range evmChainIDs {
		if cid == id {
			return b, true
		}
	}
	return "", false
}
