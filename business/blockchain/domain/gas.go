// Package domain contains the core domain types for the blockchain context.
package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// GasPrice is a chain's current fee level. BaseFee is nil on chains without
// EIP-1559, in which case only Legacy is set.
type GasPrice struct {
	Legacy               *big.Int
	BaseFee              *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	Timestamp            time.Time
}

// NewLegacyGasPrice creates a pre-London gas price.
func NewLegacyGasPrice(wei *big.Int) *GasPrice {
	return &GasPrice{Legacy: new(big.Int).Set(wei), Timestamp: time.Now()}
}

// NewEIP1559GasPrice creates a dynamic fee price. MaxFeePerGas is
// 2×baseFee + tip, leaving room for a few full blocks.
func NewEIP1559GasPrice(baseFee, tip *big.Int) *GasPrice {
	maxFee := new(big.Int).Mul(baseFee, big.NewInt(2))
	maxFee.Add(maxFee, tip)
	return &GasPrice{
		Legacy:               new(big.Int).Add(baseFee, tip),
		BaseFee:              new(big.Int).Set(baseFee),
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: new(big.Int).Set(tip),
		Timestamp:            time.Now(),
	}
}

// IsEIP1559 reports whether the price carries dynamic fee fields.
func (p *GasPrice) IsEIP1559() bool {
	return p.BaseFee != nil && p.MaxFeePerGas != nil
}

// Wei returns the price used for cost estimates: baseFee+tip on EIP-1559
// chains, the legacy price otherwise.
func (p *GasPrice) Wei() *big.Int {
	return new(big.Int).Set(p.Legacy)
}

// Gwei returns Wei in gwei.
func (p *GasPrice) Gwei() float64 {
	f, _ := decimal.NewFromBigInt(p.Legacy, -9).Float64()
	return f
}

// GasData is a gas limit priced at a GasPrice.
type GasData struct {
	GasLimit uint64
	GasPrice *GasPrice
	TotalWei *big.Int
}

// NewGasData computes limit × price.
func NewGasData(gasLimit uint64, price *GasPrice) *GasData {
	total := new(big.Int).Mul(price.Wei(), new(big.Int).SetUint64(gasLimit))
	return &GasData{GasLimit: gasLimit, GasPrice: price, TotalWei: total}
}

// TotalNative returns the cost in native units (18 decimals on EVM chains).
func (g *GasData) TotalNative(decimals uint8) decimal.Decimal {
	if g == nil || g.TotalWei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(g.TotalWei, -int32(decimals))
}

// SumGasData adds the costs of legs paid on the same chain. Nil entries are
// skipped; the result is nil when every entry is nil. The first non-nil
// price is kept as the reference price.
func SumGasData(parts ...*GasData) *GasData {
	var out *GasData
	for _, p := range parts {
		if p == nil {
			continue
		}
		if out == nil {
			out = &GasData{GasPrice: p.GasPrice, TotalWei: new(big.Int)}
		}
		out.GasLimit += p.GasLimit
		out.TotalWei.Add(out.TotalWei, p.TotalWei)
	}
	return out
}
