package domain

import (
	"context"
	"math/big"
	"sort"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	routing "github.com/fd1az/swap-aggregator/business/routing/domain"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// Trade is a frozen quote. It never refreshes itself; re-quote for fresh
// prices.
type Trade interface {
	Type() Type
	Kind() Kind
	From() token.PriceTokenAmount
	To() token.PriceTokenAmount
	// ToTokenAmountMin is To reduced by the slippage tolerance, in wei.
	ToTokenAmountMin() *big.Int
	SlippageTolerance() float64
	PriceImpact() (float64, bool)
	// GasData is nil when gas calculation was disabled or failed.
	GasData() *bcdomain.GasData
	FeeInfo() FeeInfo
	RoutePath() []routing.RoutePathStep

	Encode(ctx context.Context, opts EncodeOptions) (bcdomain.TransactionConfig, error)
	Swap(ctx context.Context, opts SwapOptions) (*bcdomain.Receipt, error)
}

// GasBreakdown splits a cross-chain trade's gas by leg.
type GasBreakdown struct {
	Source *bcdomain.GasData
	Bridge *bcdomain.GasData
	Dest   *bcdomain.GasData
}

// CrossChainTrade is a trade whose output lands on another chain.
type CrossChainTrade interface {
	Trade
	// SrcLeg and DstLeg are nil when no swap happens on that side.
	SrcLeg() Trade
	DstLeg() Trade
	GasBreakdown() GasBreakdown
	GetDstTxData(ctx context.Context, srcTxHash string) (DstTxData, error)
}

// TxStatus is the destination side status of a bridge transfer.
type TxStatus string

const (
	TxStatusPending  TxStatus = "PENDING"
	TxStatusSuccess  TxStatus = "SUCCESS"
	TxStatusFail     TxStatus = "FAIL"
	TxStatusFallback TxStatus = "FALLBACK"
	TxStatusRevert   TxStatus = "REVERT"
	TxStatusUnknown  TxStatus = "UNKNOWN"
)

// DstTxData is the destination transaction of a bridge transfer. Hash is
// empty until the destination side settles.
type DstTxData struct {
	Status TxStatus
	Hash   string
}

// Result is one provider's answer. Trade and Err both nil means the
// provider does not apply to the pair. Trade and Err may both be set when a
// quote exists but cannot be executed as requested (e.g. below minimum).
type Result struct {
	TradeType Type
	Trade     Trade
	Err       error
}

// NotApplicable reports a result without trade or error.
func (r Result) NotApplicable() bool {
	return r.Trade == nil && r.Err == nil
}

// Succeeded reports a usable trade.
func (r Result) Succeeded() bool {
	return r.Trade != nil && r.Err == nil
}

func (r Result) rank() int {
	switch {
	case r.Succeeded():
		return 0
	case r.Err != nil:
		return 1
	}
	return 2
}

// SortResults orders successes by output wei descending, then failures,
// then not-applicable results. Ties keep input order.
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.rank() != b.rank() {
			return a.rank() < b.rank()
		}
		if a.rank() != 0 {
			return false
		}
		return a.Trade.To().WeiAmount().Cmp(b.Trade.To().WeiAmount()) > 0
	})
}

// Best returns the first successful result.
func Best(results []Result) (Result, bool) {
	for _, r := range results {
		if r.Succeeded() {
			return r, true
		}
	}
	return Result{}, false
}
