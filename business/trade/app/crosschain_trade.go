package app

import (
	"context"
	"math/big"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	routing "github.com/fd1az/swap-aggregator/business/routing/domain"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// StatusFunc looks up the destination transaction of a bridge transfer.
type StatusFunc func(ctx context.Context, srcTxHash string) (domain.DstTxData, error)

// CrossChainTradeParams describe a bridge quote and its optional swap legs.
type CrossChainTradeParams struct {
	Type     domain.Type
	From     token.PriceTokenAmount
	To       token.PriceTokenAmount
	Slippage float64
	FeeInfo  domain.FeeInfo

	// SrcLeg swaps the input into the bridge's transit token; DstLeg swaps
	// the bridged token into the output. Either may be nil.
	SrcLeg domain.Trade
	DstLeg domain.Trade

	// BridgeGas is the cost of the one transaction the user sends on the
	// source chain. When the source swap runs inside the bridge call it is
	// already included.
	BridgeGas *bcdomain.GasData
	// Transit tokens on both sides of the bridge, for the route summary.
	TransitFrom token.Token
	TransitTo   token.Token

	Spender                string
	RejectContractReceiver bool
	// Proxy routes the bridge call through the fee gateway when active.
	Proxy ProxyFee

	Encoder Encoder
	Status  StatusFunc
}

// CrossChainTrade moves value between chains through one bridge.
type CrossChainTrade struct {
	params CrossChainTradeParams
	chains Chains
	tracer trace.Tracer
}

var _ domain.CrossChainTrade = (*CrossChainTrade)(nil)

// NewCrossChainTrade builds a bridge trade.
func NewCrossChainTrade(p CrossChainTradeParams, chains Chains) *CrossChainTrade {
	if p.TransitFrom.Address() == "" {
		p.TransitFrom = p.From.Token
	}
	if p.TransitTo.Address() == "" {
		p.TransitTo = p.To.Token
	}
	return &CrossChainTrade{params: p, chains: chains, tracer: otel.Tracer(tracerName)}
}

func (t *CrossChainTrade) Type() domain.Type            { return t.params.Type }
func (t *CrossChainTrade) Kind() domain.Kind            { return domain.KindCrossChain }
func (t *CrossChainTrade) From() token.PriceTokenAmount { return t.params.From }
func (t *CrossChainTrade) To() token.PriceTokenAmount   { return t.params.To }
func (t *CrossChainTrade) SlippageTolerance() float64   { return t.params.Slippage }
func (t *CrossChainTrade) FeeInfo() domain.FeeInfo      { return t.params.FeeInfo }
func (t *CrossChainTrade) SrcLeg() domain.Trade         { return t.params.SrcLeg }
func (t *CrossChainTrade) DstLeg() domain.Trade         { return t.params.DstLeg }
func (t *CrossChainTrade) Spender() string              { return t.params.Proxy.Spender(t.params.Spender) }
func (t *CrossChainTrade) ToTokenAmountMin() *big.Int   { return t.params.To.WeiAmountMinusSlippage(t.params.Slippage) }
func (t *CrossChainTrade) PriceImpact() (float64, bool) { return t.params.From.CalculatePriceImpactPercent(t.params.To) }

// GasBreakdown returns gas per leg.
func (t *CrossChainTrade) GasBreakdown() domain.GasBreakdown {
	gb := domain.GasBreakdown{Bridge: t.params.BridgeGas}
	if t.params.SrcLeg != nil {
		gb.Source = t.params.SrcLeg.GasData()
	}
	if t.params.DstLeg != nil {
		gb.Dest = t.params.DstLeg.GasData()
	}
	return gb
}

// GasData is what the sender pays on the source chain. Destination gas is
// paid by the bridge relayer in another currency and only shows up in
// GasBreakdown.
func (t *CrossChainTrade) GasData() *bcdomain.GasData {
	return t.params.BridgeGas
}

// RoutePath lists the source swap, the bridge hop and the destination swap.
func (t *CrossChainTrade) RoutePath() []routing.RoutePathStep {
	var steps []routing.RoutePathStep
	if t.params.SrcLeg != nil {
		steps = append(steps, t.params.SrcLeg.RoutePath()...)
	}
	steps = append(steps, routing.RoutePathStep{
		Type:     StepCrossChain,
		Provider: t.params.Type.String(),
		Path:     []token.Token{t.params.TransitFrom, t.params.TransitTo},
	})
	if t.params.DstLeg != nil {
		steps = append(steps, t.params.DstLeg.RoutePath()...)
	}
	return steps
}

// Encode validates the sender on the source chain and the receiver on the
// destination chain, then builds the bridge transaction.
func (t *CrossChainTrade) Encode(ctx context.Context, opts domain.EncodeOptions) (bcdomain.TransactionConfig, error) {
	p, err := encodeParams(ctx, t.chains, t.params.From.Blockchain(), t.params.To.Blockchain(), opts,
		receiverPolicy{rejectContracts: t.params.RejectContractReceiver})
	if err != nil {
		return bcdomain.TransactionConfig{}, err
	}
	if t.params.Encoder == nil {
		return bcdomain.TransactionConfig{}, apperror.SDK(t.params.Type.String()+" trade cannot be encoded", nil)
	}
	p.Gateway = t.params.Proxy.Gateway
	tx, err := t.params.Encoder.Encode(ctx, p)
	if err != nil {
		return bcdomain.TransactionConfig{}, err
	}
	tx, err = t.params.Proxy.Wrap(ProxyCall{
		From:      t.params.From,
		To:        t.params.To.Token,
		MinOut:    t.ToTokenAmountMin(),
		Recipient: p.ReceiverAddress,
		Approve:   t.params.Spender,
	}, tx)
	if err != nil {
		return bcdomain.TransactionConfig{}, err
	}
	return applyGasOverrides(tx, opts), nil
}

// Swap executes the source side; the bridge delivers the rest.
func (t *CrossChainTrade) Swap(ctx context.Context, opts domain.SwapOptions) (*bcdomain.Receipt, error) {
	return executeSwap(ctx, t.tracer, t.chains, swapPlan{
		tradeType: t.params.Type,
		from:      t.params.From,
		spender:   t.Spender(),
		encode:    t.Encode,
	}, opts)
}

// GetDstTxData asks the bridge for the destination transaction.
func (t *CrossChainTrade) GetDstTxData(ctx context.Context, srcTxHash string) (domain.DstTxData, error) {
	if t.params.Status == nil {
		return domain.DstTxData{Status: domain.TxStatusUnknown}, nil
	}
	return t.params.Status(ctx, srcTxHash)
}
