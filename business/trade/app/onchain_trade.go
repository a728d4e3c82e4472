package app

import (
	"context"
	"math/big"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	routing "github.com/fd1az/swap-aggregator/business/routing/domain"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// Route step types.
const (
	StepOnChain    = "on-chain"
	StepCrossChain = "cross-chain"
)

// OnChainTradeParams describe a same-chain quote.
type OnChainTradeParams struct {
	Type     domain.Type
	From     token.PriceTokenAmount
	To       token.PriceTokenAmount
	Slippage float64
	GasData  *bcdomain.GasData
	FeeInfo  domain.FeeInfo
	Path     []token.Token
	// Variant names the pools along Path, e.g. v3 fee tiers.
	Variant string

	// Spender is the contract the input token is approved to when the
	// trade is sent directly.
	Spender string
	// Proxy routes the trade through the fee gateway when active.
	Proxy ProxyFee

	// RejectContractReceiver is set by providers that cannot deliver to
	// contracts.
	RejectContractReceiver bool
}

// OnChainTrade is a swap that starts and ends on one chain.
type OnChainTrade struct {
	params  OnChainTradeParams
	kind    domain.Kind
	encoder Encoder
	chains  Chains
	tracer  trace.Tracer
}

var _ domain.Trade = (*OnChainTrade)(nil)

// NewDirectAmmTrade builds a trade encoded locally against a router.
func NewDirectAmmTrade(p OnChainTradeParams, enc ContractEncoder, chains Chains) *OnChainTrade {
	return newOnChainTrade(p, domain.KindDirectAmm, enc, chains)
}

// NewAggregatorAPITrade builds a trade whose calldata comes from the
// provider's API at encode time.
func NewAggregatorAPITrade(p OnChainTradeParams, enc APIEncoder, chains Chains) *OnChainTrade {
	return newOnChainTrade(p, domain.KindAggregatorAPI, enc, chains)
}

func newOnChainTrade(p OnChainTradeParams, kind domain.Kind, enc Encoder, chains Chains) *OnChainTrade {
	if len(p.Path) == 0 {
		p.Path = []token.Token{p.From.Token, p.To.Token}
	}
	return &OnChainTrade{
		params:  p,
		kind:    kind,
		encoder: enc,
		chains:  chains,
		tracer:  otel.Tracer(tracerName),
	}
}

func (t *OnChainTrade) Type() domain.Type            { return t.params.Type }
func (t *OnChainTrade) Kind() domain.Kind            { return t.kind }
func (t *OnChainTrade) From() token.PriceTokenAmount { return t.params.From }
func (t *OnChainTrade) To() token.PriceTokenAmount   { return t.params.To }
func (t *OnChainTrade) SlippageTolerance() float64   { return t.params.Slippage }
func (t *OnChainTrade) GasData() *bcdomain.GasData   { return t.params.GasData }
func (t *OnChainTrade) FeeInfo() domain.FeeInfo      { return t.params.FeeInfo }
func (t *OnChainTrade) Path() []token.Token          { return t.params.Path }
func (t *OnChainTrade) Variant() string              { return t.params.Variant }
func (t *OnChainTrade) Spender() string              { return t.params.Proxy.Spender(t.params.Spender) }
func (t *OnChainTrade) ToTokenAmountMin() *big.Int   { return t.params.To.WeiAmountMinusSlippage(t.params.Slippage) }
func (t *OnChainTrade) PriceImpact() (float64, bool) { return t.params.From.CalculatePriceImpactPercent(t.params.To) }

// RoutePath returns a single on-chain step.
func (t *OnChainTrade) RoutePath() []routing.RoutePathStep {
	return []routing.RoutePathStep{{
		Type:     StepOnChain,
		Provider: t.params.Type.String(),
		Path:     t.params.Path,
	}}
}

// Encode validates the addresses and builds the transaction.
func (t *OnChainTrade) Encode(ctx context.Context, opts domain.EncodeOptions) (bcdomain.TransactionConfig, error) {
	b := t.params.From.Blockchain()
	p, err := encodeParams(ctx, t.chains, b, b, opts, receiverPolicy{rejectContracts: t.params.RejectContractReceiver})
	if err != nil {
		return bcdomain.TransactionConfig{}, err
	}
	p.Gateway = t.params.Proxy.Gateway
	tx, err := t.encoder.Encode(ctx, p)
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

// Swap runs the full execution flow from the wallet registered for the
// input chain.
func (t *OnChainTrade) Swap(ctx context.Context, opts domain.SwapOptions) (*bcdomain.Receipt, error) {
	return executeSwap(ctx, t.tracer, t.chains, swapPlan{
		tradeType: t.params.Type,
		from:      t.params.From,
		spender:   t.Spender(),
		encode:    t.Encode,
	}, opts)
}
