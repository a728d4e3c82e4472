// Package amm is the shared quoting engine of router-based DEX providers.
// Each DEX supplies a Strategy: how to quote a path on-chain and how to
// encode the swap. The engine searches paths, picks the best route, prices
// gas and builds the trade.
package amm

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	routingapp "github.com/fd1az/swap-aggregator/business/routing/app"
	routing "github.com/fd1az/swap-aggregator/business/routing/domain"
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const tracerName = "github.com/fd1az/swap-aggregator/business/onchain/infra/amm"

// Deployment holds a DEX's contracts on one chain. Unused fields are empty.
type Deployment struct {
	Router  string
	Quoter  string
	Factory string
}

// Quote is a priced route handed to the strategy's encoder. From is the
// amount the router receives, net of any platform fee.
type Quote struct {
	From       token.PriceTokenAmount
	To         token.PriceTokenAmount
	Route      routing.Route
	Slippage   float64
	Deadline   time.Duration
	Deployment Deployment
}

// AmountOutMin is the slippage-adjusted minimum output.
func (q Quote) AmountOutMin() *big.Int {
	return q.To.WeiAmountMinusSlippage(q.Slippage)
}

// DeadlineUnix is now plus the deadline, as a unix timestamp.
func (q Quote) DeadlineUnix() *big.Int {
	return big.NewInt(time.Now().Add(q.Deadline).Unix())
}

// Strategy is the DEX-specific part of a provider.
type Strategy interface {
	Type() domain.Type
	Kind() domain.ProviderKind
	Deployment(b token.Blockchain) (Deployment, bool)
	CallBuilder(d Deployment) routingapp.CallBuilder
	// MaxPathLength caps path tokens; 0 means no cap.
	MaxPathLength() int
	GasLimit(hops int) uint64
	Encode(q Quote, p tradeapp.EncodeParams) (tradeapp.ContractCall, error)
}

// Config tunes the engine.
type Config struct {
	MaxTransitTokens int
	Fee              tradeapp.FeePolicy
	RoutingTokens    map[token.Blockchain][]token.Token
}

// Provider adapts a Strategy to domain.Provider.
type Provider struct {
	strategy Strategy
	config   Config
	chains   tradeapp.Chains
	paths    *routingapp.PathFactory
	log      logger.LoggerInterface
	tracer   trace.Tracer
}

var _ domain.Provider = (*Provider)(nil)

// NewProvider creates a provider.
func NewProvider(s Strategy, cfg Config, chains tradeapp.Chains, paths *routingapp.PathFactory, log logger.LoggerInterface) *Provider {
	return &Provider{
		strategy: s,
		config:   cfg,
		chains:   chains,
		paths:    paths,
		log:      log,
		tracer:   otel.Tracer(tracerName),
	}
}

func (p *Provider) Kind() domain.ProviderKind { return p.strategy.Kind() }
func (p *Provider) Type() domain.Type         { return p.strategy.Type() }

// IsSupported reports same-chain pairs on chains the DEX is deployed to.
func (p *Provider) IsSupported(from, to token.Blockchain) bool {
	if from != to {
		return false
	}
	_, ok := p.strategy.Deployment(from)
	return ok
}

// Calculate quotes the best route.
func (p *Provider) Calculate(ctx context.Context, from token.PriceTokenAmount, to token.PriceToken, opts domain.CalculationOptions) domain.Result {
	b := from.Blockchain()
	if !p.IsSupported(b, to.Blockchain()) {
		return domain.Result{TradeType: p.Type()}
	}
	fail := func(err error) domain.Result {
		return domain.Result{TradeType: p.Type(), Err: err}
	}

	ctx, span := p.tracer.Start(ctx, "amm.calculate",
		trace.WithAttributes(
			attribute.String("provider", p.Type().String()),
			attribute.String("blockchain", b.String()),
		),
	)
	defer span.End()

	if isWrapPair(from.Token, to.Token) {
		span.SetStatus(codes.Error, "wrap pair")
		return fail(apperror.NotSupportedTokens())
	}

	deployment, _ := p.strategy.Deployment(b)
	public, err := p.chains.Public(b)
	if err != nil {
		return fail(err)
	}

	proxy := p.config.Fee.Resolve(b, opts)
	quoted := proxy.Quoted(from)

	routes, err := p.paths.FindRoutes(ctx, public, p.strategy.CallBuilder(deployment), routingapp.Request{
		From:             quoted,
		To:               to,
		RoutingTokens:    p.config.RoutingTokens[b],
		MaxTransitTokens: p.config.MaxTransitTokens,
		MaxPathLength:    p.strategy.MaxPathLength(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "path search failed")
		return fail(err)
	}
	if len(routes) == 0 {
		span.SetStatus(codes.Error, "no route")
		return fail(apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext(from.Symbol()+" > "+to.Symbol())))
	}
	routing.SortByAmountOut(routes)
	best := routes[0]

	toAmount, err := token.NewPriceTokenAmountFromWei(to, best.AmountOut)
	if err != nil {
		return fail(err)
	}

	var gas *bcdomain.GasData
	if opts.GasEnabled() {
		gas, err = public.CalculateGasData(ctx, p.strategy.GasLimit(len(best.Path)-1))
		if err != nil {
			p.log.Warn(ctx, "gas calculation failed", "provider", p.Type().String(), "error", err.Error())
			gas = nil
		}
	}

	quote := Quote{
		From:       quoted,
		To:         toAmount,
		Route:      best,
		Slippage:   opts.SlippageTolerance,
		Deadline:   opts.DeadlineDuration(),
		Deployment: deployment,
	}
	strategy := p.strategy
	trade := tradeapp.NewDirectAmmTrade(tradeapp.OnChainTradeParams{
		Type:     p.Type(),
		From:     from,
		To:       toAmount,
		Slippage: opts.SlippageTolerance,
		GasData:  gas,
		FeeInfo:  proxy.FeeInfo(from),
		Path:     best.Path,
		Variant:  best.Variant,
		Spender:  deployment.Router,
		Proxy:    proxy,
	}, func(ep tradeapp.EncodeParams) (tradeapp.ContractCall, error) {
		return strategy.Encode(quote, ep)
	}, p.chains)

	span.SetAttributes(
		attribute.String("route", best.Symbols()),
		attribute.String("variant", best.Variant),
		attribute.String("amount_out", best.AmountOut.String()),
	)
	span.SetStatus(codes.Ok, "quoted")
	return domain.Result{TradeType: p.Type(), Trade: trade}
}

// isWrapPair reports native <-> wrapped native, which is a wrap rather than
// a swap.
func isWrapPair(a, b token.Token) bool {
	if a.Blockchain() != b.Blockchain() {
		return false
	}
	w, ok := token.WrappedNative(a.Blockchain())
	if !ok {
		return false
	}
	return (a.IsNative() && w.Equal(b)) || (b.IsNative() && w.Equal(a))
}

// WrappedAddress returns the address a router sees for t: the wrapped token
// for the native coin, t itself otherwise.
func WrappedAddress(t token.Token) common.Address {
	if t.IsNative() {
		if w, ok := token.WrappedNative(t.Blockchain()); ok {
			return common.HexToAddress(w.Address())
		}
	}
	return common.HexToAddress(t.Address())
}

// WrappedPath maps a token path to router addresses.
func WrappedPath(path []token.Token) []common.Address {
	out := make([]common.Address, len(path))
	for i, t := range path {
		out[i] = WrappedAddress(t)
	}
	return out
}

// LastAmount reads the final element of a getAmountsOut style result.
func LastAmount(outputs []any) (*big.Int, error) {
	if len(outputs) == 0 {
		return nil, apperror.SDK("empty quote output", nil)
	}
	amounts, ok := outputs[0].([]*big.Int)
	if !ok || len(amounts) == 0 {
		return nil, apperror.SDK("unexpected quote output", nil)
	}
	return amounts[len(amounts)-1], nil
}
