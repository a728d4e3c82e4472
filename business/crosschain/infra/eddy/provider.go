// Package eddy implements the Eddy Finance bridge between ZetaChain and the
// gas coins of Ethereum and BNB Chain. Deposits reach ZetaChain through the
// TSS address; withdrawals call the Eddy contract on ZetaChain. ZETA legs
// are priced on a ZetaChain DEX router.
package eddy

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	bcapp "github.com/fd1az/swap-aggregator/business/blockchain/app"
	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/business/onchain/infra/uniswapv2"
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/httpclient"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const tracerName = "github.com/fd1az/swap-aggregator/business/crosschain/infra/eddy"

// zrc20Decimals is the precision of ZETA and of every gas ZRC-20.
const zrc20Decimals = 18

// Config tunes the provider.
type Config struct {
	// Contract is the Eddy contract on ZetaChain.
	Contract string
	// Router is the ZetaChain DEX router pricing ZETA legs. Without it
	// only gas coins bridge.
	Router string
	// TSS overrides DefaultTSS per connected chain.
	TSS      map[token.Blockchain]string
	Fee      tradeapp.FeePolicy
	GasLimit uint64
}

// Provider is the Eddy bridge.
type Provider struct {
	client    *Client
	config    Config
	chains    tradeapp.Chains
	log       logger.LoggerInterface
	tracer    trace.Tracer
	supported map[token.Blockchain]bool
}

var _ domain.Provider = (*Provider)(nil)

// NewProvider creates the provider. client may be nil, in which case
// destination status is unknown.
func NewProvider(client *Client, cfg Config, chains tradeapp.Chains, log logger.LoggerInterface) *Provider {
	supported := make(map[token.Blockchain]bool, len(SupportedBlockchains))
	for _, b := range SupportedBlockchains {
		supported[b] = true
	}
	return &Provider{
		client:    client,
		config:    cfg,
		chains:    chains,
		log:       log,
		tracer:    otel.Tracer(tracerName),
		supported: supported,
	}
}

func (p *Provider) Kind() domain.ProviderKind { return domain.KindCrossChainBridge }
func (p *Provider) Type() domain.Type         { return domain.TypeEddyBridge }

// IsSupported reports distinct chains from SupportedBlockchains. Pairs
// that skip ZetaChain are rejected by Calculate.
func (p *Provider) IsSupported(from, to token.Blockchain) bool {
	return from != to && p.supported[from] && p.supported[to]
}

func (p *Provider) tss(b token.Blockchain) string {
	if addr, ok := p.config.TSS[b]; ok && addr != "" {
		return addr
	}
	return DefaultTSS
}

// route is one of the four transfers the bridge offers.
type route struct {
	deposit bool
	// zrc20 is the gas token of the connected chain on ZetaChain.
	zrc20 string
	// viaZeta is set when ZETA is swapped to or from zrc20.
	viaZeta bool
}

// resolveRoute accepts the gas coin of a connected chain into its ZRC-20
// or into ZETA, and the way back.
func resolveRoute(from, to token.Token) (route, error) {
	fromZeta, toZeta := from.Blockchain() == token.ZetaChain, to.Blockchain() == token.ZetaChain
	switch {
	case !fromZeta && !toZeta:
		return route{}, apperror.NotSupportedBlockchain(from.Blockchain().String() + " -> " + to.Blockchain().String())
	case !fromZeta:
		zrc20, ok := GasZRC20[from.Blockchain()]
		if !ok || !from.IsNative() {
			return route{}, apperror.NotSupportedTokens()
		}
		if to.IsNative() {
			return route{deposit: true, zrc20: zrc20, viaZeta: true}, nil
		}
		if token.CompareAddresses(to.Address(), zrc20) {
			return route{deposit: true, zrc20: zrc20}, nil
		}
	default:
		zrc20, ok := GasZRC20[to.Blockchain()]
		if !ok || !to.IsNative() {
			return route{}, apperror.NotSupportedTokens()
		}
		if from.IsNative() {
			return route{zrc20: zrc20, viaZeta: true}, nil
		}
		if token.CompareAddresses(from.Address(), zrc20) {
			return route{zrc20: zrc20}, nil
		}
	}
	return route{}, apperror.NotSupportedTokens()
}

// checkReceiver rejects receivers other than the sender.
func checkReceiver(receiver, sender string) error {
	if receiver == "" || strings.EqualFold(receiver, sender) {
		return nil
	}
	return apperror.New(apperror.CodeUnsupportedReceiver, apperror.WithContext(receiver))
}

// Calculate prices the transfer. The Eddy contract keeps platformFee per
// mille of the bridged gas coin; ZETA legs are quoted on the router.
func (p *Provider) Calculate(ctx context.Context, from token.PriceTokenAmount, to token.PriceToken, opts domain.CalculationOptions) domain.Result {
	if !p.IsSupported(from.Blockchain(), to.Blockchain()) {
		return domain.Result{TradeType: p.Type()}
	}
	fail := func(err error) domain.Result {
		return domain.Result{TradeType: p.Type(), Err: err}
	}

	ctx, span := p.tracer.Start(ctx, "eddy.calculate",
		trace.WithAttributes(
			attribute.String("from", from.Blockchain().String()),
			attribute.String("to", to.Blockchain().String()),
		),
	)
	defer span.End()

	sender, _ := tradeapp.QuoteAddresses(opts)
	if err := checkReceiver(opts.ReceiverAddress, sender); err != nil {
		return fail(err)
	}
	r, err := resolveRoute(from.Token, to.Token)
	if err != nil {
		return fail(err)
	}

	zeta, err := p.chains.Public(token.ZetaChain)
	if err != nil {
		return fail(err)
	}
	ratio, bridgeFee, err := p.feeRatio(ctx, zeta)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "platform fee")
		return fail(err)
	}

	proxy := p.config.Fee.Resolve(from.Blockchain(), opts)
	quoted := proxy.Quoted(from)

	out, err := p.amountOut(ctx, zeta, r, quoted, ratio)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "amount out")
		return fail(err)
	}
	if !out.IsPositive() {
		return fail(apperror.TooLowAmount())
	}
	toAmount, err := token.NewPriceTokenAmount(to, out)
	if err != nil {
		return fail(err)
	}

	var gas *bcdomain.GasData
	if opts.GasEnabled() {
		if public, err := p.chains.Public(from.Blockchain()); err == nil {
			gas = tradeapp.QuoteGas(ctx, public, opts.FromAddress, nil, p.config.GasLimit)
		}
	}

	spender := ""
	if !r.deposit && !r.viaZeta {
		spender = p.config.Contract
	}
	q := quote{in: quoted, route: r, contract: p.config.Contract, tss: p.tss(from.Blockchain())}

	trade := tradeapp.NewCrossChainTrade(tradeapp.CrossChainTradeParams{
		Type:     p.Type(),
		From:     from,
		To:       toAmount,
		Slippage: opts.SlippageTolerance,
		FeeInfo: domain.MergeFees(proxy.FeeInfo(from), domain.FeeInfo{
			PlatformFee: &domain.PlatformFee{Percent: bridgeFee, TokenSymbol: from.Symbol()},
		}),
		BridgeGas: gas,
		Spender:   spender,
		Proxy:     proxy,
		Encoder:   q,
		Status:    p.status,
	}, p.chains)

	span.SetStatus(codes.Ok, "quoted")
	return domain.Result{TradeType: p.Type(), Trade: trade}
}

// feeRatio reads platformFee and returns the share that reaches the
// receiver along with the fee in percent.
func (p *Provider) feeRatio(ctx context.Context, zeta bcapp.PublicAdapter) (decimal.Decimal, decimal.Decimal, error) {
	out, err := zeta.CallContractMethod(ctx, p.config.Contract, EddyABI, "platformFee")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	fee, ok := out[0].(*big.Int)
	if !ok || fee.Sign() < 0 || fee.Cmp(big.NewInt(feeScale)) >= 0 {
		return decimal.Zero, decimal.Zero, apperror.SDK("bad platformFee from eddy", nil)
	}
	perMille := decimal.NewFromBigInt(fee, 0)
	ratio := decimal.NewFromInt(feeScale).Sub(perMille).Div(decimal.NewFromInt(feeScale))
	return ratio, perMille.Div(decimal.NewFromInt(10)), nil
}

// amountOut applies the bridge fee to the gas coin side of the route and
// prices the ZETA side on the router.
func (p *Provider) amountOut(ctx context.Context, zeta bcapp.PublicAdapter, r route, in token.PriceTokenAmount, ratio decimal.Decimal) (decimal.Decimal, error) {
	bridged := in.TokenAmount().Mul(ratio)
	if !r.viaZeta {
		return bridged, nil
	}
	if r.deposit {
		swapped, err := p.swapOut(ctx, zeta, in.WeiAmount(), r.zrc20, token.AddrWZETA)
		if err != nil {
			return decimal.Zero, err
		}
		return swapped.Mul(ratio), nil
	}
	wei := bridged.Shift(zrc20Decimals).Truncate(0).BigInt()
	return p.swapOut(ctx, zeta, wei, token.AddrWZETA, r.zrc20)
}

// swapOut asks the router how much the last token of path amountIn buys.
func (p *Provider) swapOut(ctx context.Context, zeta bcapp.PublicAdapter, amountIn *big.Int, path ...string) (decimal.Decimal, error) {
	if p.config.Router == "" {
		return decimal.Zero, apperror.NotSupportedTokens()
	}
	addrs := make([]common.Address, len(path))
	for i, a := range path {
		addrs[i] = common.HexToAddress(a)
	}
	out, err := zeta.CallContractMethod(ctx, p.config.Router, uniswapv2.RouterABI, "getAmountsOut", amountIn, addrs)
	if err != nil {
		return decimal.Zero, err
	}
	amounts, ok := out[0].([]*big.Int)
	if !ok || len(amounts) == 0 {
		return decimal.Zero, apperror.SDK("bad getAmountsOut result", nil)
	}
	return decimal.NewFromBigInt(amounts[len(amounts)-1], -zrc20Decimals), nil
}

func (p *Provider) status(ctx context.Context, hash string) (domain.DstTxData, error) {
	if p.client == nil {
		return domain.DstTxData{Status: domain.TxStatusUnknown}, nil
	}
	txs, err := p.client.CrossChainTxs(ctx, hash)
	if err != nil {
		var apiErr *httpclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return domain.DstTxData{Status: domain.TxStatusPending}, nil
		}
		return domain.DstTxData{}, apperror.SDK("eddy status request failed", err)
	}
	if len(txs) == 0 {
		return domain.DstTxData{Status: domain.TxStatusPending}, nil
	}
	return MapStatus(txs[len(txs)-1]), nil
}

// MapStatus converts a cross-chain transaction state.
func MapStatus(tx CCTX) domain.DstTxData {
	switch tx.Status.Status {
	case "OutboundMined":
		out := domain.DstTxData{Status: domain.TxStatusSuccess}
		if n := len(tx.Outbound); n > 0 {
			out.Hash = tx.Outbound[n-1].TxHash()
		}
		return out
	case "PendingInbound", "PendingOutbound", "PendingRevert":
		return domain.DstTxData{Status: domain.TxStatusPending}
	case "Reverted":
		return domain.DstTxData{Status: domain.TxStatusFallback}
	case "Aborted":
		return domain.DstTxData{Status: domain.TxStatusFail}
	}
	return domain.DstTxData{Status: domain.TxStatusUnknown}
}

// quote is a frozen calculation. It encodes a TSS deposit from a connected
// chain or an Eddy call on ZetaChain.
type quote struct {
	// in is the amount bridged, net of the platform fee.
	in       token.PriceTokenAmount
	route    route
	contract string
	tss      string
}

// Encode implements tradeapp.Encoder.
func (q quote) Encode(_ context.Context, ep tradeapp.EncodeParams) (bcdomain.TransactionConfig, error) {
	if err := checkReceiver(ep.ReceiverAddress, ep.FromAddress); err != nil {
		return bcdomain.TransactionConfig{}, err
	}
	if q.route.deposit {
		target := q.route.zrc20
		if q.route.viaZeta {
			target = token.AddrWZETA
		}
		return bcdomain.TransactionConfig{
			To:    q.tss,
			Data:  Memo(q.contract, ep.ReceiverAddress, target),
			Value: q.in.WeiAmount(),
		}, nil
	}

	withdrawData := common.HexToAddress(ep.ReceiverAddress).Bytes()
	zrc20 := common.HexToAddress(q.route.zrc20)
	call := tradeapp.ContractCall{Contract: q.contract, ABI: EddyABI}
	if q.route.viaZeta {
		call.Method = "transferZetaToConnectedChain"
		call.Args = []any{withdrawData, zrc20}
		call.Value = q.in.WeiAmount()
	} else {
		call.Method = "withdrawToNativeChain"
		call.Args = []any{withdrawData, q.in.WeiAmount(), zrc20}
	}
	return call.Pack()
}
