// Package symbiosis quotes same-chain swaps through the Symbiosis API.
package symbiosis

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	symbiosisapi "github.com/fd1az/swap-aggregator/business/crosschain/infra/symbiosis"
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/evmabi"
	"github.com/fd1az/swap-aggregator/internal/httpclient"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const tracerName = "github.com/fd1az/swap-aggregator/business/onchain/infra/symbiosis"

// Config tunes the provider.
type Config struct {
	Fee tradeapp.FeePolicy
	// GasLimit is used when the swap transaction cannot be estimated.
	GasLimit uint64
}

// Provider is the Symbiosis on-chain aggregator.
type Provider struct {
	client *symbiosisapi.Client
	config Config
	chains tradeapp.Chains
	log    logger.LoggerInterface
	tracer trace.Tracer
}

var _ domain.Provider = (*Provider)(nil)

// NewProvider creates a provider.
func NewProvider(client *symbiosisapi.Client, cfg Config, chains tradeapp.Chains, log logger.LoggerInterface) *Provider {
	return &Provider{
		client: client,
		config: cfg,
		chains: chains,
		log:    log,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *Provider) Kind() domain.ProviderKind { return domain.KindAggregatorAPIProvider }
func (p *Provider) Type() domain.Type         { return domain.TypeSymbiosisSwap }

// IsSupported reports same-chain pairs on chains the API serves.
func (p *Provider) IsSupported(from, to token.Blockchain) bool {
	return from == to && symbiosisapi.IsSupportedBlockchain(from)
}

// Calculate requests a quote. The calldata of the quote is discarded: the
// trade asks again with the real addresses when it is encoded.
func (p *Provider) Calculate(ctx context.Context, from token.PriceTokenAmount, to token.PriceToken, opts domain.CalculationOptions) domain.Result {
	b := from.Blockchain()
	if !p.IsSupported(b, to.Blockchain()) {
		return domain.Result{TradeType: p.Type()}
	}
	fail := func(err error) domain.Result {
		return domain.Result{TradeType: p.Type(), Err: err}
	}

	ctx, span := p.tracer.Start(ctx, "symbiosis.calculate",
		trace.WithAttributes(attribute.String("blockchain", b.String())),
	)
	defer span.End()

	proxy := p.config.Fee.Resolve(b, opts)
	quoted := proxy.Quoted(from)

	fromAddress, receiver := tradeapp.QuoteAddresses(opts)
	req, err := p.request(quoted, to.Token, fromAddress, receiver, fromAddress, opts)
	if err != nil {
		return fail(err)
	}
	resp, err := p.client.Swap(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote failed")
		return fail(symbiosisapi.ClassifyQuoteError(err))
	}

	wei, err := evmabi.ParseAmount(resp.TokenAmountOut.Amount)
	if err != nil {
		return fail(err)
	}
	toAmount, err := token.NewPriceTokenAmountFromWei(to, wei)
	if err != nil {
		return fail(err)
	}

	var gas *bcdomain.GasData
	if opts.GasEnabled() {
		gas = p.gas(ctx, b, opts.FromAddress, resp.Tx)
	}

	trade := tradeapp.NewAggregatorAPITrade(tradeapp.OnChainTradeParams{
		Type:     p.Type(),
		From:     from,
		To:       toAmount,
		Slippage: opts.SlippageTolerance,
		GasData:  gas,
		FeeInfo:  proxy.FeeInfo(from),
		Spender:  resp.ApproveTo,
		Proxy:    proxy,
	}, func(ctx context.Context, ep tradeapp.EncodeParams) (bcdomain.TransactionConfig, error) {
		req, err := p.request(quoted, to.Token, ep.Caller(), ep.ReceiverAddress, ep.FromAddress, opts)
		if err != nil {
			return bcdomain.TransactionConfig{}, err
		}
		resp, err := p.client.Swap(ctx, req)
		if err != nil {
			return bcdomain.TransactionConfig{}, ClassifyEncodeError(err)
		}
		return resp.Tx.TransactionConfig()
	}, p.chains)

	span.SetAttributes(attribute.String("amount_out", wei.String()))
	span.SetStatus(codes.Ok, "quoted")
	return domain.Result{TradeType: p.Type(), Trade: trade}
}

// request asks for a swap sent by sender. Refunds go to the user.
func (p *Provider) request(from token.PriceTokenAmount, to token.Token, sender, receiver, refund string, opts domain.CalculationOptions) (symbiosisapi.SwapRequest, error) {
	in, err := symbiosisapi.Ref(from.Token)
	if err != nil {
		return symbiosisapi.SwapRequest{}, err
	}
	out, err := symbiosisapi.Ref(to)
	if err != nil {
		return symbiosisapi.SwapRequest{}, err
	}
	return symbiosisapi.SwapRequest{
		TokenAmountIn: symbiosisapi.TokenAmount{TokenRef: in, Amount: from.StringWeiAmount()},
		TokenOut:      out,
		From:          sender,
		To:            receiver,
		RefundAddress: refund,
		Slippage:      symbiosisapi.SlippageBps(opts.SlippageTolerance),
		Deadline:      time.Now().Add(opts.DeadlineDuration()).Unix(),
	}, nil
}

func (p *Provider) gas(ctx context.Context, b token.Blockchain, from string, tx symbiosisapi.Tx) *bcdomain.GasData {
	public, err := p.chains.Public(b)
	if err != nil {
		return nil
	}
	var cfg *bcdomain.TransactionConfig
	if c, err := tx.TransactionConfig(); err == nil {
		cfg = &c
	}
	gas := tradeapp.QuoteGas(ctx, public, from, cfg, p.config.GasLimit)
	if gas == nil {
		p.log.Warn(ctx, "gas calculation failed", "provider", p.Type().String())
	}
	return gas
}

// ClassifyEncodeError maps failures of the encode-time request. Rejections
// of deflationary tokens come first, then any 400, 500 or 503 is a rejected
// swap request.
func ClassifyEncodeError(err error) error {
	var apiErr *httpclient.APIError
	if !errors.As(err, &apiErr) {
		return symbiosisapi.ClassifyQuoteError(err)
	}
	if strings.Contains(strings.ToLower(apiErr.Message), "deflation") {
		return apperror.New(apperror.CodeLowSlippageDeflationary, apperror.WithCause(err))
	}
	switch apiErr.StatusCode {
	case 400, 500, 503:
		return apperror.New(apperror.CodeSwapRequest,
			apperror.WithContext(apiErr.Message),
			apperror.WithCause(err),
		)
	}
	return symbiosisapi.ClassifyQuoteError(err)
}
