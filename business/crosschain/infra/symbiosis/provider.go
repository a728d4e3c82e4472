package symbiosis

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/evmabi"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const tracerName = "github.com/fd1az/swap-aggregator/business/crosschain/infra/symbiosis"

// Config tunes the bridge provider.
type Config struct {
	Fee tradeapp.FeePolicy
	// GasLimit is used when the bridge transaction cannot be estimated.
	GasLimit uint64
}

// Provider is the Symbiosis bridge.
type Provider struct {
	client *Client
	config Config
	chains tradeapp.Chains
	log    logger.LoggerInterface
	tracer trace.Tracer
}

var _ domain.Provider = (*Provider)(nil)

// NewProvider creates the bridge provider.
func NewProvider(client *Client, cfg Config, chains tradeapp.Chains, log logger.LoggerInterface) *Provider {
	return &Provider{
		client: client,
		config: cfg,
		chains: chains,
		log:    log,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *Provider) Kind() domain.ProviderKind { return domain.KindCrossChainBridge }
func (p *Provider) Type() domain.Type         { return domain.TypeSymbiosis }

// IsSupported reports distinct chains both served by the API.
func (p *Provider) IsSupported(from, to token.Blockchain) bool {
	return from != to && IsSupportedBlockchain(from) && IsSupportedBlockchain(to)
}

// Calculate quotes the transfer. The API performs both swap legs itself, so
// the trade has no local legs.
func (p *Provider) Calculate(ctx context.Context, from token.PriceTokenAmount, to token.PriceToken, opts domain.CalculationOptions) domain.Result {
	if !p.IsSupported(from.Blockchain(), to.Blockchain()) {
		return domain.Result{TradeType: p.Type()}
	}
	fail := func(err error) domain.Result {
		return domain.Result{TradeType: p.Type(), Err: err}
	}

	ctx, span := p.tracer.Start(ctx, "symbiosis.bridge",
		trace.WithAttributes(
			attribute.String("from", from.Blockchain().String()),
			attribute.String("to", to.Blockchain().String()),
		),
	)
	defer span.End()

	proxy := p.config.Fee.Resolve(from.Blockchain(), opts)
	quoted := proxy.Quoted(from)
	fee := proxy.FeeInfo(from)

	fromAddress, receiver := tradeapp.QuoteAddresses(opts)
	if !token.IsAddressCorrect(to.Blockchain(), receiver) {
		receiver = tradeapp.FakeWalletAddress
	}
	req, err := p.request(quoted, to.Token, fromAddress, receiver, fromAddress, opts)
	if err != nil {
		return fail(err)
	}
	resp, err := p.quote(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote failed")
		return fail(err)
	}

	wei, err := evmabi.ParseAmount(resp.TokenAmountOut.Amount)
	if err != nil {
		return fail(err)
	}
	toAmount, err := token.NewPriceTokenAmountFromWei(to, wei)
	if err != nil {
		return fail(err)
	}
	if cf := cryptoFee(resp.Fee); cf != nil {
		fee.CryptoFee = cf
	}

	var gas *bcdomain.GasData
	if opts.GasEnabled() {
		if public, err := p.chains.Public(from.Blockchain()); err == nil {
			var tx *bcdomain.TransactionConfig
			if c, err := resp.Tx.TransactionConfig(); err == nil {
				tx = &c
			}
			gas = tradeapp.QuoteGas(ctx, public, opts.FromAddress, tx, p.config.GasLimit)
		}
	}

	srcChainID, _ := from.Blockchain().ChainID()
	trade := tradeapp.NewCrossChainTrade(tradeapp.CrossChainTradeParams{
		Type:      p.Type(),
		From:      from,
		To:        toAmount,
		Slippage:  opts.SlippageTolerance,
		FeeInfo:   fee,
		BridgeGas: gas,
		Spender:   resp.ApproveTo,
		Proxy:     proxy,
		Encoder: tradeapp.APIEncoder(func(ctx context.Context, ep tradeapp.EncodeParams) (bcdomain.TransactionConfig, error) {
			req, err := p.request(quoted, to.Token, ep.Caller(), ep.ReceiverAddress, ep.FromAddress, opts)
			if err != nil {
				return bcdomain.TransactionConfig{}, err
			}
			resp, err := p.quote(ctx, req)
			if err != nil {
				return bcdomain.TransactionConfig{}, err
			}
			return resp.Tx.TransactionConfig()
		}),
		Status: func(ctx context.Context, hash string) (domain.DstTxData, error) {
			return p.status(ctx, srcChainID, hash)
		},
	}, p.chains)

	span.SetStatus(codes.Ok, "quoted")
	return domain.Result{TradeType: p.Type(), Trade: trade}
}

// quote asks once more after a failure that is not about the amount.
func (p *Provider) quote(ctx context.Context, req SwapRequest) (*SwapResponse, error) {
	resp, err := p.client.Swap(ctx, req)
	if err == nil {
		return resp, nil
	}
	classified := ClassifyQuoteError(err)
	if IsAmountError(classified) || apperror.HasCode(classified, apperror.CodeNotSupportedTokens) || ctx.Err() != nil {
		return nil, classified
	}
	p.log.Debug(ctx, "retrying symbiosis quote", "error", err.Error())

	resp, err = p.client.Swap(ctx, req)
	if err != nil {
		return nil, ClassifyQuoteError(err)
	}
	return resp, nil
}

func (p *Provider) request(from token.PriceTokenAmount, to token.Token, sender, receiver, refund string, opts domain.CalculationOptions) (SwapRequest, error) {
	in, err := Ref(from.Token)
	if err != nil {
		return SwapRequest{}, err
	}
	out, err := Ref(to)
	if err != nil {
		return SwapRequest{}, err
	}
	return SwapRequest{
		TokenAmountIn: TokenAmount{TokenRef: in, Amount: from.StringWeiAmount()},
		TokenOut:      out,
		From:          sender,
		To:            receiver,
		RefundAddress: refund,
		Slippage:      SlippageBps(opts.SlippageTolerance),
		Deadline:      time.Now().Add(opts.DeadlineDuration()).Unix(),
	}, nil
}

func (p *Provider) status(ctx context.Context, chainID int64, hash string) (domain.DstTxData, error) {
	resp, err := p.client.Status(ctx, chainID, hash)
	if err != nil {
		return domain.DstTxData{}, ClassifyQuoteError(err)
	}
	out := domain.DstTxData{Status: MapStatus(resp.Status.Code)}
	if resp.Tx != nil && out.Status == domain.TxStatusSuccess {
		out.Hash = resp.Tx.Hash
	}
	return out, nil
}

// MapStatus converts an API status code.
func MapStatus(code int) domain.TxStatus {
	switch code {
	case 0:
		return domain.TxStatusSuccess
	case 1, -1:
		return domain.TxStatusPending
	case 2:
		return domain.TxStatusFail
	case 3:
		return domain.TxStatusRevert
	}
	return domain.TxStatusUnknown
}

// cryptoFee reads the bridge fee when the API reports one.
func cryptoFee(f TokenAmount) *domain.FeeAmount {
	wei, err := evmabi.ParseAmount(f.Amount)
	if err != nil || wei.Sign() == 0 {
		return nil
	}
	return &domain.FeeAmount{
		Amount:      decimal.NewFromBigInt(wei, -int32(f.Decimals)),
		TokenSymbol: f.Symbol,
	}
}
