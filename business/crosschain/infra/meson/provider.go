package meson

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
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
	"github.com/fd1az/swap-aggregator/internal/httpclient"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const tracerName = "github.com/fd1az/swap-aggregator/business/crosschain/infra/meson"

// SupportedBlockchains are the EVM chains the provider asks the relayer
// about. The relayer's own list decides the rest.
var SupportedBlockchains = []token.Blockchain{
	token.Ethereum,
	token.BSC,
	token.Polygon,
	token.Arbitrum,
	token.Optimism,
	token.Avalanche,
	token.Base,
	token.Linea,
	token.Taiko,
}

// Config tunes the provider.
type Config struct {
	Fee      tradeapp.FeePolicy
	GasLimit uint64
}

// Provider is the Meson bridge.
type Provider struct {
	client    *Client
	config    Config
	chains    tradeapp.Chains
	log       logger.LoggerInterface
	tracer    trace.Tracer
	supported map[token.Blockchain]bool
}

var _ domain.Provider = (*Provider)(nil)

// NewProvider creates the provider.
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
func (p *Provider) Type() domain.Type         { return domain.TypeMeson }

// IsSupported reports distinct chains from SupportedBlockchains.
func (p *Provider) IsSupported(from, to token.Blockchain) bool {
	return from != to && p.supported[from] && p.supported[to]
}

// asset is a token as the relayer knows it.
type asset struct {
	chain LimitsChain
	token LimitsToken
}

func (a asset) id() string { return a.chain.ID + ":" + a.token.ID }

// Calculate checks the relayer limits and prices the transfer. The output
// is the input, net of the platform fee, minus the relayer fee.
func (p *Provider) Calculate(ctx context.Context, from token.PriceTokenAmount, to token.PriceToken, opts domain.CalculationOptions) domain.Result {
	if !p.IsSupported(from.Blockchain(), to.Blockchain()) {
		return domain.Result{TradeType: p.Type()}
	}
	fail := func(err error) domain.Result {
		return domain.Result{TradeType: p.Type(), Err: err}
	}

	ctx, span := p.tracer.Start(ctx, "meson.calculate",
		trace.WithAttributes(
			attribute.String("from", from.Blockchain().String()),
			attribute.String("to", to.Blockchain().String()),
		),
	)
	defer span.End()

	src, dst, err := p.assets(ctx, from.Token, to.Token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assets")
		return fail(err)
	}
	if err := checkLimits(from, src.token); err != nil {
		return fail(err)
	}

	proxy := p.config.Fee.Resolve(from.Blockchain(), opts)
	quoted := proxy.Quoted(from)

	fromAddress, _ := tradeapp.QuoteAddresses(opts)
	fee, err := p.client.Price(ctx, SwapRequest{
		From:        src.id(),
		To:          dst.id(),
		Amount:      quoted.TokenAmount().String(),
		FromAddress: fromAddress,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "price failed")
		return fail(classify(err))
	}
	totalFee, err := decimal.NewFromString(fee.TotalFee)
	if err != nil {
		return fail(apperror.SDK("bad fee from meson", err))
	}
	out := quoted.TokenAmount().Sub(totalFee)
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

	trade := tradeapp.NewCrossChainTrade(tradeapp.CrossChainTradeParams{
		Type:      p.Type(),
		From:      from,
		To:        toAmount,
		Slippage:  opts.SlippageTolerance,
		FeeInfo: domain.MergeFees(proxy.FeeInfo(from), domain.FeeInfo{
			FixedFee: &domain.FeeAmount{Amount: totalFee, TokenSymbol: from.Symbol()},
		}),
		BridgeGas: gas,
		Spender:   src.chain.Address,
		Proxy:     proxy,
		Encoder: tradeapp.APIEncoder(func(ctx context.Context, ep tradeapp.EncodeParams) (bcdomain.TransactionConfig, error) {
			return p.encode(ctx, SwapRequest{
				From:        src.id(),
				To:          dst.id(),
				Amount:      quoted.TokenAmount().String(),
				FromAddress: ep.Caller(),
				Recipient:   ep.ReceiverAddress,
			})
		}),
		Status: p.status,
	}, p.chains)

	span.SetStatus(codes.Ok, "quoted")
	return domain.Result{TradeType: p.Type(), Trade: trade}
}

// assets finds both tokens in the relayer limits.
func (p *Provider) assets(ctx context.Context, from, to token.Token) (asset, asset, error) {
	chains, err := p.client.Limits(ctx)
	if err != nil {
		return asset{}, asset{}, classify(err)
	}
	src, err := findAsset(chains, from)
	if err != nil {
		return asset{}, asset{}, err
	}
	dst, err := findAsset(chains, to)
	if err != nil {
		return asset{}, asset{}, err
	}
	return src, dst, nil
}

func findAsset(chains []LimitsChain, t token.Token) (asset, error) {
	id, ok := t.Blockchain().ChainID()
	if !ok {
		return asset{}, apperror.NotSupportedBlockchain(t.Blockchain().String())
	}
	hexID := fmt.Sprintf("0x%x", id)
	for _, c := range chains {
		if !strings.EqualFold(c.ChainID, hexID) {
			continue
		}
		for _, lt := range c.Tokens {
			if lt.Addr == "" {
				if t.IsNative() {
					return asset{chain: c, token: lt}, nil
				}
				continue
			}
			if token.CompareAddresses(lt.Addr, t.Address()) {
				return asset{chain: c, token: lt}, nil
			}
		}
		return asset{}, apperror.NotSupportedTokens()
	}
	return asset{}, apperror.NotSupportedBlockchain(t.Blockchain().String())
}

func checkLimits(from token.PriceTokenAmount, lt LimitsToken) error {
	if min, err := decimal.NewFromString(lt.Min); err == nil && from.TokenAmount().LessThan(min) {
		return apperror.MinAmount(min.String(), from.Symbol())
	}
	if max, err := decimal.NewFromString(lt.Max); err == nil && max.IsPositive() && from.TokenAmount().GreaterThan(max) {
		return apperror.MaxAmount(max.String(), from.Symbol())
	}
	return nil
}

func (p *Provider) encode(ctx context.Context, req SwapRequest) (bcdomain.TransactionConfig, error) {
	encoded, err := p.client.Encode(ctx, req)
	if err != nil {
		return bcdomain.TransactionConfig{}, classify(err)
	}
	tx, err := p.client.Transaction(ctx, encoded, req)
	if err != nil {
		return bcdomain.TransactionConfig{}, classify(err)
	}
	data, err := hexutil.Decode(tx.Data)
	if err != nil {
		return bcdomain.TransactionConfig{}, apperror.SDK("bad calldata from meson", err)
	}
	cfg := bcdomain.TransactionConfig{To: tx.To, Data: data}
	if tx.Value != "" {
		if cfg.Value, err = evmabi.ParseQuantity(tx.Value); err != nil {
			return bcdomain.TransactionConfig{}, apperror.SDK("bad value from meson", err)
		}
	}
	return cfg, nil
}

func (p *Provider) status(ctx context.Context, hash string) (domain.DstTxData, error) {
	st, err := p.client.Status(ctx, hash)
	if err != nil {
		var apiErr *httpclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return domain.DstTxData{Status: domain.TxStatusPending}, nil
		}
		return domain.DstTxData{}, classify(err)
	}
	return MapStatus(st), nil
}

// MapStatus converts the stages a swap reached.
func MapStatus(st SwapStatus) domain.DstTxData {
	switch {
	case st.Released != "":
		return domain.DstTxData{Status: domain.TxStatusSuccess, Hash: st.Released}
	case st.Cancelled != "":
		return domain.DstTxData{Status: domain.TxStatusFallback}
	case st.Expired:
		return domain.DstTxData{Status: domain.TxStatusFail}
	}
	return domain.DstTxData{Status: domain.TxStatusPending}
}

func classify(err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	var apiErr *httpclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apperror.SDK(apiErr.Message, err)
	}
	return apperror.SDK("meson request failed", err)
}
