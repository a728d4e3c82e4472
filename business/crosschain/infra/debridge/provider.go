package debridge

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	bcapp "github.com/fd1az/swap-aggregator/business/blockchain/app"
	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/evmabi"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const tracerName = "github.com/fd1az/swap-aggregator/business/crosschain/infra/debridge"

// DefaultSourceContract is the DLN source address on every supported chain.
const DefaultSourceContract = "0xeF4fB24aD0916217251F553c0596F8Edc630EB66"

// SupportedBlockchains are the chains DLN orders can start and end on.
var SupportedBlockchains = []token.Blockchain{
	token.Ethereum,
	token.BSC,
	token.Polygon,
	token.Arbitrum,
	token.Avalanche,
	token.Optimism,
	token.Base,
	token.Linea,
}

// SourceABI holds the one view read while quoting.
var SourceABI = evmabi.MustParse(`[{"type":"function","name":"globalFixedNativeFee","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint88"}]}]`)

// Config tunes the provider.
type Config struct {
	// Slippage is reported on the trade; DLN orders fix the output amount.
	Slippage float64
	GasLimit uint64
	Fee      tradeapp.FeePolicy
	// Contracts overrides DefaultSourceContract per chain.
	Contracts map[token.Blockchain]string
}

// Provider is the deBridge DLN bridge.
type Provider struct {
	client    *Client
	status    *StatusClient
	deflation tradeapp.DeflationChecker
	config    Config
	chains    tradeapp.Chains
	log       logger.LoggerInterface
	tracer    trace.Tracer
	supported map[token.Blockchain]bool
}

var _ domain.Provider = (*Provider)(nil)

// NewProvider creates the provider. deflation may be nil.
func NewProvider(client *Client, status *StatusClient, deflation tradeapp.DeflationChecker, cfg Config, chains tradeapp.Chains, log logger.LoggerInterface) *Provider {
	supported := make(map[token.Blockchain]bool, len(SupportedBlockchains))
	for _, b := range SupportedBlockchains {
		supported[b] = true
	}
	return &Provider{
		client:    client,
		status:    status,
		deflation: deflation,
		config:    cfg,
		chains:    chains,
		log:       log,
		tracer:    otel.Tracer(tracerName),
		supported: supported,
	}
}

func (p *Provider) Kind() domain.ProviderKind { return domain.KindCrossChainBridge }
func (p *Provider) Type() domain.Type         { return domain.TypeDeBridge }

// IsSupported reports distinct DLN chains.
func (p *Provider) IsSupported(from, to token.Blockchain) bool {
	return from != to && p.supported[from] && p.supported[to]
}

func (p *Provider) sourceContract(b token.Blockchain) string {
	if addr, ok := p.config.Contracts[b]; ok && addr != "" {
		return addr
	}
	return DefaultSourceContract
}

// Calculate quotes a DLN order.
func (p *Provider) Calculate(ctx context.Context, from token.PriceTokenAmount, to token.PriceToken, opts domain.CalculationOptions) domain.Result {
	if !p.IsSupported(from.Blockchain(), to.Blockchain()) {
		return domain.Result{TradeType: p.Type()}
	}
	fail := func(err error) domain.Result {
		return domain.Result{TradeType: p.Type(), Err: err}
	}

	ctx, span := p.tracer.Start(ctx, "debridge.calculate",
		trace.WithAttributes(
			attribute.String("from", from.Blockchain().String()),
			attribute.String("to", to.Blockchain().String()),
		),
	)
	defer span.End()

	if p.deflation != nil {
		deflationary, err := p.deflation.IsDeflationary(ctx, to.Token)
		if err != nil {
			p.log.Warn(ctx, "deflation check failed", "token", to.Address(), "error", err.Error())
		} else if deflationary {
			return fail(apperror.NotSupportedTokens())
		}
	}

	public, err := p.chains.Public(from.Blockchain())
	if err != nil {
		return fail(err)
	}

	proxy := p.config.Fee.Resolve(from.Blockchain(), opts)
	quoted := proxy.Quoted(from)

	_, receiver := tradeapp.QuoteAddresses(opts)
	if !token.IsAddressCorrect(to.Blockchain(), receiver) {
		receiver = tradeapp.FakeWalletAddress
	}
	resp, err := p.client.Quote(ctx, p.request(quoted, to.Token, receiver, "", ""))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote failed")
		return fail(ClassifyError(err))
	}

	out := resp.Estimation.DstChainTokenOut
	wei, err := evmabi.ParseAmount(out.Amount)
	if err != nil {
		return fail(apperror.SDK("bad amount from debridge", err))
	}
	toAmount, err := token.NewPriceTokenAmountFromWei(to, wei)
	if err != nil {
		return fail(err)
	}

	nativeFee := p.fixedNativeFee(ctx, public, from.Blockchain(), resp.FixFee)
	native := token.Native(from.Blockchain())
	fee := domain.MergeFees(proxy.FeeInfo(from), domain.FeeInfo{
		CryptoFee: &domain.FeeAmount{
			Amount:      decimal.NewFromBigInt(nativeFee, -int32(native.Decimals())),
			TokenSymbol: native.Symbol(),
		},
	})

	var gas *bcdomain.GasData
	if opts.GasEnabled() {
		gas = tradeapp.QuoteGas(ctx, public, opts.FromAddress, nil, p.config.GasLimit)
	}

	transit := resp.TransitAmount()
	var transitFrom token.Token
	if transit.Address != "" {
		if t, err := token.NewToken(from.Blockchain(), transit.Address, transit.Symbol, transit.Symbol, transit.Decimals); err == nil {
			transitFrom = t
		}
	}

	trade := tradeapp.NewCrossChainTrade(tradeapp.CrossChainTradeParams{
		Type:        p.Type(),
		From:        from,
		To:          toAmount,
		Slippage:    p.config.Slippage,
		FeeInfo:     fee,
		BridgeGas:   gas,
		TransitFrom: transitFrom,
		Spender:     resp.Tx.AllowanceTarget,
		Proxy:       proxy,
		Encoder: tradeapp.APIEncoder(func(ctx context.Context, ep tradeapp.EncodeParams) (bcdomain.TransactionConfig, error) {
			resp, err := p.client.CreateTx(ctx, p.request(quoted, to.Token, ep.ReceiverAddress, ep.Caller(), ep.FromAddress))
			if err != nil {
				return bcdomain.TransactionConfig{}, ClassifyError(err)
			}
			return resp.Tx.TransactionConfig()
		}),
		Status: p.dstTxData,
	}, p.chains)

	span.SetStatus(codes.Ok, "quoted")
	return domain.Result{TradeType: p.Type(), Trade: trade}
}

// request builds a DLN order sent by sender. The source order authority
// stays with the user.
func (p *Provider) request(from token.PriceTokenAmount, to token.Token, receiver, sender, authority string) QuoteRequest {
	srcID, _ := from.Blockchain().ChainID()
	dstID, _ := to.Blockchain().ChainID()
	return QuoteRequest{
		SrcChainID:        srcID,
		SrcTokenIn:        tokenAddress(from.Token),
		SrcAmount:         from.StringWeiAmount(),
		DstChainID:        dstID,
		DstTokenOut:       tokenAddress(to),
		Recipient:         receiver,
		SenderAddress:     sender,
		OrderAuthoritySrc: authority,
		OrderAuthorityDst: receiver,
	}
}

// tokenAddress is the address DLN knows a token by; native coins use the
// zero address.
func tokenAddress(t token.Token) string {
	if t.IsNative() {
		return token.EVMNativeAddress
	}
	return t.Address()
}

// fixedNativeFee reads the protocol fee from the source contract and falls
// back to the API's fixFee.
func (p *Provider) fixedNativeFee(ctx context.Context, public bcapp.PublicAdapter, b token.Blockchain, apiFee string) *big.Int {
	out, err := public.CallContractMethod(ctx, p.sourceContract(b), SourceABI, "globalFixedNativeFee")
	if err == nil && len(out) > 0 {
		if v, ok := out[0].(*big.Int); ok {
			return v
		}
	}
	if err != nil {
		p.log.Debug(ctx, "globalFixedNativeFee read failed", "chain", b.String(), "error", err.Error())
	}
	return fixedFee(apiFee)
}

// dstTxData follows the source transaction to its order and the order to
// its fulfillment.
func (p *Provider) dstTxData(ctx context.Context, hash string) (domain.DstTxData, error) {
	ids, err := p.status.OrderIDs(ctx, hash)
	if err != nil {
		return domain.DstTxData{}, ClassifyError(err)
	}
	if len(ids) == 0 {
		return domain.DstTxData{Status: domain.TxStatusPending}, nil
	}
	state, err := p.status.OrderStatus(ctx, ids[0])
	if err != nil {
		return domain.DstTxData{}, ClassifyError(err)
	}
	out := domain.DstTxData{Status: MapStatus(state)}
	if out.Status != domain.TxStatusSuccess {
		return out, nil
	}
	dstHash, err := p.status.FulfillTxHash(ctx, ids[0])
	if err != nil {
		return domain.DstTxData{}, ClassifyError(err)
	}
	out.Hash = dstHash
	return out, nil
}
