package celer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	bcapp "github.com/fd1az/swap-aggregator/business/blockchain/app"
	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	crossapp "github.com/fd1az/swap-aggregator/business/crosschain/app"
	"github.com/fd1az/swap-aggregator/business/onchain/infra/amm"
	"github.com/fd1az/swap-aggregator/business/onchain/infra/uniswapv3"
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/evmabi"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const tracerName = "github.com/fd1az/swap-aggregator/business/crosschain/infra/celer"

var (
	// The router can swap through v2 and v3 pools before the bridge and
	// through v2 pools after it.
	srcLegKinds = []domain.ProviderKind{domain.KindUniswapV2Style, domain.KindUniswapV3Style}
	dstLegKinds = []domain.ProviderKind{domain.KindUniswapV2Style}
)

// Config tunes the provider.
type Config struct {
	Fee      tradeapp.FeePolicy
	GasLimit uint64
}

// Provider is the Celer bridge.
type Provider struct {
	client    *Client
	composer  *crossapp.Composer
	contracts map[token.Blockchain]Contract
	config    Config
	chains    tradeapp.Chains
	log       logger.LoggerInterface
	tracer    trace.Tracer
}

var _ domain.Provider = (*Provider)(nil)

// NewProvider creates the provider. Only chains present in contracts are
// served.
func NewProvider(client *Client, composer *crossapp.Composer, contracts map[token.Blockchain]Contract, cfg Config, chains tradeapp.Chains, log logger.LoggerInterface) *Provider {
	return &Provider{
		client:    client,
		composer:  composer,
		contracts: contracts,
		config:    cfg,
		chains:    chains,
		log:       log,
		tracer:    otel.Tracer(tracerName),
	}
}

func (p *Provider) Kind() domain.ProviderKind { return domain.KindCrossChainBridge }
func (p *Provider) Type() domain.Type         { return domain.TypeCeler }

// IsSupported reports distinct chains that both have a router.
func (p *Provider) IsSupported(from, to token.Blockchain) bool {
	if from == to {
		return false
	}
	_, okFrom := p.contracts[from]
	_, okTo := p.contracts[to]
	return okFrom && okTo
}

// Calculate quotes the transfer. A failure that is not about the amount
// or the slippage is retried once.
func (p *Provider) Calculate(ctx context.Context, from token.PriceTokenAmount, to token.PriceToken, opts domain.CalculationOptions) domain.Result {
	if !p.IsSupported(from.Blockchain(), to.Blockchain()) {
		return domain.Result{TradeType: p.Type()}
	}

	ctx, span := p.tracer.Start(ctx, "celer.calculate",
		trace.WithAttributes(
			attribute.String("from", from.Blockchain().String()),
			attribute.String("to", to.Blockchain().String()),
		),
	)
	defer span.End()

	res := p.calculate(ctx, from, to, opts)
	if res.Err != nil && res.Trade == nil && retryable(res.Err) && ctx.Err() == nil {
		p.log.Debug(ctx, "retrying celer quote", "error", res.Err.Error())
		res = p.calculate(ctx, from, to, opts)
	}
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, "quote failed")
	} else {
		span.SetStatus(codes.Ok, "quoted")
	}
	return res
}

func retryable(err error) bool {
	return !apperror.HasCode(err,
		apperror.CodeMinAmount, apperror.CodeMaxAmount, apperror.CodeTooLowAmount,
		apperror.CodeLowToSlippage, apperror.CodeNotSupportedTokens)
}

// routerState is what the source router tells about the transfer.
type routerState struct {
	min, max  *big.Int
	cryptoFee *big.Int
	// feePercent is the router fee on the transit amount, 0..100.
	feePercent decimal.Decimal
}

func (p *Provider) calculate(ctx context.Context, from token.PriceTokenAmount, to token.PriceToken, opts domain.CalculationOptions) domain.Result {
	fail := func(err error) domain.Result {
		return domain.Result{TradeType: p.Type(), Err: err}
	}

	srcChain, dstChain := from.Blockchain(), to.Blockchain()
	srcContract, dstContract := p.contracts[srcChain], p.contracts[dstChain]
	srcID, _ := srcChain.ChainID()
	dstID, _ := dstChain.ChainID()

	srcPublic, err := p.chains.Public(srcChain)
	if err != nil {
		return fail(err)
	}
	dstPublic, err := p.chains.Public(dstChain)
	if err != nil {
		return fail(err)
	}
	state, err := p.readState(ctx, srcPublic, srcContract.Address, dstID)
	if err != nil {
		return fail(err)
	}
	if err := checkNotPaused(ctx, dstPublic, dstContract.Address); err != nil {
		return fail(err)
	}

	proxy := p.config.Fee.Resolve(srcChain, opts)
	quoted := proxy.Quoted(from)

	fromSlippage, toSlippage := opts.LegSlippages()
	transitFrom := token.NewPriceToken(srcContract.Transit, decimal.NewFromInt(1))
	transitTo := token.NewPriceToken(dstContract.Transit, decimal.NewFromInt(1))

	srcOpts := opts
	srcOpts.SlippageTolerance = fromSlippage
	src, err := p.composer.BestLeg(ctx, srcLegKinds, quoted, transitFrom, srcOpts)
	if err != nil {
		return fail(err)
	}
	transitMin := src.AmountOutMin()

	estimate := EstimateRequest{
		SrcChainID: srcID,
		DstChainID: dstID,
		Symbol:     APISymbol(srcContract.Transit.Symbol()),
		Amount:     transitMin.String(),
	}
	first, err := p.client.Estimate(ctx, estimate)
	if err != nil {
		return fail(classify(err))
	}
	bridgeSlippage := FromAPISlippage(first.MaxSlippage)
	dstSlippage := toSlippage - bridgeSlippage
	if dstSlippage < 0 {
		return fail(apperror.New(apperror.CodeLowToSlippage))
	}

	estimate.Slippage = bridgeSlippage
	est, err := p.client.Estimate(ctx, estimate)
	if err != nil {
		return fail(classify(err))
	}
	receivedWei, err := evmabi.ParseAmount(est.EstimatedReceiveAmt)
	if err != nil || receivedWei.Sign() <= 0 {
		if limitErr := limitError(from, src.Out, transitMin, state); limitErr != nil {
			return fail(limitErr)
		}
		return fail(apperror.TooLowAmount())
	}
	received, err := token.NewPriceTokenAmountFromWei(transitTo, receivedWei)
	if err != nil {
		return fail(err)
	}

	toTransit := received
	if state.feePercent.IsPositive() {
		toTransit = received.SubtractPercent(state.feePercent)
	}

	dstOpts := opts
	dstOpts.SlippageTolerance = dstSlippage
	dst, err := p.composer.BestLeg(ctx, dstLegKinds, toTransit, to, dstOpts)
	if err != nil {
		return fail(err)
	}

	native := token.Native(srcChain)
	fee := domain.MergeFees(proxy.FeeInfo(from), domain.FeeInfo{
		PlatformFee: &domain.PlatformFee{Percent: state.feePercent, TokenSymbol: srcContract.Transit.Symbol()},
		CryptoFee: &domain.FeeAmount{
			Amount:      decimal.NewFromBigInt(state.cryptoFee, -int32(native.Decimals())),
			TokenSymbol: native.Symbol(),
		},
	})

	var bridgeGas *bcdomain.GasData
	if opts.GasEnabled() {
		bridgeGas = tradeapp.QuoteGas(ctx, srcPublic, opts.FromAddress, nil, p.config.GasLimit)
	}

	q := quote{
		in:             quoted,
		src:            src,
		dst:            dst,
		srcContract:    srcContract,
		dstContract:    dstContract,
		dstChainID:     dstID,
		cryptoFee:      state.cryptoFee,
		bridgeSlippage: bridgeSlippage,
		toSlippage:     toSlippage,
	}
	trade := tradeapp.NewCrossChainTrade(tradeapp.CrossChainTradeParams{
		Type:        p.Type(),
		From:        from,
		To:          dst.Out,
		Slippage:    toSlippage,
		FeeInfo:     fee,
		SrcLeg:      src.Trade,
		DstLeg:      dst.Trade,
		BridgeGas:   bridgeGas,
		TransitFrom: srcContract.Transit,
		TransitTo:   dstContract.Transit,
		Spender:     srcContract.Address,
		Proxy:       proxy,
		Encoder:     tradeapp.ContractEncoder(q.encode),
		Status: func(ctx context.Context, hash string) (domain.DstTxData, error) {
			return p.status(ctx, srcPublic, hash)
		},
	}, p.chains)

	// The quote stays visible when it falls outside the router limits.
	if limitErr := limitError(from, src.Out, transitMin, state); limitErr != nil {
		return domain.Result{TradeType: p.Type(), Trade: trade, Err: limitErr}
	}
	return domain.Result{TradeType: p.Type(), Trade: trade}
}

func (p *Provider) readState(ctx context.Context, public bcapp.PublicAdapter, router string, dstChainID int64) (routerState, error) {
	dst := big.NewInt(dstChainID)
	results, err := public.MulticallContractMethods(ctx, []bcdomain.MethodCall{
		{Contract: router, ABI: RouterABI, Method: "paused"},
		{Contract: router, ABI: RouterABI, Method: "minTokenAmount"},
		{Contract: router, ABI: RouterABI, Method: "maxTokenAmount"},
		{Contract: router, ABI: RouterABI, Method: "blockchainCryptoFee", Args: []any{dst}},
		{Contract: router, ABI: RouterABI, Method: "feeAmountOfBlockchain", Args: []any{dst}},
	})
	if err != nil {
		return routerState{}, err
	}
	for _, r := range results {
		if !r.Success || len(r.Output) == 0 {
			return routerState{}, apperror.New(apperror.CodeMulticallFailed, apperror.WithContext("celer router state"))
		}
	}
	if paused, _ := results[0].Output[0].(bool); paused {
		return routerState{}, apperror.SDK("Celer router is paused", nil)
	}

	state := routerState{
		min:       bigOut(results[1]),
		max:       bigOut(results[2]),
		cryptoFee: bigOut(results[3]),
	}
	state.feePercent = decimal.NewFromBigInt(bigOut(results[4]), 0).Div(decimal.NewFromInt(feePercentDenominator))
	return state, nil
}

func checkNotPaused(ctx context.Context, public bcapp.PublicAdapter, router string) error {
	out, err := public.CallContractMethod(ctx, router, RouterABI, "paused")
	if err != nil {
		return err
	}
	if paused, _ := out[0].(bool); paused {
		return apperror.SDK("Celer router is paused", nil)
	}
	return nil
}

func bigOut(r bcdomain.MethodResult) *big.Int {
	if v, ok := r.Output[0].(*big.Int); ok {
		return v
	}
	return new(big.Int)
}

// limitError checks the transit amount against the router limits and
// reports them in from-token units.
func limitError(from, srcOut token.PriceTokenAmount, transit *big.Int, state routerState) error {
	toFromUnits := func(limit *big.Int) string {
		l := decimal.NewFromBigInt(limit, -int32(srcOut.Decimals()))
		if srcOut.TokenAmount().IsZero() {
			return l.String()
		}
		return l.Mul(from.TokenAmount()).DivRound(srcOut.TokenAmount(), int32(from.Decimals())).String()
	}
	if state.min != nil && state.min.Sign() > 0 && transit.Cmp(state.min) < 0 {
		return apperror.MinAmount(toFromUnits(state.min), from.Symbol())
	}
	if state.max != nil && state.max.Sign() > 0 && transit.Cmp(state.max) > 0 {
		return apperror.MaxAmount(toFromUnits(state.max), from.Symbol())
	}
	return nil
}

func classify(err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.SDK("celer estimate failed", err)
}

// status finds the cBridge transfer id in the source receipt and asks the
// gateway about it.
func (p *Provider) status(ctx context.Context, public bcapp.PublicAdapter, hash string) (domain.DstTxData, error) {
	receipt, err := public.GetTransactionReceipt(ctx, hash)
	if err != nil {
		if apperror.HasCode(err, apperror.CodeNotFound) {
			return domain.DstTxData{Status: domain.TxStatusPending}, nil
		}
		return domain.DstTxData{}, err
	}
	transferID, ok := TransferID(receipt)
	if !ok {
		return domain.DstTxData{Status: domain.TxStatusUnknown}, nil
	}
	resp, err := p.client.TransferStatus(ctx, transferID)
	if err != nil {
		return domain.DstTxData{}, classify(err)
	}
	out := domain.DstTxData{Status: MapStatus(resp.Status)}
	if out.Status == domain.TxStatusSuccess {
		out.Hash = txHashFromLink(resp.DstBlockTxLink)
	}
	return out, nil
}

// TransferID reads the id of the first Send event in receipt.
func TransferID(receipt *bcdomain.Receipt) (string, bool) {
	event := BridgeEventsABI.Events["Send"]
	topic := event.ID.Hex()
	for _, l := range receipt.Logs {
		if len(l.Topics) == 0 || l.Topics[0] != topic {
			continue
		}
		values, err := event.Inputs.Unpack(l.Data)
		if err != nil || len(values) == 0 {
			continue
		}
		id, ok := values[0].([32]byte)
		if !ok {
			continue
		}
		return hexutil.Encode(id[:]), true
	}
	return "", false
}

// quote is a frozen calculation the encoder builds the router call from.
type quote struct {
	// in is the amount the router receives, net of the platform fee.
	in             token.PriceTokenAmount
	src, dst       crossapp.Leg
	srcContract    Contract
	dstContract    Contract
	dstChainID     int64
	cryptoFee      *big.Int
	bridgeSlippage float64
	toSlippage     float64
}

func (q quote) encode(ep tradeapp.EncodeParams) (tradeapp.ContractCall, error) {
	srcPath, v3, err := q.sourcePath()
	if err != nil {
		return tradeapp.ContractCall{}, err
	}
	dstPath := []common.Address{common.HexToAddress(q.dstContract.Transit.Address())}
	if q.dst.Trade != nil {
		dstPath = amm.WrappedPath(tradePath(q.dst.Trade))
	}

	native := q.in.IsNative()
	method, toUser := methodSwapTokens, toUserTokens
	if native {
		method = methodSwapCrypto
	}
	nativeOut := q.dst.Out.IsNative()
	if nativeOut {
		toUser = toUserCrypto
	}

	value := new(big.Int).Set(q.cryptoFee)
	if native {
		value.Add(value, q.in.WeiAmount())
	}

	dstMin := q.dst.Out.WeiAmountMinusSlippage(q.toSlippage)
	maxSlippage := uint32(decimal.NewFromFloat(q.bridgeSlippage).Mul(slippageScale).IntPart())
	receiver := evmabi.Bytes32Address(ep.ReceiverAddress)
	chainID := big.NewInt(q.dstChainID)

	var params any
	if v3 {
		method += suffixV3
		params = SwapParamsV3{
			DstChainID:        chainID,
			SrcInputAmount:    q.in.WeiAmount(),
			SrcPath:           srcPath.([]byte),
			DstPath:           dstPath,
			SrcMinOut:         q.src.AmountOutMin(),
			DstMinOut:         dstMin,
			Receiver:          receiver,
			NativeOut:         nativeOut,
			SwapToUserSig:     toUser + suffixV2,
			MaxBridgeSlippage: maxSlippage,
		}
	} else {
		method += suffixV2
		params = SwapParamsV2{
			DstChainID:        chainID,
			SrcInputAmount:    q.in.WeiAmount(),
			SrcPath:           srcPath.([]common.Address),
			DstPath:           dstPath,
			SrcMinOut:         q.src.AmountOutMin(),
			DstMinOut:         dstMin,
			Receiver:          receiver,
			NativeOut:         nativeOut,
			SwapToUserSig:     toUser + suffixV2,
			MaxBridgeSlippage: maxSlippage,
		}
	}

	return tradeapp.ContractCall{
		Contract: q.srcContract.Address,
		ABI:      RouterABI,
		Method:   method,
		Args:     []any{params},
		Value:    value,
	}, nil
}

// sourcePath returns the router's source path: a v3 encoded path or a v2
// address list. A direct leg is the transit token alone.
func (q quote) sourcePath() (any, bool, error) {
	if q.src.Direct() {
		return []common.Address{common.HexToAddress(q.srcContract.Transit.Address())}, false, nil
	}
	path := amm.WrappedPath(tradePath(q.src.Trade))
	if q.src.Trade.Type() != domain.TypeUniswapV3 {
		return path, false, nil
	}
	variant := ""
	if t, ok := q.src.Trade.(*tradeapp.OnChainTrade); ok {
		variant = t.Variant()
	}
	fees, err := uniswapv3.ParseFees(variant)
	if err != nil {
		return nil, false, apperror.SDK("celer: bad v3 route", err)
	}
	encoded, err := uniswapv3.EncodePath(path, fees)
	if err != nil {
		return nil, false, apperror.SDK("celer: bad v3 route", err)
	}
	return encoded, true, nil
}

func tradePath(t domain.Trade) []token.Token {
	if ot, ok := t.(*tradeapp.OnChainTrade); ok {
		return ot.Path()
	}
	return []token.Token{t.From().Token, t.To().Token}
}

