// Package taiko implements the canonical Ethereum <-> Taiko bridge. Native
// ETH travels as a bridge message, ERC-20 tokens through the vault; the
// output amount always equals the input.
package taiko

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	bcapp "github.com/fd1az/swap-aggregator/business/blockchain/app"
	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const tracerName = "github.com/fd1az/swap-aggregator/business/crosschain/infra/taiko"

func errNotAllowed() error {
	return apperror.SDK("Swap is not allowed.", nil)
}

// Config tunes the provider. A zero Fee leaves the message for the
// receiver to claim on the destination chain.
type Config struct {
	Fee         uint64
	GasLimit    uint32
	TxGasLimit  uint64
	Deployments map[token.Blockchain]Deployment
}

// Provider is the Taiko bridge.
type Provider struct {
	config Config
	chains tradeapp.Chains
	log    logger.LoggerInterface
	tracer trace.Tracer
}

var _ domain.Provider = (*Provider)(nil)

// NewProvider creates the provider. Missing deployments fall back to
// DefaultDeployments.
func NewProvider(cfg Config, chains tradeapp.Chains, log logger.LoggerInterface) *Provider {
	deployments := make(map[token.Blockchain]Deployment, len(DefaultDeployments))
	for b, d := range DefaultDeployments {
		deployments[b] = d
	}
	for b, d := range cfg.Deployments {
		def := deployments[b]
		if d.Bridge != "" {
			def.Bridge = d.Bridge
		}
		if d.Vault != "" {
			def.Vault = d.Vault
		}
		deployments[b] = def
	}
	cfg.Deployments = deployments
	return &Provider{config: cfg, chains: chains, log: log, tracer: otel.Tracer(tracerName)}
}

func (p *Provider) Kind() domain.ProviderKind { return domain.KindCrossChainBridge }
func (p *Provider) Type() domain.Type         { return domain.TypeTaikoBridge }

// IsSupported reports the L1 <-> Taiko pair in either direction.
func (p *Provider) IsSupported(from, to token.Blockchain) bool {
	return (from == token.Ethereum && to == token.Taiko) || (from == token.Taiko && to == token.Ethereum)
}

// Calculate checks that the output token is the bridged counterpart of the
// input and quotes one to one.
func (p *Provider) Calculate(ctx context.Context, from token.PriceTokenAmount, to token.PriceToken, opts domain.CalculationOptions) domain.Result {
	if !p.IsSupported(from.Blockchain(), to.Blockchain()) {
		return domain.Result{TradeType: p.Type()}
	}
	fail := func(err error) domain.Result {
		return domain.Result{TradeType: p.Type(), Err: err}
	}

	ctx, span := p.tracer.Start(ctx, "taiko.calculate",
		trace.WithAttributes(
			attribute.String("from", from.Blockchain().String()),
			attribute.String("to", to.Blockchain().String()),
		),
	)
	defer span.End()

	srcPublic, err := p.chains.Public(from.Blockchain())
	if err != nil {
		return fail(err)
	}
	if err := p.checkCounterpart(ctx, from.Token, to.Token); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "counterpart")
		return fail(err)
	}

	toAmount, err := token.NewPriceTokenAmount(to, from.TokenAmount())
	if err != nil {
		return fail(err)
	}

	var gas *bcdomain.GasData
	if opts.GasEnabled() {
		gas = tradeapp.QuoteGas(ctx, srcPublic, opts.FromAddress, nil, p.config.TxGasLimit)
	}

	src := p.config.Deployments[from.Blockchain()]
	spender := ""
	if !from.IsNative() {
		spender = src.Vault
	}
	srcID, _ := from.Blockchain().ChainID()
	dstID, _ := to.Blockchain().ChainID()
	q := quote{from: from, src: src, srcChainID: uint64(srcID), dstChainID: uint64(dstID), fee: p.config.Fee, gasLimit: p.config.GasLimit}

	trade := tradeapp.NewCrossChainTrade(tradeapp.CrossChainTradeParams{
		Type:      p.Type(),
		From:      from,
		To:        toAmount,
		BridgeGas: gas,
		Spender:   spender,
		Encoder:   tradeapp.ContractEncoder(q.encode),
		Status: func(ctx context.Context, hash string) (domain.DstTxData, error) {
			return p.status(ctx, srcPublic, to.Blockchain(), hash)
		},
	}, p.chains)

	span.SetStatus(codes.Ok, "quoted")
	return domain.Result{TradeType: p.Type(), Trade: trade}
}

// checkCounterpart asks the Taiko vault whether to is the bridged (or
// canonical) version of from. Native only maps to native.
func (p *Provider) checkCounterpart(ctx context.Context, from, to token.Token) error {
	if from.IsNative() || to.IsNative() {
		if from.IsNative() && to.IsNative() {
			return nil
		}
		return errNotAllowed()
	}

	vault := p.config.Deployments[token.Taiko].Vault
	public, err := p.chains.Public(token.Taiko)
	if err != nil {
		return err
	}

	var counterpart common.Address
	if from.Blockchain() == token.Ethereum {
		l1ID, _ := token.Ethereum.ChainID()
		out, err := public.CallContractMethod(ctx, vault, VaultABI, "canonicalToBridged",
			big.NewInt(l1ID), common.HexToAddress(from.Address()))
		if err != nil {
			return err
		}
		counterpart, _ = out[0].(common.Address)
	} else {
		out, err := public.CallContractMethod(ctx, vault, VaultABI, "bridgedToCanonical", common.HexToAddress(from.Address()))
		if err != nil {
			return err
		}
		counterpart, _ = out[1].(common.Address)
	}
	if counterpart == (common.Address{}) || !token.CompareAddresses(counterpart.Hex(), to.Address()) {
		return errNotAllowed()
	}
	return nil
}

// status finds the message hash in the source receipt and reads its state
// on the destination bridge.
func (p *Provider) status(ctx context.Context, srcPublic bcapp.PublicAdapter, dst token.Blockchain, hash string) (domain.DstTxData, error) {
	receipt, err := srcPublic.GetTransactionReceipt(ctx, hash)
	if err != nil {
		if apperror.HasCode(err, apperror.CodeNotFound) {
			return domain.DstTxData{Status: domain.TxStatusPending}, nil
		}
		return domain.DstTxData{}, err
	}
	msgHash, ok := MessageHash(receipt)
	if !ok {
		return domain.DstTxData{Status: domain.TxStatusUnknown}, nil
	}
	dstPublic, err := p.chains.Public(dst)
	if err != nil {
		return domain.DstTxData{}, err
	}
	out, err := dstPublic.CallContractMethod(ctx, p.config.Deployments[dst].Bridge, BridgeABI, "messageStatus", [32]byte(msgHash))
	if err != nil {
		return domain.DstTxData{}, err
	}
	st, _ := out[0].(uint8)
	return domain.DstTxData{Status: MapStatus(st)}, nil
}

// MessageHash reads the hash of the first MessageSent event in receipt.
func MessageHash(receipt *bcdomain.Receipt) (common.Hash, bool) {
	topic := BridgeABI.Events["MessageSent"].ID.Hex()
	for _, l := range receipt.Logs {
		if len(l.Topics) >= 2 && l.Topics[0] == topic {
			return common.HexToHash(l.Topics[1]), true
		}
	}
	return common.Hash{}, false
}

// MapStatus converts a message state.
func MapStatus(st uint8) domain.TxStatus {
	switch st {
	case statusDone:
		return domain.TxStatusSuccess
	case statusNew, statusRetriable:
		return domain.TxStatusPending
	case statusFailed:
		return domain.TxStatusFail
	case statusRecalled:
		return domain.TxStatusFallback
	}
	return domain.TxStatusUnknown
}

type quote struct {
	from       token.PriceTokenAmount
	src        Deployment
	srcChainID uint64
	dstChainID uint64
	fee        uint64
	gasLimit   uint32
}

func (q quote) encode(ep tradeapp.EncodeParams) (tradeapp.ContractCall, error) {
	receiver := common.HexToAddress(ep.ReceiverAddress)
	fee := new(big.Int).SetUint64(q.fee)
	if q.from.IsNative() {
		sender := common.HexToAddress(ep.FromAddress)
		return tradeapp.ContractCall{
			Contract: q.src.Bridge,
			ABI:      BridgeABI,
			Method:   "sendMessage",
			Args: []any{Message{
				Fee:         q.fee,
				GasLimit:    q.gasLimit,
				From:        sender,
				SrcChainId:  q.srcChainID,
				SrcOwner:    sender,
				DestChainId: q.dstChainID,
				DestOwner:   receiver,
				To:          receiver,
				Value:       q.from.WeiAmount(),
				Data:        []byte{},
			}},
			Value: new(big.Int).Add(q.from.WeiAmount(), fee),
		}, nil
	}
	return tradeapp.ContractCall{
		Contract: q.src.Vault,
		ABI:      VaultABI,
		Method:   "sendToken",
		Args: []any{BridgeTransferOp{
			DestChainId: q.dstChainID,
			DestOwner:   receiver,
			To:          receiver,
			Fee:         q.fee,
			Token:       common.HexToAddress(q.from.Address()),
			GasLimit:    q.gasLimit,
			Amount:      q.from.WeiAmount(),
		}},
		Value: fee,
	}, nil
}
