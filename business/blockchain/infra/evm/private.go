package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swap-aggregator/business/blockchain/app"
	"github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/evmabi"
	"github.com/fd1az/swap-aggregator/internal/token"
)

var _ app.PrivateAdapter = (*Private)(nil)

// PrivateConfig configures the sending side.
type PrivateConfig struct {
	DefaultGasLimit     uint64
	ReceiptTimeout      time.Duration
	ReceiptPollInterval time.Duration
}

// DefaultPrivateConfig returns the defaults used when config is silent.
func DefaultPrivateConfig() PrivateConfig {
	return PrivateConfig{
		DefaultGasLimit:     500_000,
		ReceiptTimeout:      5 * time.Minute,
		ReceiptPollInterval: 2 * time.Second,
	}
}

// Private implements app.PrivateAdapter. It reads through the Public
// adapter of the same chain and signs with signer.
type Private struct {
	public *Public
	signer Signer
	config PrivateConfig

	sends metric.Int64Counter
}

// NewPrivate creates a signing adapter.
func NewPrivate(public *Public, signer Signer, cfg PrivateConfig) (*Private, error) {
	if cfg.DefaultGasLimit == 0 {
		cfg.DefaultGasLimit = DefaultPrivateConfig().DefaultGasLimit
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = DefaultPrivateConfig().ReceiptPollInterval
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = DefaultPrivateConfig().ReceiptTimeout
	}

	sends, err := otelMeter().Int64Counter(
		"tx_sends_total",
		metric.WithDescription("Transactions sent, by outcome"),
		metric.WithUnit("{tx}"),
	)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &Private{public: public, signer: signer, config: cfg, sends: sends}, nil
}

// Address returns the sender address.
func (p *Private) Address() string {
	return p.signer.Address().Hex()
}

// CheckBlockchainCorrect fails with WRONG_NETWORK when the node behind this
// adapter is not on b.
func (p *Private) CheckBlockchainCorrect(ctx context.Context, b token.Blockchain) error {
	want, ok := b.ChainID()
	if !ok {
		return apperror.NotSupportedBlockchain(string(b))
	}
	got, err := p.public.GetChainID(ctx)
	if err != nil {
		return err
	}
	if got.Int64() != want {
		return apperror.WrongNetwork(string(b))
	}
	return nil
}

// SendTransaction estimates, signs, sends and waits for inclusion.
//
// An explicit gas limit skips estimation. An estimate failing with an
// ignorable message falls back to the default limit. A send that fails with
// an ignorable message after a successful estimate is retried exactly once
// at the default limit.
func (p *Private) SendTransaction(ctx context.Context, tx domain.TransactionConfig, opts domain.TxOptions) (*domain.Receipt, error) {
	ctx, span := p.public.tracer.Start(ctx, "tx.send",
		trace.WithAttributes(
			attribute.String("blockchain", string(p.public.config.Blockchain)),
			attribute.String("to", tx.To),
		),
	)
	defer span.End()

	if opts.Value != nil {
		tx.Value = opts.Value
	}
	if opts.GasPrice != nil {
		tx.GasPrice = opts.GasPrice
	}

	gasLimit := opts.GasLimit
	if gasLimit == 0 {
		gasLimit = tx.Gas
	}
	estimated := false
	if gasLimit == 0 {
		est, err := p.public.EstimateGas(ctx, p.Address(), tx)
		switch {
		case err == nil:
			gasLimit, estimated = est, true
		case isIgnorableError(err):
			span.AddEvent("estimate_ignored", trace.WithAttributes(attribute.String("error", err.Error())))
			gasLimit = p.config.DefaultGasLimit
		default:
			return nil, p.fail(ctx, span, err)
		}
	}

	receipt, err := p.send(ctx, tx, gasLimit, opts.OnTransactionHash)
	if err != nil && estimated && isIgnorableError(err) {
		span.AddEvent("retry_without_estimate")
		receipt, err = p.send(ctx, tx, p.config.DefaultGasLimit, opts.OnTransactionHash)
	}
	if err != nil {
		return nil, p.fail(ctx, span, err)
	}

	p.sends.Add(ctx, 1, p.public.attrs, metric.WithAttributes(attribute.Bool("success", true)))
	span.SetAttributes(attribute.String("tx_hash", receipt.TxHash))
	span.SetStatus(codes.Ok, "included")
	return receipt, nil
}

func (p *Private) fail(ctx context.Context, span trace.Span, err error) error {
	classified := apperror.ParseEvmError(err)
	p.sends.Add(ctx, 1, p.public.attrs, metric.WithAttributes(attribute.Bool("success", false)))
	span.RecordError(classified)
	span.SetStatus(codes.Error, string(classified.Code))
	p.public.logger.Warn(ctx, "transaction failed",
		"blockchain", string(p.public.config.Blockchain),
		"code", string(classified.Code),
		"error", err.Error())
	return classified
}

// send builds an EIP-1559 transaction when the chain reports a base fee and
// no explicit legacy price was given, a legacy one otherwise.
func (p *Private) send(ctx context.Context, cfg domain.TransactionConfig, gasLimit uint64, onHash func(string)) (*domain.Receipt, error) {
	client := p.public.client
	from := p.signer.Address()

	chainID, err := p.public.GetChainID(ctx)
	if err != nil {
		return nil, err
	}
	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, err
	}

	to := common.HexToAddress(cfg.To)
	value := cfg.ValueOrZero()

	var unsigned *types.Transaction
	switch {
	case cfg.GasPrice != nil:
		unsigned = types.NewTx(&types.LegacyTx{
			Nonce: nonce, To: &to, Value: value, Gas: gasLimit, GasPrice: cfg.GasPrice, Data: cfg.Data,
		})
	default:
		price, err := p.public.GetGasPrice(ctx)
		if err != nil {
			return nil, err
		}
		if price.IsEIP1559() {
			feeCap, tipCap := price.MaxFeePerGas, price.MaxPriorityFeePerGas
			if cfg.MaxFeePerGas != nil {
				feeCap = cfg.MaxFeePerGas
			}
			if cfg.MaxPriorityFeePerGas != nil {
				tipCap = cfg.MaxPriorityFeePerGas
			}
			unsigned = types.NewTx(&types.DynamicFeeTx{
				ChainID: chainID, Nonce: nonce, To: &to, Value: value, Gas: gasLimit,
				GasFeeCap: feeCap, GasTipCap: tipCap, Data: cfg.Data,
			})
		} else {
			unsigned = types.NewTx(&types.LegacyTx{
				Nonce: nonce, To: &to, Value: value, Gas: gasLimit, GasPrice: price.Wei(), Data: cfg.Data,
			})
		}
	}

	signed, err := p.signer.SignTx(unsigned, chainID)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeInternalError, "sign transaction", err)
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}

	hash := signed.Hash().Hex()
	if onHash != nil {
		go onHash(hash)
	}

	return p.waitReceipt(ctx, signed.Hash())
}

// waitReceipt polls until the receipt is available. A status 0 receipt is
// TRANSACTION_REVERTED; running out of time is FAILED_TO_CHECK_RECEIPT.
func (p *Private) waitReceipt(ctx context.Context, hash common.Hash) (*domain.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.ReceiptTimeout)
	defer cancel()

	ticker := time.NewTicker(p.config.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		r, err := p.public.client.TransactionReceipt(ctx, hash)
		if err == nil {
			receipt := toReceipt(r)
			if !receipt.Succeeded() {
				return receipt, apperror.New(apperror.CodeTransactionReverted, apperror.WithContext(receipt.TxHash))
			}
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			p.public.logger.Debug(ctx, "receipt poll failed", "hash", hash.Hex(), "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, apperror.New(apperror.CodeFailedToCheckForTxReceipt,
				apperror.WithContext(hash.Hex()),
				apperror.WithCause(ctx.Err()))
		case <-ticker.C:
		}
	}
}

// ExecuteContractMethod packs method and sends it to contract.
func (p *Private) ExecuteContractMethod(ctx context.Context, contract string, contractABI *abi.ABI, method string, args []any, opts domain.TxOptions) (*domain.Receipt, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("pack %s", method)))
	}
	return p.SendTransaction(ctx, domain.TransactionConfig{To: contract, Data: data, Value: opts.Value}, opts)
}

// ApproveTokens approves amount for spender; nil means 2^256-1.
func (p *Private) ApproveTokens(ctx context.Context, tokenAddress, spender string, amount *big.Int, opts domain.TxOptions) (*domain.Receipt, error) {
	if amount == nil {
		amount = evmabi.MaxUint256
	}
	return p.ExecuteContractMethod(ctx, tokenAddress, evmabi.ERC20, "approve",
		[]any{common.HexToAddress(spender), amount}, opts)
}

func toReceipt(r *types.Receipt) *domain.Receipt {
	out := &domain.Receipt{
		TxHash:  r.TxHash.Hex(),
		Status:  r.Status,
		GasUsed: r.GasUsed,
	}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}
	for _, l := range r.Logs {
		topics := make([]string, len(l.Topics))
		for i, t := range l.Topics {
			topics[i] = t.Hex()
		}
		out.Logs = append(out.Logs, domain.Log{Address: l.Address.Hex(), Topics: topics, Data: l.Data})
	}
	return out
}
