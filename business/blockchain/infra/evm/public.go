package evm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swap-aggregator/business/blockchain/app"
	"github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/circuitbreaker"
	"github.com/fd1az/swap-aggregator/internal/evmabi"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/token"
)

var _ app.PublicAdapter = (*Public)(nil)

// PublicConfig configures a read adapter.
type PublicConfig struct {
	Blockchain       token.Blockchain
	RPCURL           string
	MulticallAddress string
	GasMargin        float64
	Gas              GasOracleConfig
}

// DefaultPublicConfig returns the config for b with the shared Multicall3
// deployment and a 1.15 gas margin.
func DefaultPublicConfig(b token.Blockchain, rpcURL string) PublicConfig {
	return PublicConfig{
		Blockchain:       b,
		RPCURL:           rpcURL,
		MulticallAddress: evmabi.Multicall3Address,
		GasMargin:        1.15,
		Gas:              DefaultGasOracleConfig(b),
	}
}

type publicMetrics struct {
	calls      metric.Int64Counter
	multicalls metric.Int64Counter
	callErrors metric.Int64Counter
	latency    metric.Float64Histogram
}

// Public implements app.PublicAdapter over an EthClient.
type Public struct {
	config    PublicConfig
	client    EthClient
	multicall common.Address
	oracle    *GasOracle
	logger    logger.LoggerInterface

	cb      *circuitbreaker.CircuitBreaker[[]byte]
	tracer  trace.Tracer
	metrics *publicMetrics
	attrs   metric.MeasurementOption
}

// DialPublic connects to cfg.RPCURL and returns the adapter with a close
// function for the underlying client.
func DialPublic(ctx context.Context, cfg PublicConfig, log logger.LoggerInterface) (*Public, func(), error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, apperror.New(apperror.CodeChainConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("dial %s", cfg.Blockchain)))
	}
	p, err := NewPublic(cfg, client, log)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return p, func() {
		p.oracle.Close()
		client.Close()
	}, nil
}

// NewPublic creates a read adapter over client.
func NewPublic(cfg PublicConfig, client EthClient, log logger.LoggerInterface) (*Public, error) {
	if cfg.GasMargin < 1 {
		cfg.GasMargin = 1
	}
	if cfg.MulticallAddress == "" {
		cfg.MulticallAddress = evmabi.Multicall3Address
	}
	if cfg.Gas.Blockchain == "" {
		cfg.Gas = DefaultGasOracleConfig(cfg.Blockchain)
	}

	oracle, err := NewGasOracle(cfg.Gas, client, log)
	if err != nil {
		return nil, err
	}

	p := &Public{
		config:    cfg,
		client:    client,
		multicall: common.HexToAddress(cfg.MulticallAddress),
		oracle:    oracle,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
		attrs:     metric.WithAttributes(attribute.String("blockchain", string(cfg.Blockchain))),
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("rpc-" + string(cfg.Blockchain))
	cbCfg.IsSuccessful = func(err error) bool { return err == nil || isRevert(err) }
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "rpc circuit state changed", "name", name, "from", from.String(), "to", to.String())
	}
	p.cb = circuitbreaker.New[[]byte](cbCfg)

	return p, nil
}

func (p *Public) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &publicMetrics{}

	p.metrics.calls, err = meter.Int64Counter(
		"rpc_contract_calls_total",
		metric.WithDescription("Contract read calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	p.metrics.multicalls, err = meter.Int64Counter(
		"rpc_multicalls_total",
		metric.WithDescription("Multicall3 batches"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return err
	}

	p.metrics.callErrors, err = meter.Int64Counter(
		"rpc_call_errors_total",
		metric.WithDescription("Failed contract reads"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	p.metrics.latency, err = meter.Float64Histogram(
		"rpc_call_latency_ms",
		metric.WithDescription("Contract read latency"),
		metric.WithUnit("ms"),
	)
	return err
}

// Blockchain returns the chain this adapter reads.
func (p *Public) Blockchain() token.Blockchain {
	return p.config.Blockchain
}

// GasOracle exposes the oracle backing CalculateGasData.
func (p *Public) GasOracle() *GasOracle {
	return p.oracle
}

func (p *Public) rawCall(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	start := time.Now()
	out, err := p.cb.Execute(func() ([]byte, error) {
		return p.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	})
	p.metrics.latency.Record(ctx, float64(time.Since(start).Milliseconds()), p.attrs)
	if err != nil {
		p.metrics.callErrors.Add(ctx, 1, p.attrs)
	}
	return out, err
}

// CallContractMethod packs, calls and unpacks a single view method.
func (p *Public) CallContractMethod(ctx context.Context, contract string, contractABI *abi.ABI, method string, args ...any) ([]any, error) {
	ctx, span := p.tracer.Start(ctx, "rpc.call",
		trace.WithAttributes(
			attribute.String("blockchain", string(p.config.Blockchain)),
			attribute.String("contract", contract),
			attribute.String("method", method),
		),
	)
	defer span.End()

	p.metrics.calls.Add(ctx, 1, p.attrs)

	data, err := contractABI.Pack(method, args...)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("pack %s", method)))
	}

	raw, err := p.rawCall(ctx, common.HexToAddress(contract), data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return nil, apperror.ParseEvmError(err)
	}

	out, err := contractABI.Unpack(method, raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unpack failed")
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("unpack %s", method)))
	}

	span.SetStatus(codes.Ok, "called")
	return out, nil
}

// MulticallContractMethods sends every call in one aggregate3 request with
// allowFailure set, so a single bad call never sinks the batch.
func (p *Public) MulticallContractMethods(ctx context.Context, calls []domain.MethodCall) ([]domain.MethodResult, error) {
	ctx, span := p.tracer.Start(ctx, "rpc.multicall",
		trace.WithAttributes(
			attribute.String("blockchain", string(p.config.Blockchain)),
			attribute.Int("calls", len(calls)),
		),
	)
	defer span.End()

	results := make([]domain.MethodResult, len(calls))
	if len(calls) == 0 {
		return results, nil
	}

	p.metrics.multicalls.Add(ctx, 1, p.attrs)

	// Calls that cannot even be packed are reported as failed and sent as
	// empty calldata to keep indexes aligned.
	call3 := make([]evmabi.Call3, len(calls))
	for i, c := range calls {
		data, err := c.ABI.Pack(c.Method, c.Args...)
		if err != nil {
			span.AddEvent("pack_failed", trace.WithAttributes(
				attribute.Int("index", i), attribute.String("method", c.Method)))
			data = nil
		}
		call3[i] = evmabi.Call3{
			Target:       common.HexToAddress(c.Contract),
			AllowFailure: true,
			CallData:     data,
		}
	}

	payload, err := evmabi.Multicall3.Pack("aggregate3", call3)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeMulticallFailed, apperror.WithCause(err))
	}

	raw, err := p.rawCall(ctx, p.multicall, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "multicall failed")
		return nil, apperror.New(apperror.CodeMulticallFailed,
			apperror.WithCause(apperror.ParseEvmError(err)),
			apperror.WithContext(string(p.config.Blockchain)))
	}

	var decoded []evmabi.Call3Result
	if err := evmabi.Multicall3.UnpackIntoInterface(&decoded, "aggregate3", raw); err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeMulticallFailed,
			apperror.WithCause(err),
			apperror.WithContext("decode aggregate3"))
	}
	if len(decoded) != len(calls) {
		return nil, apperror.New(apperror.CodeMulticallFailed,
			apperror.WithContext(fmt.Sprintf("expected %d results, got %d", len(calls), len(decoded))))
	}

	failed := 0
	for i, r := range decoded {
		if !r.Success || len(call3[i].CallData) == 0 || len(r.ReturnData) == 0 {
			failed++
			continue
		}
		out, err := calls[i].ABI.Unpack(calls[i].Method, r.ReturnData)
		if err != nil {
			failed++
			continue
		}
		results[i] = domain.MethodResult{Success: true, Output: out}
	}

	span.SetAttributes(attribute.Int("failed", failed))
	span.SetStatus(codes.Ok, "batched")
	return results, nil
}

// GetBalance returns the native or ERC-20 balance of owner.
func (p *Public) GetBalance(ctx context.Context, owner, tokenAddress string) (*big.Int, error) {
	if token.IsNativeAddress(p.config.Blockchain, tokenAddress) {
		bal, err := p.client.BalanceAt(ctx, common.HexToAddress(owner), nil)
		if err != nil {
			return nil, apperror.ParseEvmError(err)
		}
		return bal, nil
	}
	out, err := p.CallContractMethod(ctx, tokenAddress, evmabi.ERC20, "balanceOf", common.HexToAddress(owner))
	if err != nil {
		return nil, err
	}
	return firstBig(out)
}

// GetAllowance returns the ERC-20 allowance owner granted spender.
func (p *Public) GetAllowance(ctx context.Context, tokenAddress, owner, spender string) (*big.Int, error) {
	out, err := p.CallContractMethod(ctx, tokenAddress, evmabi.ERC20, "allowance",
		common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, err
	}
	return firstBig(out)
}

// EstimateGas returns the node estimate times the configured margin.
func (p *Public) EstimateGas(ctx context.Context, from string, tx domain.TransactionConfig) (uint64, error) {
	ctx, span := p.tracer.Start(ctx, "gas.estimate",
		trace.WithAttributes(
			attribute.String("blockchain", string(p.config.Blockchain)),
			attribute.String("to", tx.To),
			attribute.Int("data_len", len(tx.Data)),
		),
	)
	defer span.End()

	to := common.HexToAddress(tx.To)
	gas, err := p.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  common.HexToAddress(from),
		To:    &to,
		Value: tx.Value,
		Data:  tx.Data,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "estimate failed")
		return 0, apperror.ParseEvmError(err)
	}

	withMargin := ApplyGasMargin(gas, p.config.GasMargin)
	span.SetAttributes(attribute.Int64("gas", int64(withMargin)))
	span.SetStatus(codes.Ok, "estimated")
	return withMargin, nil
}

// ApplyGasMargin multiplies gas by margin, rounding up.
func ApplyGasMargin(gas uint64, margin float64) uint64 {
	return uint64(math.Ceil(float64(gas) * margin))
}

// GetGasPrice returns the oracle's current price.
func (p *Public) GetGasPrice(ctx context.Context) (*domain.GasPrice, error) {
	return p.oracle.GetGasPrice(ctx)
}

// CalculateGasData prices gasLimit at the current gas price.
func (p *Public) CalculateGasData(ctx context.Context, gasLimit uint64) (*domain.GasData, error) {
	return p.oracle.CalculateGasData(ctx, gasLimit)
}

// GetTransactionByHash looks up a transaction, pending or mined.
func (p *Public) GetTransactionByHash(ctx context.Context, hash string) (*domain.TransactionInfo, error) {
	tx, pending, err := p.client.TransactionByHash(ctx, common.HexToHash(hash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, apperror.NotFound(apperror.CodeNotFound, "transaction "+hash)
		}
		return nil, apperror.ParseEvmError(err)
	}
	info := &domain.TransactionInfo{
		Hash:    tx.Hash().Hex(),
		Value:   tx.Value(),
		Data:    tx.Data(),
		Pending: pending,
	}
	if tx.To() != nil {
		info.To = tx.To().Hex()
	}
	return info, nil
}

// GetTransactionReceipt returns the receipt or a NOT_FOUND error while the
// transaction is pending.
func (p *Public) GetTransactionReceipt(ctx context.Context, hash string) (*domain.Receipt, error) {
	r, err := p.client.TransactionReceipt(ctx, common.HexToHash(hash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, apperror.NotFound(apperror.CodeNotFound, "receipt "+hash)
		}
		return nil, apperror.ParseEvmError(err)
	}
	return toReceipt(r), nil
}

// GetChainID returns the node's chain id.
func (p *Public) GetChainID(ctx context.Context) (*big.Int, error) {
	id, err := p.client.ChainID(ctx)
	if err != nil {
		return nil, apperror.New(apperror.CodeChainRPCError,
			apperror.WithCause(err),
			apperror.WithContext(string(p.config.Blockchain)))
	}
	return id, nil
}

// IsContract reports whether address has code.
func (p *Public) IsContract(ctx context.Context, address string) (bool, error) {
	code, err := p.client.CodeAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return false, apperror.ParseEvmError(err)
	}
	return len(code) > 0, nil
}

// TokenMetadata reads symbol, name and decimals in one multicall.
func (p *Public) TokenMetadata(ctx context.Context, address string) (token.Metadata, error) {
	if token.IsNativeAddress(p.config.Blockchain, address) {
		n := token.Native(p.config.Blockchain)
		return token.Metadata{Symbol: n.Symbol(), Name: n.Name(), Decimals: n.Decimals()}, nil
	}

	results, err := p.MulticallContractMethods(ctx, []domain.MethodCall{
		{Contract: address, ABI: evmabi.ERC20, Method: "symbol"},
		{Contract: address, ABI: evmabi.ERC20, Method: "name"},
		{Contract: address, ABI: evmabi.ERC20, Method: "decimals"},
	})
	if err != nil {
		return token.Metadata{}, err
	}
	for _, r := range results {
		if !r.Success || len(r.Output) == 0 {
			return token.Metadata{}, apperror.New(apperror.CodeTokenMetadataFailed,
				apperror.WithContext(fmt.Sprintf("%s:%s is not an ERC-20 token", p.config.Blockchain, address)))
		}
	}

	symbol, _ := results[0].Output[0].(string)
	name, _ := results[1].Output[0].(string)
	decimals, ok := results[2].Output[0].(uint8)
	if !ok {
		return token.Metadata{}, apperror.New(apperror.CodeTokenMetadataFailed,
			apperror.WithContext("decimals is not uint8"))
	}
	return token.Metadata{Symbol: symbol, Name: name, Decimals: decimals}, nil
}

func firstBig(out []any) (*big.Int, error) {
	if len(out) == 0 {
		return nil, apperror.New(apperror.CodeContractCallFailed, apperror.WithContext("empty output"))
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("unexpected output type %T", out[0])))
	}
	return v, nil
}
