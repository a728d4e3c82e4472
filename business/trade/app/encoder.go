// Package app implements executable trades: calldata encoding, the swap
// flow and the on-chain and cross-chain trade variants.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"

	bcapp "github.com/fd1az/swap-aggregator/business/blockchain/app"
	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const tracerName = "github.com/fd1az/swap-aggregator/business/trade/app"

// Chains resolves chain adapters. *bcapp.BlockchainService implements it.
type Chains interface {
	Public(b token.Blockchain) (bcapp.PublicAdapter, error)
	Private(b token.Blockchain) (bcapp.PrivateAdapter, error)
}

// EncodeParams are the validated addresses an encoder builds for.
// ReceiverAddress is never empty. Gateway is set when the transaction is
// routed through the fee proxy, which then calls the provider.
type EncodeParams struct {
	FromAddress     string
	ReceiverAddress string
	SupportFee      bool
	Gateway         string
}

// Caller is the address the provider contract sees as sender.
func (p EncodeParams) Caller() string {
	if p.Gateway != "" {
		return p.Gateway
	}
	return p.FromAddress
}

// Encoder turns a frozen quote into a transaction.
type Encoder interface {
	Encode(ctx context.Context, p EncodeParams) (bcdomain.TransactionConfig, error)
}

// ContractCall is a contract method invocation with an attached value.
type ContractCall struct {
	Contract string
	ABI      *abi.ABI
	Method   string
	Args     []any
	Value    *big.Int
}

// Pack encodes the call.
func (c ContractCall) Pack() (bcdomain.TransactionConfig, error) {
	data, err := c.ABI.Pack(c.Method, c.Args...)
	if err != nil {
		return bcdomain.TransactionConfig{}, apperror.SDK("failed to encode "+c.Method, err)
	}
	return bcdomain.TransactionConfig{To: c.Contract, Data: data, Value: c.Value}, nil
}

// ContractEncoder builds calldata locally from a router ABI.
type ContractEncoder func(p EncodeParams) (ContractCall, error)

// Encode implements Encoder.
func (f ContractEncoder) Encode(_ context.Context, p EncodeParams) (bcdomain.TransactionConfig, error) {
	call, err := f(p)
	if err != nil {
		return bcdomain.TransactionConfig{}, err
	}
	return call.Pack()
}

// APIEncoder fetches calldata from a provider API at encode time.
type APIEncoder func(ctx context.Context, p EncodeParams) (bcdomain.TransactionConfig, error)

// Encode implements Encoder.
func (f APIEncoder) Encode(ctx context.Context, p EncodeParams) (bcdomain.TransactionConfig, error) {
	return f(ctx, p)
}
