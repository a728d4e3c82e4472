// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// PublicAdapter reads chain state. Every error it returns is already
// classified into an *apperror.AppError.
type PublicAdapter interface {
	Blockchain() token.Blockchain

	// GetBalance returns the native balance when tokenAddress is the
	// native address, the ERC-20 balance otherwise.
	GetBalance(ctx context.Context, owner, tokenAddress string) (*big.Int, error)
	GetAllowance(ctx context.Context, tokenAddress, owner, spender string) (*big.Int, error)

	CallContractMethod(ctx context.Context, contract string, contractABI *abi.ABI, method string, args ...any) ([]any, error)
	// MulticallContractMethods batches calls into one aggregate3 read.
	// Results align with calls; a failed call yields Success=false.
	MulticallContractMethods(ctx context.Context, calls []domain.MethodCall) ([]domain.MethodResult, error)

	// EstimateGas returns the node estimate multiplied by the gas margin.
	EstimateGas(ctx context.Context, from string, tx domain.TransactionConfig) (uint64, error)
	GetGasPrice(ctx context.Context) (*domain.GasPrice, error)
	CalculateGasData(ctx context.Context, gasLimit uint64) (*domain.GasData, error)

	GetTransactionByHash(ctx context.Context, hash string) (*domain.TransactionInfo, error)
	GetTransactionReceipt(ctx context.Context, hash string) (*domain.Receipt, error)
	GetChainID(ctx context.Context) (*big.Int, error)
	IsContract(ctx context.Context, address string) (bool, error)
	TokenMetadata(ctx context.Context, address string) (token.Metadata, error)
}

// PrivateAdapter signs and sends transactions from one wallet. Sends resolve
// once the transaction is included.
type PrivateAdapter interface {
	Address() string
	CheckBlockchainCorrect(ctx context.Context, b token.Blockchain) error

	SendTransaction(ctx context.Context, tx domain.TransactionConfig, opts domain.TxOptions) (*domain.Receipt, error)
	ExecuteContractMethod(ctx context.Context, contract string, contractABI *abi.ABI, method string, args []any, opts domain.TxOptions) (*domain.Receipt, error)
	// ApproveTokens approves amount, or an infinite allowance when nil.
	ApproveTokens(ctx context.Context, tokenAddress, spender string, amount *big.Int, opts domain.TxOptions) (*domain.Receipt, error)
}

// GasOracle prices gas for one chain.
type GasOracle interface {
	GetGasPrice(ctx context.Context) (*domain.GasPrice, error)
	CalculateGasData(ctx context.Context, gasLimit uint64) (*domain.GasData, error)
}
