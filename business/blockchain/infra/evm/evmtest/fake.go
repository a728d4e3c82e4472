// Package evmtest provides an in-memory EthClient for adapter and provider
// tests.
package evmtest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/swap-aggregator/internal/evmabi"
)

// MethodFunc answers one contract method. Returning an error simulates a
// revert with that message.
type MethodFunc func(args []any) ([]any, error)

// Contract is a fake deployed contract.
type Contract struct {
	ABI     *abi.ABI
	Methods map[string]MethodFunc
}

// Client is a fake EthClient. Zero values are usable; set fields before use.
type Client struct {
	mu sync.Mutex

	ChainIDValue *big.Int
	BaseFee      *big.Int // nil simulates a legacy chain
	GasPrice     *big.Int
	TipCap       *big.Int
	Balances     map[common.Address]*big.Int
	Code         map[common.Address][]byte
	Contracts    map[common.Address]*Contract

	// EstimateErr is returned by EstimateGas while non-nil; EstimateGasValue
	// otherwise.
	EstimateErr      error
	EstimateGasValue uint64
	// SendErrs are returned by successive SendTransaction calls.
	SendErrs []error
	// ReceiptStatus is the status given to every mined transaction.
	ReceiptStatus uint64
	// NoReceipt keeps transactions pending forever.
	NoReceipt bool
	// Receipts are returned as-is for their hashes.
	Receipts map[common.Hash]*types.Receipt

	Sent         []*types.Transaction
	MulticallHit int
	nonce        uint64
}

// NewClient returns a client on chainID with a 1 gwei base fee.
func NewClient(chainID int64) *Client {
	return &Client{
		ChainIDValue:     big.NewInt(chainID),
		BaseFee:          big.NewInt(1e9),
		GasPrice:         big.NewInt(2e9),
		TipCap:           big.NewInt(1e8),
		Balances:         map[common.Address]*big.Int{},
		Code:             map[common.Address][]byte{},
		Contracts:        map[common.Address]*Contract{},
		Receipts:         map[common.Hash]*types.Receipt{},
		EstimateGasValue: 100_000,
		ReceiptStatus:    types.ReceiptStatusSuccessful,
	}
}

// Deploy registers a fake contract at address.
func (c *Client) Deploy(address string, contractABI *abi.ABI, methods map[string]MethodFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	addr := common.HexToAddress(address)
	c.Contracts[addr] = &Contract{ABI: contractABI, Methods: methods}
	c.Code[addr] = []byte{0x60, 0x80}
}

func (c *Client) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.ChainIDValue), nil
}

func (c *Client) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: c.BaseFee}, nil
}

func (c *Client) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.Balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (c *Client) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Code[account], nil
}

func (c *Client) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil {
		return nil, errors.New("call without target")
	}
	if *msg.To == common.HexToAddress(evmabi.Multicall3Address) {
		c.mu.Lock()
		c.MulticallHit++
		c.mu.Unlock()
		return c.aggregate3(msg.Data)
	}
	return c.call(*msg.To, msg.Data)
}

func (c *Client) call(to common.Address, data []byte) ([]byte, error) {
	c.mu.Lock()
	contract, ok := c.Contracts[to]
	c.mu.Unlock()
	if !ok || len(data) < 4 {
		return nil, fmt.Errorf("execution reverted: no contract at %s", to.Hex())
	}
	method, err := contract.ABI.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("execution reverted: %w", err)
	}
	fn, ok := contract.Methods[method.Name]
	if !ok {
		return nil, fmt.Errorf("execution reverted: %s not implemented", method.Name)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	out, err := fn(args)
	if err != nil {
		return nil, fmt.Errorf("execution reverted: %s", err.Error())
	}
	return method.Outputs.Pack(out...)
}

func (c *Client) aggregate3(data []byte) ([]byte, error) {
	method := evmabi.Multicall3.Methods["aggregate3"]
	in, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	var calls []evmabi.Call3
	if err := method.Inputs.Copy(&calls, in); err != nil {
		return nil, err
	}
	results := make([]evmabi.Call3Result, len(calls))
	for i, call := range calls {
		out, err := c.call(call.Target, call.CallData)
		if err != nil {
			if !call.AllowFailure {
				return nil, err
			}
			results[i] = evmabi.Call3Result{Success: false, ReturnData: []byte{}}
			continue
		}
		results[i] = evmabi.Call3Result{Success: true, ReturnData: out}
	}
	return method.Outputs.Pack(results)
}

func (c *Client) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	if c.EstimateErr != nil {
		return 0, c.EstimateErr
	}
	return c.EstimateGasValue, nil
}

func (c *Client) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.GasPrice), nil
}

func (c *Client) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.TipCap), nil
}

func (c *Client) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonce, nil
}

func (c *Client) SendTransaction(_ context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.SendErrs) > 0 {
		err := c.SendErrs[0]
		c.SendErrs = c.SendErrs[1:]
		if err != nil {
			return err
		}
	}
	c.Sent = append(c.Sent, tx)
	c.nonce++
	return nil
}

func (c *Client) TransactionByHash(_ context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tx := range c.Sent {
		if tx.Hash() == hash {
			return tx, c.NoReceipt, nil
		}
	}
	return nil, false, ethereum.NotFound
}

func (c *Client) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.Receipts[hash]; ok {
		return r, nil
	}
	if c.NoReceipt {
		return nil, ethereum.NotFound
	}
	for _, tx := range c.Sent {
		if tx.Hash() == hash {
			return &types.Receipt{
				TxHash:      hash,
				Status:      c.ReceiptStatus,
				BlockNumber: big.NewInt(int64(len(c.Sent))),
				GasUsed:     tx.Gas(),
			}, nil
		}
	}
	return nil, ethereum.NotFound
}

// SentCount returns the number of accepted transactions.
func (c *Client) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sent)
}

// ERC20 returns handlers for a token with fixed metadata and balances.
func ERC20(symbol, name string, decimals uint8, balances map[common.Address]*big.Int) map[string]MethodFunc {
	return map[string]MethodFunc{
		"symbol":   func([]any) ([]any, error) { return []any{symbol}, nil },
		"name":     func([]any) ([]any, error) { return []any{name}, nil },
		"decimals": func([]any) ([]any, error) { return []any{decimals}, nil },
		"balanceOf": func(args []any) ([]any, error) {
			if b, ok := balances[args[0].(common.Address)]; ok {
				return []any{b}, nil
			}
			return []any{new(big.Int)}, nil
		},
		"allowance": func([]any) ([]any, error) { return []any{new(big.Int)}, nil },
		"approve":   func([]any) ([]any, error) { return []any{true}, nil },
	}
}
