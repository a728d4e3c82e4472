package domain

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TransactionConfig is a ready-to-sign EVM transaction. Gas and the price
// fields are optional; the sender fills whatever is missing.
type TransactionConfig struct {
	To                   string
	Data                 []byte
	Value                *big.Int
	Gas                  uint64
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

type transactionConfigJSON struct {
	To                   string        `json:"to"`
	Data                 hexutil.Bytes `json:"data"`
	Value                string        `json:"value"`
	Gas                  uint64        `json:"gas,omitempty"`
	GasPrice             string        `json:"gasPrice,omitempty"`
	MaxFeePerGas         string        `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string        `json:"maxPriorityFeePerGas,omitempty"`
}

// MarshalJSON renders amounts as decimal wei strings and data as 0x hex.
func (t TransactionConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionConfigJSON{
		To:                   t.To,
		Data:                 t.Data,
		Value:                bigString(t.Value, "0"),
		Gas:                  t.Gas,
		GasPrice:             bigString(t.GasPrice, ""),
		MaxFeePerGas:         bigString(t.MaxFeePerGas, ""),
		MaxPriorityFeePerGas: bigString(t.MaxPriorityFeePerGas, ""),
	})
}

func bigString(v *big.Int, empty string) string {
	if v == nil {
		return empty
	}
	return v.String()
}

// ValueOrZero returns Value, or zero when unset.
func (t TransactionConfig) ValueOrZero() *big.Int {
	if t.Value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(t.Value)
}

// Receipt is the subset of a transaction receipt the SDK reports.
type Receipt struct {
	TxHash      string
	Status      uint64
	BlockNumber uint64
	GasUsed     uint64
	Logs        []Log
}

// Log is an emitted event. Topics are 0x-prefixed hashes.
type Log struct {
	Address string
	Topics  []string
	Data    []byte
}

// Succeeded reports status 1.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == 1
}

// TxOptions tune a single send. OnTransactionHash is called once the node
// accepts the transaction, in its own goroutine, before inclusion.
type TxOptions struct {
	OnTransactionHash func(hash string)
	Value             *big.Int
	GasLimit          uint64
	GasPrice          *big.Int
}

// TransactionInfo is the subset of an on-chain transaction used by status
// lookups.
type TransactionInfo struct {
	Hash    string
	From    string
	To      string
	Value   *big.Int
	Data    []byte
	Pending bool
}
