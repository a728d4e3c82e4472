package taiko

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/swap-aggregator/internal/evmabi"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// Deployment is the bridge and ERC-20 vault of one side.
type Deployment struct {
	Bridge string
	Vault  string
}

// DefaultDeployments are the mainnet contracts.
var DefaultDeployments = map[token.Blockchain]Deployment{
	token.Ethereum: {
		Bridge: "0xd60247c6848B7Ca29eDdF63AA924E53dB6Ddd8EC",
		Vault:  "0x996282cA11E5DEb6B5D122CC3B9A1FcAAD4415Ab",
	},
	token.Taiko: {
		Bridge: "0x1670000000000000000000000000000000000001",
		Vault:  "0x1670000000000000000000000000000000000002",
	},
}

const messageComponents = `[
	{"name":"id","type":"uint64"},
	{"name":"fee","type":"uint64"},
	{"name":"gasLimit","type":"uint32"},
	{"name":"from","type":"address"},
	{"name":"srcChainId","type":"uint64"},
	{"name":"srcOwner","type":"address"},
	{"name":"destChainId","type":"uint64"},
	{"name":"destOwner","type":"address"},
	{"name":"to","type":"address"},
	{"name":"value","type":"uint256"},
	{"name":"data","type":"bytes"}
]`

// BridgeABI covers sending native value, the MessageSent event and the
// status view read on the destination side.
var BridgeABI = evmabi.MustParse(`[
	{"type":"function","name":"sendMessage","stateMutability":"payable",
	 "inputs":[{"name":"message","type":"tuple","components":` + messageComponents + `}],
	 "outputs":[{"name":"msgHash","type":"bytes32"},{"name":"message","type":"tuple","components":` + messageComponents + `}]},
	{"type":"function","name":"messageStatus","stateMutability":"view",
	 "inputs":[{"name":"msgHash","type":"bytes32"}],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"event","name":"MessageSent","anonymous":false,"inputs":[
	 {"name":"msgHash","type":"bytes32","indexed":true},
	 {"name":"message","type":"tuple","indexed":false,"components":` + messageComponents + `}]}
]`)

// VaultABI covers sending ERC-20 tokens and the canonical/bridged mapping.
var VaultABI = evmabi.MustParse(`[
	{"type":"function","name":"sendToken","stateMutability":"payable",
	 "inputs":[{"name":"op","type":"tuple","components":[
		{"name":"destChainId","type":"uint64"},
		{"name":"destOwner","type":"address"},
		{"name":"to","type":"address"},
		{"name":"fee","type":"uint64"},
		{"name":"token","type":"address"},
		{"name":"gasLimit","type":"uint32"},
		{"name":"amount","type":"uint256"}]}],
	 "outputs":[]},
	{"type":"function","name":"canonicalToBridged","stateMutability":"view",
	 "inputs":[{"name":"chainId","type":"uint256"},{"name":"canonical","type":"address"}],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"bridgedToCanonical","stateMutability":"view",
	 "inputs":[{"name":"bridged","type":"address"}],
	 "outputs":[
		{"name":"chainId","type":"uint64"},
		{"name":"addr","type":"address"},
		{"name":"decimals","type":"uint8"},
		{"name":"symbol","type":"string"},
		{"name":"name","type":"string"}]}
]`)

// Message is the bridge message of sendMessage.
type Message struct {
	Id          uint64
	Fee         uint64
	GasLimit    uint32
	From        common.Address
	SrcChainId  uint64
	SrcOwner    common.Address
	DestChainId uint64
	DestOwner   common.Address
	To          common.Address
	Value       *big.Int
	Data        []byte
}

// BridgeTransferOp is the argument of sendToken.
type BridgeTransferOp struct {
	DestChainId uint64
	DestOwner   common.Address
	To          common.Address
	Fee         uint64
	Token       common.Address
	GasLimit    uint32
	Amount      *big.Int
}

// Message states returned by messageStatus.
const (
	statusNew uint8 = iota
	statusRetriable
	statusDone
	statusFailed
	statusRecalled
)
