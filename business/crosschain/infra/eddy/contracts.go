package eddy

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/swap-aggregator/internal/evmabi"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// DefaultTSS is the ZetaChain TSS address on connected EVM chains. Native
// coins sent to it with a memo are deposited on ZetaChain.
const DefaultTSS = "0x70e967acFcC17c3941E87562161406d41676FD83"

// feeScale is the denominator of the contract's platformFee: 10 is 1%.
const feeScale = 1000

// GasZRC20 are the ZetaChain tokens standing for each connected chain's
// gas coin.
var GasZRC20 = map[token.Blockchain]string{
	token.Ethereum: "0xd97B1de3619ed2c6BEb3860147E30cA8A7dC9891",
	token.BSC:      "0x48f80608B672DC30DC7e3dbBd0343c5F02C738Eb",
}

// SupportedBlockchains are ZetaChain and the chains whose gas coin it
// carries.
var SupportedBlockchains = []token.Blockchain{token.Ethereum, token.BSC, token.ZetaChain}

// EddyABI covers the fee view and both withdrawals from ZetaChain.
var EddyABI = evmabi.MustParse(`[
	{"type":"function","name":"platformFee","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"withdrawToNativeChain","stateMutability":"nonpayable",
	 "inputs":[{"name":"withdrawData","type":"bytes"},{"name":"amount","type":"uint256"},{"name":"zrc20","type":"address"}],
	 "outputs":[]},
	{"type":"function","name":"transferZetaToConnectedChain","stateMutability":"payable",
	 "inputs":[{"name":"withdrawData","type":"bytes"},{"name":"zrc20","type":"address"}],
	 "outputs":[]}
]`)

// Memo is the message a deposit carries to ZetaChain: the Eddy contract
// called there, the receiver and the ZetaChain token to deliver.
func Memo(contract, receiver, target string) []byte {
	out := make([]byte, 0, 3*common.AddressLength)
	out = append(out, common.HexToAddress(contract).Bytes()...)
	out = append(out, common.HexToAddress(receiver).Bytes()...)
	return append(out, common.HexToAddress(target).Bytes()...)
}
