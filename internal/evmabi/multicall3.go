package evmabi

import (
	"github.com/ethereum/go-ethereum/common"
)

// Multicall3Address is deployed at the same address on every supported EVM
// chain.
const Multicall3Address = "0xcA11bde05977b3631167028862bE2a173976CA11"

// Multicall3 exposes aggregate3 and the native balance helper.
var Multicall3 = MustParse(`[
	{"inputs":[{"components":[{"name":"target","type":"address"},{"name":"allowFailure","type":"bool"},{"name":"callData","type":"bytes"}],"name":"calls","type":"tuple[]"}],
	 "name":"aggregate3","outputs":[{"components":[{"name":"success","type":"bool"},{"name":"returnData","type":"bytes"}],"name":"returnData","type":"tuple[]"}],
	 "stateMutability":"payable","type":"function"},
	{"inputs":[{"name":"addr","type":"address"}],"name":"getEthBalance","outputs":[{"name":"balance","type":"uint256"}],"stateMutability":"view","type":"function"}
]`)

// Call3 is one aggregate3 input.
type Call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

// Call3Result is one aggregate3 output.
type Call3Result struct {
	Success    bool
	ReturnData []byte
}
