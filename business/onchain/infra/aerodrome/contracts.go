package aerodrome

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/swap-aggregator/internal/evmabi"
)

// RouterABI is the Aerodrome router subset. Routes are tuples of
// (from, to, stable, factory).
var RouterABI = evmabi.MustParse(`[
	{"name":"getAmountsOut","type":"function","stateMutability":"view",
	 "inputs":[{"name":"amountIn","type":"uint256"},
	           {"name":"routes","type":"tuple[]","components":[
	             {"name":"from","type":"address"},{"name":"to","type":"address"},
	             {"name":"stable","type":"bool"},{"name":"factory","type":"address"}]}],
	 "outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"name":"swapExactTokensForTokens","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},
	           {"name":"routes","type":"tuple[]","components":[
	             {"name":"from","type":"address"},{"name":"to","type":"address"},
	             {"name":"stable","type":"bool"},{"name":"factory","type":"address"}]},
	           {"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],
	 "outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"name":"swapExactETHForTokens","type":"function","stateMutability":"payable",
	 "inputs":[{"name":"amountOutMin","type":"uint256"},
	           {"name":"routes","type":"tuple[]","components":[
	             {"name":"from","type":"address"},{"name":"to","type":"address"},
	             {"name":"stable","type":"bool"},{"name":"factory","type":"address"}]},
	           {"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],
	 "outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"name":"swapExactTokensForETH","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},
	           {"name":"routes","type":"tuple[]","components":[
	             {"name":"from","type":"address"},{"name":"to","type":"address"},
	             {"name":"stable","type":"bool"},{"name":"factory","type":"address"}]},
	           {"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],
	 "outputs":[{"name":"amounts","type":"uint256[]"}]}
]`)

// Route mirrors the router's Route struct.
type Route struct {
	From    common.Address
	To      common.Address
	Stable  bool
	Factory common.Address
}

const (
	routerBase  = "0xcF77a3Ba9A5CA399B7c97c74d54e5b1Beb874E43"
	factoryBase = "0x420DD381b31aEf6683db6B902084cB0FFECe40Da"
)
