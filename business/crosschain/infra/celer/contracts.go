package celer

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/swap-aggregator/internal/evmabi"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// Contract is the cross-chain router on one chain and the stable coin it
// bridges.
type Contract struct {
	Address string
	Transit token.Token
}

// TransitTokens are the bridged stable coins per chain.
var TransitTokens = map[token.Blockchain]token.Token{
	token.Ethereum:  token.USDC,
	token.BSC:       token.USDCBSC,
	token.Polygon:   token.USDCPolygon,
	token.Arbitrum:  token.USDCArbitrum,
	token.Optimism:  token.USDCOptimism,
	token.Avalanche: token.USDCAvalanche,
	token.Base:      token.USDCBase,
	token.Linea:     token.USDCLinea,
}

// Contracts pairs router addresses with transit tokens. Chains without a
// transit token or a valid address are left out.
func Contracts(addresses map[token.Blockchain]string) map[token.Blockchain]Contract {
	out := make(map[token.Blockchain]Contract, len(addresses))
	for b, addr := range addresses {
		transit, ok := TransitTokens[b]
		if !ok || !token.IsAddressCorrect(b, addr) {
			continue
		}
		out[b] = Contract{Address: addr, Transit: transit}
	}
	return out
}

// Router method names. The suffix selects the source swap encoding.
const (
	methodSwapTokens = "swapTokensToOtherBlockchain"
	methodSwapCrypto = "swapCryptoToOtherBlockchain"
	toUserTokens     = "swapTokensToUserWithFee"
	toUserCrypto     = "swapCryptoToUserWithFee"

	suffixV2 = "V2"
	suffixV3 = "V3"
)

func swapParams(srcPathType string) string {
	return fmt.Sprintf(`[
		{"name":"dstChainID","type":"uint256"},
		{"name":"srcInputAmount","type":"uint256"},
		{"name":"srcPath","type":%q},
		{"name":"dstPath","type":"address[]"},
		{"name":"srcMinOut","type":"uint256"},
		{"name":"dstMinOut","type":"uint256"},
		{"name":"receiver","type":"bytes32"},
		{"name":"nativeOut","type":"bool"},
		{"name":"swapToUserSig","type":"string"},
		{"name":"maxBridgeSlippage","type":"uint32"}
	]`, srcPathType)
}

func swapMethod(name, srcPathType string) string {
	return fmt.Sprintf(`{"type":"function","name":%q,"stateMutability":"payable",
		"inputs":[{"name":"params","type":"tuple","components":%s}],"outputs":[]}`, name, swapParams(srcPathType))
}

func view(name, input, output string) string {
	inputs := "[]"
	if input != "" {
		inputs = fmt.Sprintf(`[{"name":"arg","type":%q}]`, input)
	}
	return fmt.Sprintf(`{"type":"function","name":%q,"stateMutability":"view","inputs":%s,"outputs":[{"name":"","type":%q}]}`,
		name, inputs, output)
}

// RouterABI is the cross-chain router: the four swap entry points and the
// views read while quoting.
var RouterABI = evmabi.MustParse("[" + strings.Join([]string{
	swapMethod(methodSwapTokens+suffixV2, "address[]"),
	swapMethod(methodSwapTokens+suffixV3, "bytes"),
	swapMethod(methodSwapCrypto+suffixV2, "address[]"),
	swapMethod(methodSwapCrypto+suffixV3, "bytes"),
	view("paused", "", "bool"),
	view("minTokenAmount", "", "uint256"),
	view("maxTokenAmount", "", "uint256"),
	view("blockchainCryptoFee", "uint256", "uint256"),
	view("feeAmountOfBlockchain", "uint256", "uint256"),
}, ",") + "]")

// BridgeEventsABI holds the cBridge Send event that carries the transfer id.
var BridgeEventsABI = evmabi.MustParse(`[{"type":"event","name":"Send","anonymous":false,"inputs":[
	{"name":"transferId","type":"bytes32","indexed":false},
	{"name":"sender","type":"address","indexed":false},
	{"name":"receiver","type":"address","indexed":false},
	{"name":"token","type":"address","indexed":false},
	{"name":"amount","type":"uint256","indexed":false},
	{"name":"dstChainId","type":"uint64","indexed":false},
	{"name":"nonce","type":"uint64","indexed":false},
	{"name":"maxSlippage","type":"uint32","indexed":false}
]}]`)

// SwapParamsV2 is the router argument when the source swap is a v2 path.
type SwapParamsV2 struct {
	DstChainID        *big.Int
	SrcInputAmount    *big.Int
	SrcPath           []common.Address
	DstPath           []common.Address
	SrcMinOut         *big.Int
	DstMinOut         *big.Int
	Receiver          [32]byte
	NativeOut         bool
	SwapToUserSig     string
	MaxBridgeSlippage uint32
}

// SwapParamsV3 is SwapParamsV2 with an encoded v3 source path.
type SwapParamsV3 struct {
	DstChainID        *big.Int
	SrcInputAmount    *big.Int
	SrcPath           []byte
	DstPath           []common.Address
	SrcMinOut         *big.Int
	DstMinOut         *big.Int
	Receiver          [32]byte
	NativeOut         bool
	SwapToUserSig     string
	MaxBridgeSlippage uint32
}

// feePercentDenominator scales feeAmountOfBlockchain to percent.
const feePercentDenominator = 10000
