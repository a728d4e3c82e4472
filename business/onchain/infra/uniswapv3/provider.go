// Package uniswapv3 quotes through QuoterV2 and encodes SwapRouter02
// exactInput swaps.
package uniswapv3

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/business/onchain/infra/amm"
	routingapp "github.com/fd1az/swap-aggregator/business/routing/app"
	routing "github.com/fd1az/swap-aggregator/business/routing/domain"
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const (
	gasBase   = 150_000
	gasPerHop = 80_000
)

// DefaultDeployments lists QuoterV2/SwapRouter02 per chain.
func DefaultDeployments() map[token.Blockchain]amm.Deployment {
	canonical := amm.Deployment{Router: swapRouter02, Quoter: quoterV2}
	return map[token.Blockchain]amm.Deployment{
		token.Ethereum: canonical,
		token.Polygon:  canonical,
		token.Arbitrum: canonical,
		token.Optimism: canonical,
		token.Base:     {Router: swapRouter02Base, Quoter: quoterV2Base},
	}
}

// Strategy implements amm.Strategy.
type Strategy struct {
	deployments map[token.Blockchain]amm.Deployment
	feeTiers    []int
}

var _ amm.Strategy = (*Strategy)(nil)

// NewStrategy creates a strategy. Nil arguments select the defaults.
func NewStrategy(deployments map[token.Blockchain]amm.Deployment, feeTiers []int) *Strategy {
	if deployments == nil {
		deployments = DefaultDeployments()
	}
	if len(feeTiers) == 0 {
		feeTiers = DefaultFeeTiers
	}
	return &Strategy{deployments: deployments, feeTiers: feeTiers}
}

func (s *Strategy) Type() domain.Type         { return domain.TypeUniswapV3 }
func (s *Strategy) Kind() domain.ProviderKind { return domain.KindUniswapV3Style }
func (s *Strategy) MaxPathLength() int        { return 0 }

func (s *Strategy) Deployment(b token.Blockchain) (amm.Deployment, bool) {
	d, ok := s.deployments[b]
	return d, ok
}

func (s *Strategy) GasLimit(hops int) uint64 {
	return uint64(gasBase + gasPerHop*max(hops-1, 0))
}

func (s *Strategy) CallBuilder(d amm.Deployment) routingapp.CallBuilder {
	return callBuilder{quoter: d.Quoter, feeTiers: s.feeTiers}
}

type callBuilder struct {
	quoter   string
	feeTiers []int
}

// BuildCalls quotes every fee tier combination of the path. The variant is
// the comma separated fee list.
func (c callBuilder) BuildCalls(path []token.Token, amountIn *big.Int) []routing.PathCall {
	addrs := amm.WrappedPath(path)
	var out []routing.PathCall
	for _, fees := range feeCombinations(c.feeTiers, len(path)-1) {
		encoded, err := EncodePath(addrs, fees)
		if err != nil {
			continue
		}
		out = append(out, routing.PathCall{
			Variant: FormatFees(fees),
			Call: bcdomain.MethodCall{
				Contract: c.quoter,
				ABI:      QuoterV2ABI,
				Method:   "quoteExactInput",
				Args:     []any{encoded, amountIn},
			},
		})
	}
	return out
}

func (callBuilder) ParseAmount(outputs []any) (*big.Int, error) {
	if len(outputs) == 0 {
		return nil, apperror.SDK("empty quoter output", nil)
	}
	out, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, apperror.SDK("unexpected quoter output", nil)
	}
	return out, nil
}

func feeCombinations(tiers []int, hops int) [][]int {
	if hops <= 0 {
		return nil
	}
	combos := [][]int{{}}
	for range hops {
		var next [][]int
		for _, c := range combos {
			for _, t := range tiers {
				n := append(append([]int(nil), c...), t)
				next = append(next, n)
			}
		}
		combos = next
	}
	return combos
}

// EncodePath packs token0 fee0 token1 fee1 ... tokenN as the router expects:
// 20-byte addresses separated by 3-byte big-endian fees.
func EncodePath(tokens []common.Address, fees []int) ([]byte, error) {
	if len(tokens) != len(fees)+1 {
		return nil, apperror.SDK("path and fee lengths do not match", nil)
	}
	out := make([]byte, 0, len(tokens)*20+len(fees)*3)
	for i, t := range tokens {
		out = append(out, t.Bytes()...)
		if i < len(fees) {
			f := fees[i]
			out = append(out, byte(f>>16), byte(f>>8), byte(f))
		}
	}
	return out, nil
}

// FormatFees renders fees as a variant key, e.g. "500,3000".
func FormatFees(fees []int) string {
	parts := make([]string, len(fees))
	for i, f := range fees {
		parts[i] = strconv.Itoa(f)
	}
	return strings.Join(parts, ",")
}

// ParseFees is the inverse of FormatFees.
func ParseFees(variant string) ([]int, error) {
	if variant == "" {
		return nil, apperror.SDK("empty fee variant", nil)
	}
	parts := strings.Split(variant, ",")
	fees := make([]int, len(parts))
	for i, p := range parts {
		f, err := strconv.Atoi(p)
		if err != nil {
			return nil, apperror.SDK("bad fee variant "+variant, err)
		}
		fees[i] = f
	}
	return fees, nil
}

// Encode builds exactInput. A native output goes to the router first and
// is unwrapped to the receiver in the same multicall.
func (s *Strategy) Encode(q amm.Quote, p tradeapp.EncodeParams) (tradeapp.ContractCall, error) {
	fees, err := ParseFees(q.Route.Variant)
	if err != nil {
		return tradeapp.ContractCall{}, err
	}
	path, err := EncodePath(amm.WrappedPath(q.Route.Path), fees)
	if err != nil {
		return tradeapp.ContractCall{}, err
	}

	receiver := common.HexToAddress(p.ReceiverAddress)
	var value *big.Int
	if q.From.IsNative() {
		value = q.From.WeiAmount()
	}

	params := ExactInputParams{
		Path:             path,
		Recipient:        receiver,
		AmountIn:         q.From.WeiAmount(),
		AmountOutMinimum: q.AmountOutMin(),
	}
	if !q.To.IsNative() {
		return tradeapp.ContractCall{
			Contract: q.Deployment.Router,
			ABI:      SwapRouter02ABI,
			Method:   "exactInput",
			Args:     []any{params},
			Value:    value,
		}, nil
	}

	params.Recipient = addressThis
	swap, err := SwapRouter02ABI.Pack("exactInput", params)
	if err != nil {
		return tradeapp.ContractCall{}, apperror.SDK("failed to encode exactInput", err)
	}
	unwrap, err := SwapRouter02ABI.Pack("unwrapWETH9", q.AmountOutMin(), receiver)
	if err != nil {
		return tradeapp.ContractCall{}, apperror.SDK("failed to encode unwrapWETH9", err)
	}
	return tradeapp.ContractCall{
		Contract: q.Deployment.Router,
		ABI:      SwapRouter02ABI,
		Method:   "multicall",
		Args:     []any{q.DeadlineUnix(), [][]byte{swap, unwrap}},
		Value:    value,
	}, nil
}
