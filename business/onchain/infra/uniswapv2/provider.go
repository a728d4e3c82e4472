// Package uniswapv2 quotes and encodes swaps on Uniswap V2 style routers.
package uniswapv2

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/business/onchain/infra/amm"
	routingapp "github.com/fd1az/swap-aggregator/business/routing/app"
	routing "github.com/fd1az/swap-aggregator/business/routing/domain"
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// Gas used by a swap, estimated per hop.
const (
	gasBase   = 120_000
	gasPerHop = 60_000
)

// DefaultDeployments lists the routers per chain.
func DefaultDeployments() map[token.Blockchain]amm.Deployment {
	return map[token.Blockchain]amm.Deployment{
		token.Ethereum:  {Router: routerEthereum},
		token.BSC:       {Router: routerL2},
		token.Polygon:   {Router: routerL2},
		token.Arbitrum:  {Router: routerL2},
		token.Optimism:  {Router: routerL2},
		token.Avalanche: {Router: routerL2},
		token.Base:      {Router: routerL2},
	}
}

// Strategy implements amm.Strategy.
type Strategy struct {
	deployments map[token.Blockchain]amm.Deployment
}

var _ amm.Strategy = (*Strategy)(nil)

// NewStrategy creates a strategy; nil deployments means the defaults.
func NewStrategy(deployments map[token.Blockchain]amm.Deployment) *Strategy {
	if deployments == nil {
		deployments = DefaultDeployments()
	}
	return &Strategy{deployments: deployments}
}

func (s *Strategy) Type() domain.Type         { return domain.TypeUniswapV2 }
func (s *Strategy) Kind() domain.ProviderKind { return domain.KindUniswapV2Style }
func (s *Strategy) MaxPathLength() int        { return 0 }

func (s *Strategy) Deployment(b token.Blockchain) (amm.Deployment, bool) {
	d, ok := s.deployments[b]
	return d, ok
}

func (s *Strategy) GasLimit(hops int) uint64 {
	return uint64(gasBase + gasPerHop*max(hops-1, 0))
}

func (s *Strategy) CallBuilder(d amm.Deployment) routingapp.CallBuilder {
	return callBuilder{router: d.Router}
}

type callBuilder struct {
	router string
}

func (c callBuilder) BuildCalls(path []token.Token, amountIn *big.Int) []routing.PathCall {
	return []routing.PathCall{{
		Call: bcdomain.MethodCall{
			Contract: c.router,
			ABI:      RouterABI,
			Method:   "getAmountsOut",
			Args:     []any{amountIn, amm.WrappedPath(path)},
		},
	}}
}

func (callBuilder) ParseAmount(outputs []any) (*big.Int, error) {
	return amm.LastAmount(outputs)
}

// Encode picks the router method by which side is native, using the
// fee-on-transfer variant when the caller asks for it.
func (s *Strategy) Encode(q amm.Quote, p tradeapp.EncodeParams) (tradeapp.ContractCall, error) {
	path := amm.WrappedPath(q.Route.Path)
	to := common.HexToAddress(p.ReceiverAddress)
	call := tradeapp.ContractCall{Contract: q.Deployment.Router, ABI: RouterABI}

	switch {
	case q.From.IsNative():
		call.Method = "swapExactETHForTokens"
		call.Args = []any{q.AmountOutMin(), path, to, q.DeadlineUnix()}
		call.Value = q.From.WeiAmount()
	case q.To.IsNative():
		call.Method = "swapExactTokensForETH"
		call.Args = []any{q.From.WeiAmount(), q.AmountOutMin(), path, to, q.DeadlineUnix()}
	default:
		call.Method = "swapExactTokensForTokens"
		call.Args = []any{q.From.WeiAmount(), q.AmountOutMin(), path, to, q.DeadlineUnix()}
	}
	if p.SupportFee {
		call.Method += supportingFeeSuffix
	}
	return call, nil
}
