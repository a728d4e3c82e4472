// Package aerodrome quotes and encodes swaps on the Aerodrome router, where
// every hop is either a stable or a volatile pool.
package aerodrome

import (
	"math/big"
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

// MaxPathLength is the router's limit: at most one transit token.
const MaxPathLength = 3

const (
	gasBase   = 160_000
	gasPerHop = 90_000
)

// Pool kinds as they appear in variants.
const (
	stable   = "stable"
	volatile = "volatile"
)

// DefaultDeployments lists the router per chain.
func DefaultDeployments() map[token.Blockchain]amm.Deployment {
	return map[token.Blockchain]amm.Deployment{
		token.Base: {Router: routerBase, Factory: factoryBase},
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

func (s *Strategy) Type() domain.Type         { return domain.TypeAerodrome }
func (s *Strategy) Kind() domain.ProviderKind { return domain.KindAerodromeStyle }
func (s *Strategy) MaxPathLength() int        { return MaxPathLength }

func (s *Strategy) Deployment(b token.Blockchain) (amm.Deployment, bool) {
	d, ok := s.deployments[b]
	return d, ok
}

func (s *Strategy) GasLimit(hops int) uint64 {
	return uint64(gasBase + gasPerHop*max(hops-1, 0))
}

func (s *Strategy) CallBuilder(d amm.Deployment) routingapp.CallBuilder {
	return callBuilder{router: d.Router, factory: common.HexToAddress(d.Factory)}
}

type callBuilder struct {
	router  string
	factory common.Address
}

// BuildCalls tries every stable/volatile combination over the hops.
func (c callBuilder) BuildCalls(path []token.Token, amountIn *big.Int) []routing.PathCall {
	addrs := amm.WrappedPath(path)
	var out []routing.PathCall
	for _, kinds := range poolCombinations(len(path) - 1) {
		routes, err := buildRoutes(addrs, kinds, c.factory)
		if err != nil {
			continue
		}
		out = append(out, routing.PathCall{
			Variant: strings.Join(kinds, ","),
			Call: bcdomain.MethodCall{
				Contract: c.router,
				ABI:      RouterABI,
				Method:   "getAmountsOut",
				Args:     []any{amountIn, routes},
			},
		})
	}
	return out
}

func (callBuilder) ParseAmount(outputs []any) (*big.Int, error) {
	return amm.LastAmount(outputs)
}

func poolCombinations(hops int) [][]string {
	if hops <= 0 {
		return nil
	}
	combos := [][]string{{}}
	for range hops {
		var next [][]string
		for _, c := range combos {
			for _, k := range []string{stable, volatile} {
				next = append(next, append(append([]string(nil), c...), k))
			}
		}
		combos = next
	}
	return combos
}

func buildRoutes(addrs []common.Address, kinds []string, factory common.Address) ([]Route, error) {
	if len(addrs) != len(kinds)+1 {
		return nil, apperror.SDK("path and pool kinds do not match", nil)
	}
	routes := make([]Route, len(kinds))
	for i, k := range kinds {
		routes[i] = Route{From: addrs[i], To: addrs[i+1], Stable: k == stable, Factory: factory}
	}
	return routes, nil
}

// Encode picks the router method by which side is native.
func (s *Strategy) Encode(q amm.Quote, p tradeapp.EncodeParams) (tradeapp.ContractCall, error) {
	routes, err := buildRoutes(amm.WrappedPath(q.Route.Path), strings.Split(q.Route.Variant, ","), common.HexToAddress(q.Deployment.Factory))
	if err != nil {
		return tradeapp.ContractCall{}, err
	}
	to := common.HexToAddress(p.ReceiverAddress)
	call := tradeapp.ContractCall{Contract: q.Deployment.Router, ABI: RouterABI}

	switch {
	case q.From.IsNative():
		call.Method = "swapExactETHForTokens"
		call.Args = []any{q.AmountOutMin(), routes, to, q.DeadlineUnix()}
		call.Value = q.From.WeiAmount()
	case q.To.IsNative():
		call.Method = "swapExactTokensForETH"
		call.Args = []any{q.From.WeiAmount(), q.AmountOutMin(), routes, to, q.DeadlineUnix()}
	default:
		call.Method = "swapExactTokensForTokens"
		call.Args = []any{q.From.WeiAmount(), q.AmountOutMin(), routes, to, q.DeadlineUnix()}
	}
	return call, nil
}
