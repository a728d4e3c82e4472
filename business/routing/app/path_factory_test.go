package app

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/business/routing/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/token"
)

type fakeMulticall struct {
	batches int
	calls   []bcdomain.MethodCall
	quote   func(path []token.Token, variant string) (*big.Int, bool)
	err     error
}

func (f *fakeMulticall) MulticallContractMethods(_ context.Context, calls []bcdomain.MethodCall) ([]bcdomain.MethodResult, error) {
	f.batches++
	f.calls = append(f.calls, calls...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]bcdomain.MethodResult, len(calls))
	for i, c := range calls {
		path := c.Args[0].([]token.Token)
		variant := c.Args[1].(string)
		amount, ok := f.quote(path, variant)
		out[i] = bcdomain.MethodResult{Success: ok, Output: []any{amount}}
	}
	return out, nil
}

// variantBuilder emits one call per variant and smuggles the path through
// Args so the fake can quote it.
type variantBuilder struct {
	variants []string
}

func (b variantBuilder) BuildCalls(path []token.Token, _ *big.Int) []domain.PathCall {
	variants := b.variants
	if len(variants) == 0 {
		variants = []string{""}
	}
	out := make([]domain.PathCall, 0, len(variants))
	for _, v := range variants {
		out = append(out, domain.PathCall{
			Variant: v,
			Call:    bcdomain.MethodCall{Contract: "router", Method: "getAmountsOut", Args: []any{path, v}},
		})
	}
	return out
}

func (variantBuilder) ParseAmount(outputs []any) (*big.Int, error) {
	if len(outputs) == 0 {
		return nil, errors.New("no output")
	}
	v, _ := outputs[0].(*big.Int)
	return v, nil
}

func amountOf(t *testing.T, tok token.Token, units int64) token.PriceTokenAmount {
	t.Helper()
	a, err := token.NewPriceTokenAmountFromWei(token.NewUnpricedToken(tok), big.NewInt(units))
	require.NoError(t, err)
	return a
}

func symbols(path []token.Token) []string {
	out := make([]string, len(path))
	for i, t := range path {
		out[i] = t.Symbol()
	}
	return out
}

func TestEnumeratePaths(t *testing.T) {
	routing := []token.Token{token.WETH, token.USDC, token.DAI, token.USDT}

	paths := EnumeratePaths(token.USDC, token.USDT, routing, 1)

	got := make([][]string, len(paths))
	for i, p := range paths {
		got[i] = symbols(p)
	}
	assert.Equal(t, [][]string{
		{"USDC", "USDT"},
		{"USDC", "WETH", "USDT"},
		{"USDC", "DAI", "USDT"},
	}, got)
}

func TestEnumeratePaths_NativeEndpointExcludesWrapped(t *testing.T) {
	eth := token.Native(token.Ethereum)
	routing := []token.Token{token.WETH, token.USDC}

	paths := EnumeratePaths(eth, token.DAI, routing, 1)

	require.Len(t, paths, 2)
	assert.Equal(t, []string{"ETH", "USDC", "DAI"}, symbols(paths[1]))
}

func TestEnumeratePaths_TwoTransitNoRepeats(t *testing.T) {
	routing := []token.Token{token.WETH, token.USDC, token.DAI}

	paths := EnumeratePaths(token.WBTC, token.USDT, routing, 2)

	// 1 direct + 3 single hop + 3*2 ordered pairs
	require.Len(t, paths, 10)
	for _, p := range paths {
		assert.LessOrEqual(t, len(p), 4)
		seen := map[token.Key]bool{}
		for _, tok := range p {
			assert.False(t, seen[tok.Key()], "repeated token in %v", symbols(p))
			seen[tok.Key()] = true
		}
	}
}

func TestFindRoutes_SingleMulticallAndFiltering(t *testing.T) {
	mc := &fakeMulticall{
		quote: func(path []token.Token, variant string) (*big.Int, bool) {
			switch {
			case len(path) == 2 && variant == "volatile":
				return big.NewInt(100), true
			case len(path) == 2 && variant == "stable":
				return big.NewInt(0), true
			case len(path) == 3 && path[1].Equal(token.WETH) && variant == "stable":
				return big.NewInt(150), true
			case len(path) == 3 && path[1].Equal(token.DAI):
				return big.NewInt(150), true
			}
			return nil, false
		},
	}
	req := Request{
		From:             amountOf(t, token.USDC, 1_000_000),
		To:               token.NewUnpricedToken(token.USDT),
		RoutingTokens:    []token.Token{token.WETH, token.DAI},
		MaxTransitTokens: 1,
	}

	routes, err := NewPathFactory().FindRoutes(context.Background(), mc, variantBuilder{variants: []string{"stable", "volatile"}}, req)
	require.NoError(t, err)

	assert.Equal(t, 1, mc.batches)
	assert.Len(t, mc.calls, 6)
	require.Len(t, routes, 4)
	assert.Equal(t, "USDC > USDT", routes[0].Symbols())
	assert.Equal(t, "volatile", routes[0].Variant)

	domain.SortByAmountOut(routes)
	assert.Equal(t, "USDC > WETH > USDT", routes[0].Symbols())
	assert.Equal(t, "stable", routes[0].Variant)
	assert.Equal(t, "USDC > DAI > USDT", routes[1].Symbols())
	assert.Equal(t, "stable", routes[1].Variant)
	assert.Equal(t, int64(100), routes[3].AmountOut.Int64())
}

func TestFindRoutes_HardCapFailsBeforeNetwork(t *testing.T) {
	mc := &fakeMulticall{}
	req := Request{
		From:             amountOf(t, token.USDC, 1),
		To:               token.NewUnpricedToken(token.USDT),
		RoutingTokens:    []token.Token{token.WETH, token.DAI},
		MaxTransitTokens: 2,
		MaxPathLength:    3,
	}

	_, err := NewPathFactory().FindRoutes(context.Background(), mc, variantBuilder{}, req)

	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeRubicSdk))
	assert.Contains(t, err.Error(), "Maximum number of transit tokens: 1")
	assert.Zero(t, mc.batches)
}

func TestFindRoutes_MulticallError(t *testing.T) {
	mc := &fakeMulticall{err: errors.New("rpc down")}
	req := Request{
		From: amountOf(t, token.USDC, 1),
		To:   token.NewUnpricedToken(token.USDT),
	}

	_, err := NewPathFactory().FindRoutes(context.Background(), mc, variantBuilder{}, req)
	assert.EqualError(t, err, "rpc down")
}
