package aerodrome

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/swap-aggregator/business/blockchain/bctest"
	"github.com/fd1az/swap-aggregator/business/blockchain/infra/evm/evmtest"
	"github.com/fd1az/swap-aggregator/business/onchain/infra/amm"
	routingapp "github.com/fd1az/swap-aggregator/business/routing/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const wallet = "0x1111111111111111111111111111111111111111"

func TestCallBuilder_PoolVariants(t *testing.T) {
	cb := NewStrategy(nil).CallBuilder(DefaultDeployments()[token.Base])

	single := cb.BuildCalls([]token.Token{token.USDCBase, token.WETHBase}, big.NewInt(1))
	require.Len(t, single, 2)
	assert.Equal(t, "stable", single[0].Variant)
	assert.Equal(t, "volatile", single[1].Variant)

	double := cb.BuildCalls([]token.Token{token.USDCBase, token.USDbCBase, token.WETHBase}, big.NewInt(1))
	var variants []string
	for _, c := range double {
		variants = append(variants, c.Variant)
	}
	assert.Equal(t, []string{"stable,stable", "stable,volatile", "volatile,stable", "volatile,volatile"}, variants)
}

// volatileBetter quotes 1 USDC at 0.0004 WETH through volatile pools and at
// half that through stable ones.
func volatileBetter(args []any) ([]any, error) {
	amountIn := args[0].(*big.Int)
	routes := *abi.ConvertType(args[1], new([]Route)).(*[]Route)

	amounts := []*big.Int{amountIn}
	cur := amountIn
	for _, r := range routes {
		rate := int64(400_000_000)
		if r.Stable {
			rate /= 2
		}
		cur = new(big.Int).Mul(cur, big.NewInt(rate))
		amounts = append(amounts, cur)
	}
	return []any{amounts}, nil
}

func newTestProvider(t *testing.T, cfg amm.Config) *amm.Provider {
	t.Helper()
	client := evmtest.NewClient(8453)
	client.Deploy(routerBase, RouterABI, map[string]evmtest.MethodFunc{"getAmountsOut": volatileBetter})
	chains := bctest.Chains(t, map[token.Blockchain]*evmtest.Client{token.Base: client})
	return amm.NewProvider(NewStrategy(nil), cfg, chains, routingapp.NewPathFactory(), bctest.Logger())
}

func TestProvider_EncodesChosenPools(t *testing.T) {
	p := newTestProvider(t, amm.Config{})

	from, err := token.NewPriceTokenAmount(token.NewUnpricedToken(token.USDCBase), decimal.NewFromInt(1000))
	require.NoError(t, err)

	res := p.Calculate(context.Background(), from, token.NewUnpricedToken(token.WETHBase), domain.CalculationOptions{
		GasCalculation: domain.GasCalculationDisabled,
		Deadline:       20,
	})
	require.NoError(t, res.Err)
	assert.Equal(t, "0.4", res.Trade.To().TokenAmount().String())

	tx, err := res.Trade.Encode(context.Background(), domain.EncodeOptions{FromAddress: wallet})
	require.NoError(t, err)
	method, err := RouterABI.MethodById(tx.Data[:4])
	require.NoError(t, err)
	assert.Equal(t, "swapExactTokensForTokens", method.Name)

	args, err := method.Inputs.Unpack(tx.Data[4:])
	require.NoError(t, err)
	routes := *abi.ConvertType(args[2], new([]Route)).(*[]Route)
	require.Len(t, routes, 1)
	assert.False(t, routes[0].Stable)
	assert.Equal(t, common.HexToAddress(factoryBase), routes[0].Factory)
}

func TestProvider_TooManyTransitTokens(t *testing.T) {
	p := newTestProvider(t, amm.Config{MaxTransitTokens: 2})

	from, err := token.NewPriceTokenAmount(token.NewUnpricedToken(token.USDCBase), decimal.NewFromInt(1))
	require.NoError(t, err)

	res := p.Calculate(context.Background(), from, token.NewUnpricedToken(token.WETHBase), domain.CalculationOptions{
		GasCalculation: domain.GasCalculationDisabled,
	})
	require.Error(t, res.Err)
	assert.True(t, apperror.HasCode(res.Err, apperror.CodeRubicSdk))
	assert.Contains(t, res.Err.Error(), "Maximum number of transit tokens: 1")
}
