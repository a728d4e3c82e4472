package uniswapv2

import (
	"context"
	"errors"
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
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const wallet = "0x1111111111111111111111111111111111111111"

var (
	weth = common.HexToAddress(token.AddrWETHEthereum)
	dai  = common.HexToAddress(token.AddrDAIEthereum)
)

// usdcPerEth prices 1 ETH at 2000 USDC directly and at 2100 USDC through DAI.
func usdcPerEth(args []any) ([]any, error) {
	amountIn := args[0].(*big.Int)
	path := args[1].([]common.Address)

	amounts := make([]*big.Int, len(path))
	amounts[0] = amountIn
	perEth := int64(2000)
	if len(path) == 3 && path[1] == dai {
		perEth = 2100
	}
	if path[0] != weth {
		return nil, errors.New("no pool")
	}
	for i := 1; i < len(path); i++ {
		amounts[i] = new(big.Int).Div(new(big.Int).Mul(amountIn, big.NewInt(perEth*1e6)), big.NewInt(1e18))
	}
	return []any{amounts}, nil
}

func newTestProvider(t *testing.T, quote evmtest.MethodFunc) *amm.Provider {
	t.Helper()
	client := evmtest.NewClient(1)
	client.Deploy(routerEthereum, RouterABI, map[string]evmtest.MethodFunc{"getAmountsOut": quote})
	chains := bctest.Chains(t, map[token.Blockchain]*evmtest.Client{token.Ethereum: client})

	cfg := amm.Config{
		MaxTransitTokens: 1,
		RoutingTokens:    map[token.Blockchain][]token.Token{token.Ethereum: {token.DAI}},
	}
	return amm.NewProvider(NewStrategy(nil), cfg, chains, routingapp.NewPathFactory(), bctest.Logger())
}

func ethAmount(t *testing.T, n int64) token.PriceTokenAmount {
	t.Helper()
	a, err := token.NewPriceTokenAmount(token.NewUnpricedToken(token.Native(token.Ethereum)), decimal.NewFromInt(n))
	require.NoError(t, err)
	return a
}

func TestProvider_PicksBestRoute(t *testing.T) {
	p := newTestProvider(t, usdcPerEth)

	res := p.Calculate(context.Background(), ethAmount(t, 1), token.NewUnpricedToken(token.USDC), domain.CalculationOptions{
		SlippageTolerance: 0.01,
		Deadline:          20,
	})

	require.NoError(t, res.Err)
	trade, ok := res.Trade.(*tradeapp.OnChainTrade)
	require.True(t, ok)
	assert.Equal(t, "2100", trade.To().TokenAmount().String())
	assert.Equal(t, []string{"ETH", "DAI", "USDC"}, symbols(trade.Path()))
	assert.Equal(t, routerEthereum, trade.Spender())
	assert.Equal(t, "2079000000", trade.ToTokenAmountMin().String())

	require.NotNil(t, trade.GasData())
	assert.Equal(t, uint64(180_000), trade.GasData().GasLimit)
}

func TestProvider_EncodeNativeInput(t *testing.T) {
	p := newTestProvider(t, usdcPerEth)

	res := p.Calculate(context.Background(), ethAmount(t, 1), token.NewUnpricedToken(token.USDC), domain.CalculationOptions{
		GasCalculation:    domain.GasCalculationDisabled,
		SlippageTolerance: 0.01,
		Deadline:          20,
	})
	require.NoError(t, res.Err)
	assert.Nil(t, res.Trade.GasData())

	tx, err := res.Trade.Encode(context.Background(), domain.EncodeOptions{FromAddress: wallet})
	require.NoError(t, err)
	assert.Equal(t, routerEthereum, tx.To)
	assert.Equal(t, "1000000000000000000", tx.Value.String())

	method, err := RouterABI.MethodById(tx.Data[:4])
	require.NoError(t, err)
	assert.Equal(t, "swapExactETHForTokens", method.Name)

	args, err := method.Inputs.Unpack(tx.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, "2079000000", args[0].(*big.Int).String())
	assert.Equal(t, []common.Address{weth, dai, common.HexToAddress(token.AddrUSDCEthereum)}, args[1])
	assert.Equal(t, common.HexToAddress(wallet), args[2])
}

func TestProvider_Failures(t *testing.T) {
	revert := func([]any) ([]any, error) { return nil, errors.New("INSUFFICIENT_LIQUIDITY") }

	tests := []struct {
		name  string
		quote evmtest.MethodFunc
		from  token.PriceTokenAmount
		to    token.PriceToken
		code  apperror.Code
	}{
		{"no pool", revert, ethAmount(t, 1), token.NewUnpricedToken(token.USDC), apperror.CodeInsufficientLiquidity},
		{"wrap pair", usdcPerEth, ethAmount(t, 1), token.NewUnpricedToken(token.WETH), apperror.CodeNotSupportedTokens},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, tt.quote)
			res := p.Calculate(context.Background(), tt.from, tt.to, domain.CalculationOptions{GasCalculation: domain.GasCalculationDisabled})
			require.Error(t, res.Err)
			assert.True(t, apperror.HasCode(res.Err, tt.code), "got %v", res.Err)
			assert.Nil(t, res.Trade)
		})
	}
}

func TestProvider_PlatformFeeThroughProxy(t *testing.T) {
	const (
		gateway    = "0x2222222222222222222222222222222222222222"
		integrator = "0x3333333333333333333333333333333333333333"
	)
	proxy := tradeapp.NewFeeProxy(map[token.Blockchain]string{token.Ethereum: gateway})
	useProxy := func(v bool) *bool { return &v }

	tests := []struct {
		name     string
		fee      tradeapp.FeePolicy
		useProxy *bool
		wantTo   string
		wantFee  bool
		wantTxTo string
	}{
		{
			name:     "fee collected by gateway",
			fee:      tradeapp.FeePolicy{Proxy: proxy, Percent: 10, UseProxy: true},
			wantTo:   "1800",
			wantFee:  true,
			wantTxTo: gateway,
		},
		{
			name:     "caller disables proxy",
			fee:      tradeapp.FeePolicy{Proxy: proxy, Percent: 10, UseProxy: true},
			useProxy: useProxy(false),
			wantTo:   "2000",
			wantTxTo: routerEthereum,
		},
		{
			name:     "caller enables proxy over provider default",
			fee:      tradeapp.FeePolicy{Proxy: proxy, Percent: 10},
			useProxy: useProxy(true),
			wantTo:   "1800",
			wantFee:  true,
			wantTxTo: gateway,
		},
		{
			name:     "no gateway on chain",
			fee:      tradeapp.FeePolicy{Percent: 10, UseProxy: true},
			wantTo:   "2000",
			wantTxTo: routerEthereum,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := evmtest.NewClient(1)
			client.Deploy(routerEthereum, RouterABI, map[string]evmtest.MethodFunc{"getAmountsOut": usdcPerEth})
			chains := bctest.Chains(t, map[token.Blockchain]*evmtest.Client{token.Ethereum: client})
			p := amm.NewProvider(NewStrategy(nil), amm.Config{Fee: tt.fee}, chains, routingapp.NewPathFactory(), bctest.Logger())

			res := p.Calculate(context.Background(), ethAmount(t, 1), token.NewUnpricedToken(token.USDC), domain.CalculationOptions{
				GasCalculation:  domain.GasCalculationDisabled,
				Deadline:        20,
				ProviderAddress: integrator,
				UseProxy:        tt.useProxy,
			})
			require.NoError(t, res.Err)
			assert.Equal(t, tt.wantTo, res.Trade.To().TokenAmount().String())

			tx, err := res.Trade.Encode(context.Background(), domain.EncodeOptions{FromAddress: wallet})
			require.NoError(t, err)
			assert.Equal(t, tt.wantTxTo, tx.To)
			assert.Equal(t, "1000000000000000000", tx.Value.String(), "the sender always pays the full input")

			if !tt.wantFee {
				assert.Nil(t, res.Trade.FeeInfo().PlatformFee)
				assert.Equal(t, routerEthereum, res.Trade.(*tradeapp.OnChainTrade).Spender())
				return
			}
			require.NotNil(t, res.Trade.FeeInfo().PlatformFee)
			assert.Equal(t, "ETH", res.Trade.FeeInfo().PlatformFee.TokenSymbol)
			assert.Equal(t, gateway, res.Trade.(*tradeapp.OnChainTrade).Spender())

			method, err := tradeapp.FeeProxyABI.MethodById(tx.Data[:4])
			require.NoError(t, err)
			require.Equal(t, "routerCall", method.Name)
			args, err := method.Inputs.Unpack(tx.Data[4:])
			require.NoError(t, err)

			params := *abi.ConvertType(args[0], new(tradeapp.ProxyParams)).(*tradeapp.ProxyParams)
			assert.Equal(t, "1000000000000000000", params.SrcInputAmount.String())
			assert.Equal(t, common.HexToAddress(integrator), params.Integrator)
			assert.Equal(t, common.HexToAddress(routerEthereum), params.Router)
			assert.Equal(t, common.HexToAddress(routerEthereum), args[1])

			inner := args[2].([]byte)
			swap, err := RouterABI.MethodById(inner[:4])
			require.NoError(t, err)
			assert.Equal(t, "swapExactETHForTokens", swap.Name)
			swapArgs, err := swap.Inputs.Unpack(inner[4:])
			require.NoError(t, err)
			assert.Equal(t, "1800000000", swapArgs[0].(*big.Int).String())
		})
	}
}

func TestProvider_EncodeSupportingFeeOnTransfer(t *testing.T) {
	p := newTestProvider(t, usdcPerEth)

	res := p.Calculate(context.Background(), ethAmount(t, 1), token.NewUnpricedToken(token.USDC), domain.CalculationOptions{
		GasCalculation: domain.GasCalculationDisabled,
		Deadline:       20,
	})
	require.NoError(t, res.Err)

	tx, err := res.Trade.Encode(context.Background(), domain.EncodeOptions{FromAddress: wallet, SupportFee: true})
	require.NoError(t, err)
	method, err := RouterABI.MethodById(tx.Data[:4])
	require.NoError(t, err)
	assert.Equal(t, "swapExactETHForTokensSupportingFeeOnTransferTokens", method.Name)
}

func TestProvider_IsSupported(t *testing.T) {
	p := newTestProvider(t, usdcPerEth)

	assert.True(t, p.IsSupported(token.Ethereum, token.Ethereum))
	assert.False(t, p.IsSupported(token.Ethereum, token.Base))
	assert.False(t, p.IsSupported(token.Linea, token.Linea))
}

func symbols(path []token.Token) []string {
	out := make([]string, len(path))
	for i, t := range path {
		out[i] = t.Symbol()
	}
	return out
}
