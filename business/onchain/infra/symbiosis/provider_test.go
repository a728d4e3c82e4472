package symbiosis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/swap-aggregator/business/blockchain/bctest"
	symbiosisapi "github.com/fd1az/swap-aggregator/business/crosschain/infra/symbiosis"
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/config"
	"github.com/fd1az/swap-aggregator/internal/httpclient"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const (
	wallet   = "0x1111111111111111111111111111111111111111"
	receiver = "0x2222222222222222222222222222222222222222"
	approve  = "0x3333333333333333333333333333333333333333"
)

type fakeAPI struct {
	mu       sync.Mutex
	requests []symbiosisapi.SwapRequest
	status   int
	body     string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req symbiosisapi.SwapRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"tx": map[string]any{
			"to":      approve,
			"data":    "0xdeadbeef",
			"value":   "0",
			"chainId": 1,
		},
		"tokenAmountOut": map[string]any{"address": token.AddrUSDCEthereum, "chainId": 1, "decimals": 6, "amount": "2500000000"},
		"approveTo":      approve,
	})
}

func newTestProvider(t *testing.T, api http.Handler) *Provider {
	t.Helper()
	return newTestProviderWithConfig(t, api, Config{GasLimit: 300_000})
}

func newTestProviderWithConfig(t *testing.T, api http.Handler, cfg Config) *Provider {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client, err := httpclient.ForProvider("symbiosis", srv.URL, config.HTTPConfig{Timeout: 2 * time.Second})
	require.NoError(t, err)
	chains := bctest.Chains(t, nil)
	return NewProvider(symbiosisapi.NewClient(client), cfg, chains, bctest.Logger())
}

func oneEth(t *testing.T) token.PriceTokenAmount {
	t.Helper()
	from, err := token.NewPriceTokenAmount(token.NewUnpricedToken(token.Native(token.Ethereum)), decimal.NewFromInt(1))
	require.NoError(t, err)
	return from
}

func TestProvider_Calculate(t *testing.T) {
	api := &fakeAPI{}
	p := newTestProvider(t, api)

	res := p.Calculate(context.Background(), oneEth(t), token.NewUnpricedToken(token.USDC), domain.CalculationOptions{
		GasCalculation:    domain.GasCalculationDisabled,
		SlippageTolerance: 0.005,
		Deadline:          20,
	})

	require.NoError(t, res.Err)
	require.NotNil(t, res.Trade)
	assert.Equal(t, domain.TypeSymbiosisSwap, res.TradeType)
	assert.Equal(t, domain.KindAggregatorAPI, res.Trade.Kind())
	assert.Equal(t, "2500", res.Trade.To().TokenAmount().String())
	assert.Nil(t, res.Trade.GasData())

	require.Len(t, api.requests, 1)
	req := api.requests[0]
	assert.Equal(t, 50, req.Slippage)
	assert.Equal(t, "", req.TokenAmountIn.Address, "native input is sent without address")
	assert.Equal(t, "1000000000000000000", req.TokenAmountIn.Amount)
	assert.Equal(t, tradeapp.FakeWalletAddress, req.From)
	assert.Greater(t, req.Deadline, time.Now().Unix())
}

func TestProvider_EncodeRequestsWithRealAddresses(t *testing.T) {
	api := &fakeAPI{}
	p := newTestProvider(t, api)

	res := p.Calculate(context.Background(), oneEth(t), token.NewUnpricedToken(token.USDC), domain.CalculationOptions{
		GasCalculation: domain.GasCalculationDisabled,
	})
	require.NoError(t, res.Err)

	tx, err := res.Trade.Encode(context.Background(), domain.EncodeOptions{FromAddress: wallet, ReceiverAddress: receiver})
	require.NoError(t, err)
	assert.Equal(t, approve, tx.To)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, tx.Data)

	require.Len(t, api.requests, 2)
	assert.Equal(t, wallet, api.requests[1].From)
	assert.Equal(t, receiver, api.requests[1].To)
}

func TestProvider_PlatformFeeThroughGateway(t *testing.T) {
	const gateway = "0x4444444444444444444444444444444444444444"
	fee := tradeapp.FeePolicy{
		Proxy:    tradeapp.NewFeeProxy(map[token.Blockchain]string{token.Ethereum: gateway}),
		Percent:  10,
		UseProxy: true,
	}

	t.Run("fee charged", func(t *testing.T) {
		api := &fakeAPI{}
		p := newTestProviderWithConfig(t, api, Config{Fee: fee, GasLimit: 300_000})

		res := p.Calculate(context.Background(), oneEth(t), token.NewUnpricedToken(token.USDC), domain.CalculationOptions{
			GasCalculation: domain.GasCalculationDisabled,
		})
		require.NoError(t, res.Err)
		require.NotNil(t, res.Trade.FeeInfo().PlatformFee)
		assert.Equal(t, "10", res.Trade.FeeInfo().PlatformFee.Percent.String())
		assert.Equal(t, "1", res.Trade.From().TokenAmount().String())
		assert.Equal(t, gateway, res.Trade.(*tradeapp.OnChainTrade).Spender())

		tx, err := res.Trade.Encode(context.Background(), domain.EncodeOptions{FromAddress: wallet, ReceiverAddress: receiver})
		require.NoError(t, err)
		assert.Equal(t, gateway, tx.To)
		assert.Equal(t, "100000000000000000", tx.Value.String(), "native fee travels as value")

		require.Len(t, api.requests, 2)
		assert.Equal(t, "900000000000000000", api.requests[0].TokenAmountIn.Amount)
		enc := api.requests[1]
		assert.Equal(t, "900000000000000000", enc.TokenAmountIn.Amount)
		assert.Equal(t, gateway, enc.From, "the gateway sends the provider transaction")
		assert.Equal(t, wallet, enc.RefundAddress)

		method, err := tradeapp.FeeProxyABI.MethodById(tx.Data[:4])
		require.NoError(t, err)
		args, err := method.Inputs.Unpack(tx.Data[4:])
		require.NoError(t, err)
		params := *abi.ConvertType(args[0], new(tradeapp.ProxyParams)).(*tradeapp.ProxyParams)
		assert.Equal(t, "1000000000000000000", params.SrcInputAmount.String())
		assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, args[2])
	})

	t.Run("caller disables proxy", func(t *testing.T) {
		api := &fakeAPI{}
		p := newTestProviderWithConfig(t, api, Config{Fee: fee, GasLimit: 300_000})

		off := false
		res := p.Calculate(context.Background(), oneEth(t), token.NewUnpricedToken(token.USDC), domain.CalculationOptions{
			GasCalculation: domain.GasCalculationDisabled,
			UseProxy:       &off,
		})
		require.NoError(t, res.Err)
		assert.Nil(t, res.Trade.FeeInfo().PlatformFee)
		assert.Equal(t, approve, res.Trade.(*tradeapp.OnChainTrade).Spender())

		tx, err := res.Trade.Encode(context.Background(), domain.EncodeOptions{FromAddress: wallet, ReceiverAddress: receiver})
		require.NoError(t, err)
		assert.Equal(t, approve, tx.To)
		require.Len(t, api.requests, 2)
		assert.Equal(t, "1000000000000000000", api.requests[1].TokenAmountIn.Amount)
		assert.Equal(t, wallet, api.requests[1].From)
	})
}

func TestProvider_UnsupportedPairSkipsNetwork(t *testing.T) {
	api := &fakeAPI{}
	p := newTestProvider(t, api)

	from := oneEth(t)
	res := p.Calculate(context.Background(), from, token.NewUnpricedToken(token.USDCBase), domain.CalculationOptions{})

	assert.True(t, res.NotApplicable())
	assert.Empty(t, api.requests)
}

func TestProvider_QuoteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   apperror.Code
	}{
		{"min amount", 400, `{"code":"AMOUNT_TOO_LOW","message":"Amount is too low. Min amount: $10.5"}`, apperror.CodeMinAmount},
		{"less than fee", 400, `{"code":"AMOUNT_LESS_THAN_FEE","message":"Amount is less than fee"}`, apperror.CodeTooLowAmount},
		{"unknown token", 400, `{"code":"400","message":"Token not supported"}`, apperror.CodeNotSupportedTokens},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, &fakeAPI{status: tt.status, body: tt.body})
			res := p.Calculate(context.Background(), oneEth(t), token.NewUnpricedToken(token.USDC), domain.CalculationOptions{
				GasCalculation: domain.GasCalculationDisabled,
			})
			require.Error(t, res.Err)
			assert.True(t, apperror.HasCode(res.Err, tt.code), "got %v", res.Err)
		})
	}
}

func TestClassifyEncodeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperror.Code
	}{
		{"deflation", &httpclient.APIError{StatusCode: 400, Message: "Token is deflationary, increase slippage"}, apperror.CodeLowSlippageDeflationary},
		{"bad request", &httpclient.APIError{StatusCode: 400, Message: "bad"}, apperror.CodeSwapRequest},
		{"server error", &httpclient.APIError{StatusCode: 500, Message: "boom"}, apperror.CodeSwapRequest},
		{"unavailable", &httpclient.APIError{StatusCode: 503, Message: "down"}, apperror.CodeSwapRequest},
		{"other status", &httpclient.APIError{StatusCode: 404, Message: "missing"}, apperror.CodeRubicSdk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyEncodeError(tt.err)
			assert.True(t, apperror.HasCode(got, tt.code), "got %v", got)
		})
	}
}
