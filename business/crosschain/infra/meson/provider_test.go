package meson

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/swap-aggregator/business/blockchain/bctest"
	"github.com/fd1az/swap-aggregator/business/blockchain/infra/evm/evmtest"
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/config"
	"github.com/fd1az/swap-aggregator/internal/httpclient"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const (
	wallet    = "0x1111111111111111111111111111111111111111"
	mesonAddr = "0x25aB3Efd52e6470681CE037cD546Dc60726948D3"
)

// relayer fakes the Meson API with Ethereum and Base USDC.
type relayer struct {
	mu       sync.Mutex
	limits   int
	prices   []SwapRequest
	swaps    []SwapRequest
	txPaths  []string
	status   map[string]any
	notFound bool
}

func (rl *relayer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	write := func(v any) { _ = json.NewEncoder(w).Encode(map[string]any{"result": v}) }
	switch {
	case r.URL.Path == "/limits":
		rl.limits++
		write([]map[string]any{
			{"id": "eth", "chainId": "0x1", "address": mesonAddr, "tokens": []map[string]any{
				{"id": "usdc", "addr": token.AddrUSDCEthereum, "min": "5", "max": "20000", "decimals": 6},
				{"id": "eth", "min": "0.01", "max": "10", "decimals": 18},
			}},
			{"id": "base", "chainId": "0x2105", "address": mesonAddr, "tokens": []map[string]any{
				{"id": "usdc", "addr": token.AddrUSDCBase, "min": "5", "max": "20000", "decimals": 6},
			}},
		})
	case r.URL.Path == "/price":
		var req SwapRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		rl.prices = append(rl.prices, req)
		write(map[string]any{"serviceFee": "0.5", "lpFee": "0.1", "totalFee": "0.6"})
	case r.URL.Path == "/swap" && r.Method == http.MethodPost:
		var req SwapRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		rl.swaps = append(rl.swaps, req)
		write(map[string]any{"encoded": "0xencoded"})
	case r.URL.Path == "/swap" && r.Method == http.MethodGet:
		if rl.notFound {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":-32602,"message":"swap not found"}}`))
			return
		}
		write(rl.status)
	case len(r.URL.Path) > len("/swap/"):
		rl.txPaths = append(rl.txPaths, r.URL.Path)
		write(map[string]any{"tx": map[string]any{"to": mesonAddr, "data": "0x1234", "value": "0x0"}})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newProvider(t *testing.T, rl *relayer) *Provider {
	t.Helper()
	return newProviderWithConfig(t, rl, Config{GasLimit: 200_000})
}

func newProviderWithConfig(t *testing.T, rl *relayer, cfg Config) *Provider {
	t.Helper()
	srv := httptest.NewServer(rl)
	t.Cleanup(srv.Close)

	client, err := httpclient.ForProvider("meson", srv.URL, config.HTTPConfig{Timeout: 2 * time.Second})
	require.NoError(t, err)
	c := NewClient(client)
	t.Cleanup(c.Close)
	chains := bctest.Chains(t, map[token.Blockchain]*evmtest.Client{
		token.Ethereum: evmtest.NewClient(1),
		token.Base:     evmtest.NewClient(8453),
	})
	return NewProvider(c, cfg, chains, bctest.Logger())
}

func usdc(t *testing.T, amount int64) token.PriceTokenAmount {
	t.Helper()
	a, err := token.NewPriceTokenAmount(token.NewUnpricedToken(token.USDC), decimal.NewFromInt(amount))
	require.NoError(t, err)
	return a
}

var noGas = domain.CalculationOptions{GasCalculation: domain.GasCalculationDisabled, SlippageTolerance: 0.01, Deadline: 20}

func TestProvider_Calculate(t *testing.T) {
	rl := &relayer{}
	p := newProvider(t, rl)

	res := p.Calculate(context.Background(), usdc(t, 100), token.NewUnpricedToken(token.USDCBase), noGas)

	require.NoError(t, res.Err)
	assert.Equal(t, domain.TypeMeson, res.TradeType)
	assert.Equal(t, "99.4", res.Trade.To().TokenAmount().String())
	assert.Equal(t, mesonAddr, res.Trade.(*tradeapp.CrossChainTrade).Spender())
	require.NotNil(t, res.Trade.FeeInfo().FixedFee)
	assert.Equal(t, "0.6", res.Trade.FeeInfo().FixedFee.Amount.String())

	require.Len(t, rl.prices, 1)
	assert.Equal(t, "eth:usdc", rl.prices[0].From)
	assert.Equal(t, "base:usdc", rl.prices[0].To)
	assert.Equal(t, "100", rl.prices[0].Amount)
}

func TestProvider_LimitsAreCached(t *testing.T) {
	rl := &relayer{}
	p := newProvider(t, rl)

	for range 3 {
		res := p.Calculate(context.Background(), usdc(t, 100), token.NewUnpricedToken(token.USDCBase), noGas)
		require.NoError(t, res.Err)
	}
	assert.Equal(t, 1, rl.limits)
}

func TestProvider_Limits(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		code   apperror.Code
		limit  string
	}{
		{"below min", 2, apperror.CodeMinAmount, "5"},
		{"above max", 50_000, apperror.CodeMaxAmount, "20000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := &relayer{}
			p := newProvider(t, rl)

			res := p.Calculate(context.Background(), usdc(t, tt.amount), token.NewUnpricedToken(token.USDCBase), noGas)

			require.Error(t, res.Err)
			assert.True(t, apperror.HasCode(res.Err, tt.code))
			var appErr *apperror.AppError
			require.ErrorAs(t, res.Err, &appErr)
			assert.Equal(t, tt.limit, appErr.Detail(apperror.DetailAmount))
			assert.Empty(t, rl.prices)
		})
	}
}

func TestProvider_UnknownAssets(t *testing.T) {
	rl := &relayer{}
	p := newProvider(t, rl)

	res := p.Calculate(context.Background(), usdc(t, 100), token.NewUnpricedToken(token.WETHBase), noGas)
	assert.True(t, apperror.HasCode(res.Err, apperror.CodeNotSupportedTokens))

	res = p.Calculate(context.Background(), usdc(t, 100), token.NewUnpricedToken(token.USDCArbitrum), noGas)
	assert.True(t, apperror.HasCode(res.Err, apperror.CodeNotSupportedBlockchain))
}

func TestProvider_Encode(t *testing.T) {
	rl := &relayer{}
	p := newProvider(t, rl)

	res := p.Calculate(context.Background(), usdc(t, 100), token.NewUnpricedToken(token.USDCBase), noGas)
	require.NoError(t, res.Err)

	tx, err := res.Trade.Encode(context.Background(), domain.EncodeOptions{FromAddress: wallet})
	require.NoError(t, err)
	assert.Equal(t, mesonAddr, tx.To)
	assert.Equal(t, []byte{0x12, 0x34}, tx.Data)
	assert.Equal(t, "0", tx.Value.String())

	require.Len(t, rl.swaps, 1)
	assert.Equal(t, wallet, rl.swaps[0].FromAddress)
	assert.Equal(t, wallet, rl.swaps[0].Recipient)
	assert.Equal(t, []string{"/swap/0xencoded"}, rl.txPaths)
}

func TestProvider_PlatformFee(t *testing.T) {
	const gateway = "0x9999999999999999999999999999999999999999"
	on, off := true, false
	fee := tradeapp.FeePolicy{
		Proxy:    tradeapp.NewFeeProxy(map[token.Blockchain]string{token.Ethereum: gateway}),
		Percent:  1,
		UseProxy: true,
	}

	tests := []struct {
		name     string
		useProxy *bool
		quoted   string
		to       string
		spender  string
		txTo     string
	}{
		{"provider default", nil, "99", "98.4", gateway, gateway},
		{"caller enables", &on, "99", "98.4", gateway, gateway},
		{"caller disables", &off, "100", "99.4", mesonAddr, mesonAddr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := &relayer{}
			p := newProviderWithConfig(t, rl, Config{Fee: fee, GasLimit: 200_000})

			opts := noGas
			opts.UseProxy = tt.useProxy
			res := p.Calculate(context.Background(), usdc(t, 100), token.NewUnpricedToken(token.USDCBase), opts)
			require.NoError(t, res.Err)
			assert.Equal(t, tt.to, res.Trade.To().TokenAmount().String())
			assert.Equal(t, tt.spender, res.Trade.(*tradeapp.CrossChainTrade).Spender())
			assert.Equal(t, tt.quoted, rl.prices[0].Amount)
			assert.Equal(t, tt.txTo == gateway, res.Trade.FeeInfo().PlatformFee != nil)

			tx, err := res.Trade.Encode(context.Background(), domain.EncodeOptions{FromAddress: wallet})
			require.NoError(t, err)
			assert.Equal(t, tt.txTo, tx.To)
			assert.Equal(t, "0", tx.Value.String(), "token input adds no value")

			require.Len(t, rl.swaps, 1)
			assert.Equal(t, tt.quoted, rl.swaps[0].Amount)
			assert.Equal(t, wallet, rl.swaps[0].Recipient)
			if tt.txTo == gateway {
				assert.Equal(t, gateway, rl.swaps[0].FromAddress)
			} else {
				assert.Equal(t, wallet, rl.swaps[0].FromAddress)
			}
		})
	}
}

func TestProvider_DstTxData(t *testing.T) {
	rl := &relayer{status: map[string]any{"_id": "0x01", "LOCKED": "0xaa", "RELEASED": "0xbb"}}
	p := newProvider(t, rl)
	res := p.Calculate(context.Background(), usdc(t, 100), token.NewUnpricedToken(token.USDCBase), noGas)
	require.NoError(t, res.Err)
	trade := res.Trade.(domain.CrossChainTrade)

	got, err := trade.GetDstTxData(context.Background(), "0xsrc")
	require.NoError(t, err)
	assert.Equal(t, domain.DstTxData{Status: domain.TxStatusSuccess, Hash: "0xbb"}, got)

	rl.mu.Lock()
	rl.notFound = true
	rl.mu.Unlock()
	got, err = trade.GetDstTxData(context.Background(), "0xsrc")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, got.Status)
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, domain.TxStatusPending, MapStatus(SwapStatus{Posted: "0x1"}).Status)
	assert.Equal(t, domain.TxStatusFallback, MapStatus(SwapStatus{Cancelled: "0x2"}).Status)
	assert.Equal(t, domain.TxStatusFail, MapStatus(SwapStatus{Expired: true}).Status)
}
