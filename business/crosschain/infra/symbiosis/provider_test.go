package symbiosis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/swap-aggregator/business/blockchain/bctest"
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/config"
	"github.com/fd1az/swap-aggregator/internal/httpclient"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const (
	wallet = "0x1111111111111111111111111111111111111111"
	portal = "0x3333333333333333333333333333333333333333"
)

// bridgeAPI fails the first failFirst swap requests with failBody and
// answers the rest with a fixed quote.
type bridgeAPI struct {
	mu        sync.Mutex
	swaps     []SwapRequest
	failFirst int
	failCode  int
	failBody  string
	status    int
}

func (b *bridgeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/v1/tx/") {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": map[string]any{"code": b.status, "text": "x"},
			"tx":     map[string]any{"hash": "0xdst", "chainId": 8453},
		})
		return
	}

	var req SwapRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	b.swaps = append(b.swaps, req)
	n := len(b.swaps)
	b.mu.Unlock()

	if n <= b.failFirst {
		w.WriteHeader(b.failCode)
		_, _ = w.Write([]byte(b.failBody))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"tx":             map[string]any{"to": portal, "data": "0x01", "value": "0x0", "chainId": 1},
		"tokenAmountOut": map[string]any{"address": token.AddrUSDCBase, "chainId": 8453, "decimals": 6, "amount": "995000000"},
		"fee":            map[string]any{"address": token.AddrUSDCEthereum, "chainId": 1, "decimals": 6, "amount": "1500000", "symbol": "USDC"},
		"approveTo":      portal,
	})
}

func (b *bridgeAPI) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.swaps)
}

func newBridge(t *testing.T, api http.Handler) *Provider {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client, err := httpclient.ForProvider("symbiosis", srv.URL, config.HTTPConfig{Timeout: 2 * time.Second})
	require.NoError(t, err)
	return NewProvider(NewClient(client), Config{GasLimit: 400_000}, bctest.Chains(t, nil), bctest.Logger())
}

func thousandUSDC(t *testing.T) token.PriceTokenAmount {
	t.Helper()
	a, err := token.NewPriceTokenAmount(token.NewUnpricedToken(token.USDC), decimal.NewFromInt(1000))
	require.NoError(t, err)
	return a
}

var noGas = domain.CalculationOptions{GasCalculation: domain.GasCalculationDisabled, SlippageTolerance: 0.01, Deadline: 20}

func TestBridge_Calculate(t *testing.T) {
	api := &bridgeAPI{}
	p := newBridge(t, api)

	res := p.Calculate(context.Background(), thousandUSDC(t), token.NewUnpricedToken(token.USDCBase), noGas)

	require.NoError(t, res.Err)
	assert.Equal(t, domain.TypeSymbiosis, res.TradeType)
	assert.Equal(t, domain.KindCrossChain, res.Trade.Kind())
	assert.Equal(t, "995", res.Trade.To().TokenAmount().String())
	require.NotNil(t, res.Trade.FeeInfo().CryptoFee)
	assert.Equal(t, "1.5", res.Trade.FeeInfo().CryptoFee.Amount.String())
	assert.Equal(t, portal, res.Trade.(*tradeapp.CrossChainTrade).Spender())

	require.Equal(t, 1, api.count())
	assert.Equal(t, tradeapp.FakeWalletAddress, api.swaps[0].To)
	assert.Equal(t, int64(8453), api.swaps[0].TokenOut.ChainID)
}

func TestBridge_RetriesOnce(t *testing.T) {
	api := &bridgeAPI{failFirst: 1, failCode: 500, failBody: `{"code":"500","message":"zapping failed"}`}
	p := newBridge(t, api)

	res := p.Calculate(context.Background(), thousandUSDC(t), token.NewUnpricedToken(token.USDCBase), noGas)

	require.NoError(t, res.Err)
	assert.Equal(t, 2, api.count())
}

func TestBridge_GivesUpAfterSecondFailure(t *testing.T) {
	api := &bridgeAPI{failFirst: 5, failCode: 500, failBody: `{"code":"500","message":"zapping failed"}`}
	p := newBridge(t, api)

	res := p.Calculate(context.Background(), thousandUSDC(t), token.NewUnpricedToken(token.USDCBase), noGas)

	require.Error(t, res.Err)
	assert.Nil(t, res.Trade)
	assert.Equal(t, 2, api.count())
}

func TestBridge_AmountErrorsAreNotRetried(t *testing.T) {
	api := &bridgeAPI{failFirst: 5, failCode: 400, failBody: `{"code":"AMOUNT_TOO_LOW","message":"Amount too low. Min amount: $25"}`}
	p := newBridge(t, api)

	res := p.Calculate(context.Background(), thousandUSDC(t), token.NewUnpricedToken(token.USDCBase), noGas)

	require.Error(t, res.Err)
	assert.True(t, apperror.HasCode(res.Err, apperror.CodeMinAmount))
	assert.Contains(t, res.Err.Error(), "25")
	assert.Equal(t, 1, api.count())
}

func TestBridge_SameChainNotApplicable(t *testing.T) {
	api := &bridgeAPI{}
	p := newBridge(t, api)

	res := p.Calculate(context.Background(), thousandUSDC(t), token.NewUnpricedToken(token.DAI), noGas)

	assert.True(t, res.NotApplicable())
	assert.Zero(t, api.count())
}

func TestBridge_DstTxData(t *testing.T) {
	api := &bridgeAPI{status: 0}
	p := newBridge(t, api)

	res := p.Calculate(context.Background(), thousandUSDC(t), token.NewUnpricedToken(token.USDCBase), noGas)
	require.NoError(t, res.Err)

	trade, ok := res.Trade.(domain.CrossChainTrade)
	require.True(t, ok)
	dst, err := trade.GetDstTxData(context.Background(), "0xsrc")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusSuccess, dst.Status)
	assert.Equal(t, "0xdst", dst.Hash)
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		code int
		want domain.TxStatus
	}{
		{0, domain.TxStatusSuccess},
		{1, domain.TxStatusPending},
		{-1, domain.TxStatusPending},
		{2, domain.TxStatusFail},
		{3, domain.TxStatusRevert},
		{42, domain.TxStatusUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapStatus(tt.code), "code %d", tt.code)
	}
}
