package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/swap-aggregator/internal/config"
	"github.com/fd1az/swap-aggregator/internal/httpclient"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	hc, err := httpclient.ForProvider("coingecko", srv.URL, config.HTTPConfig{Timeout: 2 * time.Second},
		httpclient.WithHeaders(map[string]string{APIKeyHeader: "demo"}))
	require.NoError(t, err)
	return NewClient(hc)
}

func TestClient_TokenPrices(t *testing.T) {
	var gotPath, gotAddrs, gotKey string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAddrs = r.URL.Query().Get("contract_addresses")
		gotKey = r.Header.Get(APIKeyHeader)
		_, _ = w.Write([]byte(`{"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48":{"usd":0.9998}}`))
	})

	prices, err := c.TokenPrices(context.Background(), "ethereum", []string{"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", "0x01"})

	require.NoError(t, err)
	assert.Equal(t, "/simple/token_price/ethereum", gotPath)
	assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48,0x01", gotAddrs)
	assert.Equal(t, "demo", gotKey)
	require.Len(t, prices, 1)
	assert.Equal(t, "0.9998", prices["0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"].String())
}

func TestClient_CoinPrice(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		_, _ = w.Write([]byte(`{"ethereum":{"usd":3412.5}}`))
	})

	p, err := c.CoinPrice(context.Background(), "ethereum")
	require.NoError(t, err)
	assert.Equal(t, "3412.5", p.String())

	p, err = c.CoinPrice(context.Background(), "unknown")
	require.NoError(t, err)
	assert.True(t, p.IsZero())
}

func TestClient_APIError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid vs_currency"}`))
	})

	_, err := c.CoinPrice(context.Background(), "ethereum")

	var apiErr *httpclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}
