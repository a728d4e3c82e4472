// Package coingecko reads USD prices from the CoinGecko simple price API.
package coingecko

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/swap-aggregator/business/pricing/app"
	"github.com/fd1az/swap-aggregator/internal/circuitbreaker"
	"github.com/fd1az/swap-aggregator/internal/httpclient"
)

// APIKeyHeader carries the demo API key when one is configured.
const APIKeyHeader = "x-cg-demo-api-key"

type quote struct {
	USD decimal.Decimal `json:"usd"`
}

// Client implements app.PriceSource.
type Client struct {
	http httpclient.Client
	cb   *circuitbreaker.CircuitBreaker[map[string]quote]
}

var _ app.PriceSource = (*Client)(nil)

// NewClient wraps an HTTP client whose base URL is the API root.
func NewClient(http httpclient.Client) *Client {
	cfg := circuitbreaker.DefaultConfig("coingecko-api")
	cfg.IsSuccessful = func(err error) bool {
		var apiErr *httpclient.APIError
		if err == nil {
			return true
		}
		// 429 trips the breaker along with server errors.
		return errors.As(err, &apiErr) && apiErr.StatusCode < 500 && apiErr.StatusCode != 429
	}
	return &Client{http: http, cb: circuitbreaker.New[map[string]quote](cfg)}
}

// TokenPrices implements app.PriceSource.
func (c *Client) TokenPrices(ctx context.Context, platform string, addresses []string) (map[string]decimal.Decimal, error) {
	out, err := c.get(ctx, "/simple/token_price/"+platform, map[string]string{
		"contract_addresses": strings.Join(addresses, ","),
		"vs_currencies":      "usd",
	})
	if err != nil {
		return nil, err
	}
	prices := make(map[string]decimal.Decimal, len(out))
	for addr, q := range out {
		prices[strings.ToLower(addr)] = q.USD
	}
	return prices, nil
}

// CoinPrice implements app.PriceSource. An unknown id gives zero.
func (c *Client) CoinPrice(ctx context.Context, id string) (decimal.Decimal, error) {
	out, err := c.get(ctx, "/simple/price", map[string]string{
		"ids":           id,
		"vs_currencies": "usd",
	})
	if err != nil {
		return decimal.Zero, err
	}
	return out[id].USD, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string) (map[string]quote, error) {
	return c.cb.Execute(func() (map[string]quote, error) {
		var out map[string]quote
		_, err := c.http.NewRequestWithOptions(httpclient.WithResponseErrorHandler(httpclient.JSONErrorHandler)).
			SetQueryParams(params).
			SetResult(&out).
			Get(ctx, path)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}
