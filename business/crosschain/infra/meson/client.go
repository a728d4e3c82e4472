// Package meson implements the Meson stable coin bridge. Limits and fees
// come from the relayer API; the API also builds the swap transaction.
package meson

import (
	"context"
	"net/url"
	"time"

	"github.com/fd1az/swap-aggregator/internal/cache"
	"github.com/fd1az/swap-aggregator/internal/httpclient"
)

// LimitsTTL bounds how long chain limits are reused.
const LimitsTTL = 5 * time.Minute

// LimitsToken is one asset of a chain. Native coins have no Addr.
type LimitsToken struct {
	ID       string `json:"id"`
	Addr     string `json:"addr"`
	Min      string `json:"min"`
	Max      string `json:"max"`
	Decimals uint8  `json:"decimals"`
}

// LimitsChain is one chain served by the relayer.
type LimitsChain struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	ChainID string        `json:"chainId"`
	Address string        `json:"address"`
	Tokens  []LimitsToken `json:"tokens"`
}

// Fee is the answer of POST /price, in token units.
type Fee struct {
	ServiceFee string `json:"serviceFee"`
	LpFee      string `json:"lpFee"`
	TotalFee   string `json:"totalFee"`
}

// SwapRequest describes a transfer between two asset ids.
type SwapRequest struct {
	From         string `json:"from"`
	To           string `json:"to"`
	Amount       string `json:"amount"`
	FromAddress  string `json:"fromAddress"`
	Recipient    string `json:"recipient,omitempty"`
	FromContract bool   `json:"fromContract"`
}

// Tx is the transaction the relayer builds.
type Tx struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

// SwapStatus is the answer of GET /swap. Each reached stage carries its
// transaction hash.
type SwapStatus struct {
	ID        string `json:"_id"`
	Expired   bool   `json:"expired"`
	Posted    string `json:"POSTED"`
	Bonded    string `json:"BONDED"`
	Locked    string `json:"LOCKED"`
	Executed  string `json:"EXECUTED"`
	Released  string `json:"RELEASED"`
	Cancelled string `json:"CANCELLED"`
}

type envelope[T any] struct {
	Result T `json:"result"`
}

// Client is the relayer API client.
type Client struct {
	http   httpclient.Client
	limits *cache.Cache[string, []LimitsChain]
}

// NewClient wraps an HTTP client whose base URL is the API root.
func NewClient(http httpclient.Client) *Client {
	return &Client{http: http, limits: cache.New[string, []LimitsChain](time.Minute)}
}

// Close stops the limits cache janitor.
func (c *Client) Close() {
	c.limits.Close()
}

// Limits lists the chains and their per-token limits.
func (c *Client) Limits(ctx context.Context) ([]LimitsChain, error) {
	return c.limits.GetOrLoad(ctx, "limits", LimitsTTL, func(ctx context.Context) ([]LimitsChain, error) {
		var out envelope[[]LimitsChain]
		_, err := c.request().SetResult(&out).Get(ctx, "/limits")
		if err != nil {
			return nil, err
		}
		return out.Result, nil
	})
}

// Price returns the fee of moving amount from one asset to another.
func (c *Client) Price(ctx context.Context, req SwapRequest) (Fee, error) {
	var out envelope[Fee]
	_, err := c.request().SetBody(req).SetResult(&out).Post(ctx, "/price")
	if err != nil {
		return Fee{}, err
	}
	return out.Result, nil
}

// Encode prepares the swap and returns its encoded form.
func (c *Client) Encode(ctx context.Context, req SwapRequest) (string, error) {
	var out envelope[struct {
		Encoded string `json:"encoded"`
	}]
	_, err := c.request().SetBody(req).SetResult(&out).Post(ctx, "/swap")
	if err != nil {
		return "", err
	}
	return out.Result.Encoded, nil
}

// Transaction builds the transaction of an encoded swap.
func (c *Client) Transaction(ctx context.Context, encoded string, req SwapRequest) (Tx, error) {
	var out envelope[struct {
		Tx Tx `json:"tx"`
	}]
	_, err := c.request().SetBody(req).SetResult(&out).Post(ctx, "/swap/"+url.PathEscape(encoded))
	if err != nil {
		return Tx{}, err
	}
	return out.Result.Tx, nil
}

// Status looks a swap up by its source transaction.
func (c *Client) Status(ctx context.Context, hash string) (SwapStatus, error) {
	var out envelope[SwapStatus]
	_, err := c.request().SetQueryParam("hash", hash).SetResult(&out).Get(ctx, "/swap")
	if err != nil {
		return SwapStatus{}, err
	}
	return out.Result, nil
}

func (c *Client) request() httpclient.Request {
	return c.http.NewRequestWithOptions(httpclient.WithResponseErrorHandler(httpclient.JSONErrorHandler))
}
