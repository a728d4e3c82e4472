// Package binance reads spot ticker prices from the Binance REST API. It
// backs up the primary price source for native coins.
package binance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swap-aggregator/business/pricing/app"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/circuitbreaker"
	"github.com/fd1az/swap-aggregator/internal/httpclient"
)

const (
	// BaseAPIURL is the public REST endpoint.
	BaseAPIURL = "https://api.binance.com"

	tracerName     = "github.com/fd1az/swap-aggregator/business/pricing/infra/binance"
	tickerEndpoint = "/api/v3/ticker/price"
)

// symbols maps coin ids to USDT spot pairs.
var symbols = map[string]string{
	"ethereum":                "ETHUSDT",
	"binancecoin":             "BNBUSDT",
	"polygon-ecosystem-token": "POLUSDT",
	"avalanche-2":             "AVAXUSDT",
	"solana":                  "SOLUSDT",
	"ripple":                  "XRPUSDT",
	"algorand":                "ALGOUSDT",
	"zetachain":               "ZETAUSDT",
}

// Symbol returns the spot pair quoting the coin id in USDT.
func Symbol(coinID string) (string, bool) {
	s, ok := symbols[coinID]
	return s, ok
}

type tickerResponse struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// Client implements app.CoinPricer.
type Client struct {
	http   httpclient.Client
	cb     *circuitbreaker.CircuitBreaker[decimal.Decimal]
	tracer trace.Tracer
}

var _ app.CoinPricer = (*Client)(nil)

// NewClient wraps an HTTP client whose base URL is BaseAPIURL or a mirror.
func NewClient(http httpclient.Client) *Client {
	return &Client{
		http:   http,
		cb:     circuitbreaker.New[decimal.Decimal](circuitbreaker.DefaultConfig("binance-api")),
		tracer: otel.Tracer(tracerName),
	}
}

// CoinPrice returns the last USDT trade price of the coin. USDT is taken
// at par.
func (c *Client) CoinPrice(ctx context.Context, id string) (decimal.Decimal, error) {
	symbol, ok := Symbol(id)
	if !ok {
		return decimal.Zero, apperror.NotFound(apperror.CodePriceFetchFailed, "no binance pair for "+id)
	}

	ctx, span := c.tracer.Start(ctx, "binance.ticker", trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	price, err := c.cb.Execute(func() (decimal.Decimal, error) {
		var out tickerResponse
		_, err := c.http.NewRequestWithOptions(
			httpclient.WithLabels(httpclient.NewLabel("endpoint", "ticker")),
			httpclient.WithResponseErrorHandler(binanceErrorHandler),
		).
			SetQueryParam("symbol", symbol).
			SetResult(&out).
			Get(ctx, tickerEndpoint)
		if err != nil {
			return decimal.Zero, err
		}
		return out.Price, nil
	})
	if err != nil {
		span.RecordError(err)
		return decimal.Zero, err
	}
	span.SetAttributes(attribute.String("price", price.String()))
	return price, nil
}

// APIError is an error body returned by Binance.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance API error %d: %s", e.Code, e.Message)
}

func binanceErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
		return &apiErr
	}
	return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
}
