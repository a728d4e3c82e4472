// Package symbiosis talks to the Symbiosis cross-chain API and implements
// the Symbiosis bridge provider.
package symbiosis

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/circuitbreaker"
	"github.com/fd1az/swap-aggregator/internal/evmabi"
	"github.com/fd1az/swap-aggregator/internal/httpclient"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// SupportedBlockchains are the chains the API routes between.
var SupportedBlockchains = []token.Blockchain{
	token.Ethereum, token.BSC, token.Polygon, token.Arbitrum, token.Optimism,
	token.Avalanche, token.Base, token.Linea, token.ZetaChain, token.Taiko, token.Scroll,
}

// IsSupportedBlockchain reports membership in SupportedBlockchains.
func IsSupportedBlockchain(b token.Blockchain) bool {
	for _, s := range SupportedBlockchains {
		if s == b {
			return true
		}
	}
	return false
}

// Error codes the API returns for amount problems.
const (
	CodeAmountTooLow      = "AMOUNT_TOO_LOW"
	CodeAmountTooHigh     = "AMOUNT_TOO_HIGH"
	CodeAmountLessThanFee = "AMOUNT_LESS_THAN_FEE"
)

// TokenRef identifies a token; the native coin has an empty address.
type TokenRef struct {
	Address  string `json:"address"`
	ChainID  int64  `json:"chainId"`
	Decimals uint8  `json:"decimals"`
}

// TokenAmount is a TokenRef with a wei amount.
type TokenAmount struct {
	TokenRef
	Amount string `json:"amount"`
	Symbol string `json:"symbol,omitempty"`
}

// SwapRequest is the body of POST /v1/swap.
type SwapRequest struct {
	TokenAmountIn TokenAmount `json:"tokenAmountIn"`
	TokenOut      TokenRef    `json:"tokenOut"`
	From          string      `json:"from"`
	To            string      `json:"to"`
	RefundAddress string      `json:"refundAddress,omitempty"`
	// Slippage in basis points of 1/10000.
	Slippage int   `json:"slippage"`
	Deadline int64 `json:"deadline,omitempty"`
}

// Tx is a ready transaction returned by the API.
type Tx struct {
	To      string `json:"to"`
	Data    string `json:"data"`
	Value   string `json:"value"`
	ChainID int64  `json:"chainId"`
}

// SwapResponse is the answer of POST /v1/swap.
type SwapResponse struct {
	Tx             Tx          `json:"tx"`
	TokenAmountOut TokenAmount `json:"tokenAmountOut"`
	Fee            TokenAmount `json:"fee"`
	ApproveTo      string      `json:"approveTo"`
	PriceImpact    string      `json:"priceImpact"`
}

// TransactionConfig converts the API transaction.
func (t Tx) TransactionConfig() (bcdomain.TransactionConfig, error) {
	data, err := hexutil.Decode(t.Data)
	if err != nil {
		return bcdomain.TransactionConfig{}, apperror.SDK("bad calldata from symbiosis", err)
	}
	cfg := bcdomain.TransactionConfig{To: t.To, Data: data}
	if t.Value != "" {
		v, err := parseValue(t.Value)
		if err != nil {
			return bcdomain.TransactionConfig{}, err
		}
		cfg.Value = v
	}
	return cfg, nil
}

func parseValue(s string) (*big.Int, error) {
	v, err := evmabi.ParseQuantity(s)
	if err != nil {
		return nil, apperror.SDK("bad value from symbiosis", err)
	}
	return v, nil
}

// StatusResponse is the answer of GET /v1/tx/{chainId}/{hash}.
type StatusResponse struct {
	Status struct {
		Code int    `json:"code"`
		Text string `json:"text"`
	} `json:"status"`
	Tx *struct {
		Hash    string `json:"hash"`
		ChainID int64  `json:"chainId"`
	} `json:"tx"`
}

// Client is the Symbiosis API client.
type Client struct {
	http httpclient.Client
	cb   *circuitbreaker.CircuitBreaker[*SwapResponse]
}

// NewClient wraps an HTTP client whose base URL is the crosschain API root.
func NewClient(http httpclient.Client) *Client {
	cfg := circuitbreaker.DefaultConfig("symbiosis-api")
	cfg.IsSuccessful = func(err error) bool {
		var apiErr *httpclient.APIError
		return err == nil || (errors.As(err, &apiErr) && apiErr.StatusCode < 500)
	}
	return &Client{http: http, cb: circuitbreaker.New[*SwapResponse](cfg)}
}

// Swap requests a quote together with its transaction.
func (c *Client) Swap(ctx context.Context, req SwapRequest) (*SwapResponse, error) {
	return c.cb.Execute(func() (*SwapResponse, error) {
		var out SwapResponse
		_, err := c.http.NewRequestWithOptions(httpclient.WithResponseErrorHandler(httpclient.JSONErrorHandler)).
			SetBody(req).
			SetResult(&out).
			Post(ctx, "/v1/swap")
		if err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// Status looks up a transfer by its source transaction.
func (c *Client) Status(ctx context.Context, chainID int64, hash string) (*StatusResponse, error) {
	var out StatusResponse
	_, err := c.http.NewRequestWithOptions(httpclient.WithResponseErrorHandler(httpclient.JSONErrorHandler)).
		SetResult(&out).
		Get(ctx, fmt.Sprintf("/v1/tx/%d/%s", chainID, hash))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Ref builds the API form of a token.
func Ref(t token.Token) (TokenRef, error) {
	id, ok := t.Blockchain().ChainID()
	if !ok {
		return TokenRef{}, apperror.NotSupportedBlockchain(t.Blockchain().String())
	}
	addr := t.Address()
	if t.IsNative() {
		addr = ""
	}
	return TokenRef{Address: addr, ChainID: id, Decimals: t.Decimals()}, nil
}

// SlippageBps converts a 0..1 fraction to the API's 1/10000 units.
func SlippageBps(s float64) int {
	return int(decimal.NewFromFloat(s).Mul(decimal.NewFromInt(10000)).IntPart())
}

// ClassifyQuoteError maps API failures to the error taxonomy. Amount
// limits are parsed from the text after the last '$' and reported in the
// transit stable coin.
func ClassifyQuoteError(err error) error {
	var apiErr *httpclient.APIError
	if !errors.As(err, &apiErr) {
		return apperror.ParseEvmError(err)
	}
	msg := apiErr.Message
	lower := strings.ToLower(msg)

	switch {
	case apiErr.Code == CodeAmountLessThanFee || strings.Contains(lower, "less than fee"):
		return apperror.TooLowAmount()
	case strings.Contains(lower, "not supported") || strings.Contains(lower, "token not found"):
		return apperror.NotSupportedTokens()
	case !strings.Contains(msg, "$"):
		return apperror.SDK(msg, err)
	}

	amount := strings.TrimSpace(msg[strings.LastIndex(msg, "$")+1:])
	amount = strings.TrimRight(amount, ". ")
	if _, perr := decimal.NewFromString(amount); perr != nil {
		return apperror.SDK(msg, err)
	}
	switch {
	case apiErr.Code == CodeAmountTooLow || strings.Contains(lower, "too low") || strings.Contains(lower, "min"):
		return apperror.MinAmount(amount, "USDC")
	case apiErr.Code == CodeAmountTooHigh || strings.Contains(lower, "too high") || strings.Contains(lower, "max"):
		return apperror.MaxAmount(amount, "USDC")
	}
	return apperror.SDK(msg, err)
}

// IsAmountError reports the failures a retry cannot fix.
func IsAmountError(err error) bool {
	return apperror.HasCode(err, apperror.CodeMinAmount, apperror.CodeMaxAmount, apperror.CodeTooLowAmount)
}
