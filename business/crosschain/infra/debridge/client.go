// Package debridge implements the deBridge DLN provider. Quotes, calldata
// and order status all come from the DLN API; the fixed native fee is read
// from the source contract.
package debridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/circuitbreaker"
	"github.com/fd1az/swap-aggregator/internal/evmabi"
	"github.com/fd1az/swap-aggregator/internal/httpclient"
)

// ReferralCode is sent with every quote.
const ReferralCode = "4350"

// Error ids meaning the input cannot cover the order costs.
const (
	ErrGasFeeNotCovered = "INCLUDED_GAS_FEE_NOT_COVERED_BY_INPUT_AMOUNT"
	ErrLowGiveAmount    = "ERROR_LOW_GIVE_AMOUNT"
)

// QuoteRequest are the query parameters shared by quote and create-tx.
type QuoteRequest struct {
	SrcChainID        int64
	SrcTokenIn        string
	SrcAmount         string
	DstChainID        int64
	DstTokenOut       string
	Recipient         string
	SenderAddress     string
	OrderAuthoritySrc string
	OrderAuthorityDst string
}

func (r QuoteRequest) params() map[string]string {
	p := map[string]string{
		"srcChainId":                strconv.FormatInt(r.SrcChainID, 10),
		"srcChainTokenIn":           r.SrcTokenIn,
		"srcChainTokenInAmount":     r.SrcAmount,
		"dstChainId":                strconv.FormatInt(r.DstChainID, 10),
		"dstChainTokenOut":          r.DstTokenOut,
		"dstChainTokenOutRecipient": r.Recipient,
		"prependOperatingExpenses":  "false",
		"referralCode":              ReferralCode,
	}
	if r.SenderAddress != "" {
		p["senderAddress"] = r.SenderAddress
		p["dstChainTokenOutAmount"] = "auto"
		p["srcChainOrderAuthorityAddress"] = r.OrderAuthoritySrc
		p["dstChainOrderAuthorityAddress"] = r.OrderAuthorityDst
	}
	return p
}

// TokenEstimate is one side of an estimation.
type TokenEstimate struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	Amount   string `json:"amount"`
}

// Estimation is the priced order.
type Estimation struct {
	SrcChainTokenIn  TokenEstimate  `json:"srcChainTokenIn"`
	SrcChainTokenOut *TokenEstimate `json:"srcChainTokenOut"`
	DstChainTokenOut TokenEstimate  `json:"dstChainTokenOut"`
}

// Tx is the order transaction. Quotes only carry AllowanceTarget.
type Tx struct {
	To              string `json:"to"`
	Data            string `json:"data"`
	Value           string `json:"value"`
	AllowanceTarget string `json:"allowanceTarget"`
}

// QuoteResponse is the answer of quote and create-tx.
type QuoteResponse struct {
	Estimation Estimation `json:"estimation"`
	Tx         Tx         `json:"tx"`
	OrderID    string     `json:"orderId"`
	FixFee     string     `json:"fixFee"`
}

// TransitAmount is the amount leaving the source chain.
func (r QuoteResponse) TransitAmount() TokenEstimate {
	if r.Estimation.SrcChainTokenOut != nil {
		return *r.Estimation.SrcChainTokenOut
	}
	return r.Estimation.SrcChainTokenIn
}

// TransactionConfig converts the order transaction.
func (t Tx) TransactionConfig() (bcdomain.TransactionConfig, error) {
	data, err := hexutil.Decode(t.Data)
	if err != nil {
		return bcdomain.TransactionConfig{}, apperror.SDK("bad calldata from debridge", err)
	}
	cfg := bcdomain.TransactionConfig{To: t.To, Data: data}
	if t.Value != "" {
		v, err := evmabi.ParseAmount(t.Value)
		if err != nil {
			return bcdomain.TransactionConfig{}, apperror.SDK("bad value from debridge", err)
		}
		cfg.Value = v
	}
	return cfg, nil
}

// Client is the DLN API client.
type Client struct {
	http httpclient.Client
	cb   *circuitbreaker.CircuitBreaker[*QuoteResponse]
}

// NewClient wraps an HTTP client whose base URL is the DLN API root.
func NewClient(http httpclient.Client) *Client {
	cfg := circuitbreaker.DefaultConfig("debridge-api")
	cfg.IsSuccessful = func(err error) bool {
		var apiErr *httpclient.APIError
		return err == nil || (errors.As(err, &apiErr) && apiErr.StatusCode < 500)
	}
	return &Client{http: http, cb: circuitbreaker.New[*QuoteResponse](cfg)}
}

// Quote prices an order.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	return c.get(ctx, "/dln/order/quote", req)
}

// CreateTx prices an order and returns its transaction.
func (c *Client) CreateTx(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	return c.get(ctx, "/dln/order/create-tx", req)
}

func (c *Client) get(ctx context.Context, path string, req QuoteRequest) (*QuoteResponse, error) {
	return c.cb.Execute(func() (*QuoteResponse, error) {
		var out QuoteResponse
		_, err := c.http.NewRequestWithOptions(httpclient.WithResponseErrorHandler(httpclient.JSONErrorHandler)).
			SetQueryParams(req.params()).
			SetResult(&out).
			Get(ctx, path)
		if err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// StatusClient reads order state. It may point at a different host than
// the quote client.
type StatusClient struct {
	http httpclient.Client
}

// NewStatusClient wraps an HTTP client whose base URL is the DLN API root.
func NewStatusClient(http httpclient.Client) *StatusClient {
	return &StatusClient{http: http}
}

// OrderIDs lists the orders created by a source transaction.
func (c *StatusClient) OrderIDs(ctx context.Context, hash string) ([]string, error) {
	var out struct {
		OrderIDs []string `json:"orderIds"`
	}
	_, err := c.http.NewRequestWithOptions(httpclient.WithResponseErrorHandler(httpclient.JSONErrorHandler)).
		SetResult(&out).
		Get(ctx, fmt.Sprintf("/dln/tx/%s/order-ids", hash))
	if err != nil {
		return nil, err
	}
	return out.OrderIDs, nil
}

// OrderStatus returns the state name of an order.
func (c *StatusClient) OrderStatus(ctx context.Context, orderID string) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	_, err := c.http.NewRequestWithOptions(httpclient.WithResponseErrorHandler(httpclient.JSONErrorHandler)).
		SetResult(&out).
		Get(ctx, fmt.Sprintf("/dln/order/%s/status", orderID))
	if err != nil {
		return "", err
	}
	return out.Status, nil
}

// FulfillTxHash returns the destination transaction of a fulfilled order.
func (c *StatusClient) FulfillTxHash(ctx context.Context, orderID string) (string, error) {
	var out struct {
		FulfilledDstEventMetadata struct {
			TransactionHash struct {
				StringValue string `json:"stringValue"`
			} `json:"transactionHash"`
		} `json:"fulfilledDstEventMetadata"`
	}
	_, err := c.http.NewRequestWithOptions(httpclient.WithResponseErrorHandler(httpclient.JSONErrorHandler)).
		SetResult(&out).
		Get(ctx, "/dln/order/"+orderID)
	if err != nil {
		return "", err
	}
	return out.FulfilledDstEventMetadata.TransactionHash.StringValue, nil
}

// MapStatus converts an order state name.
func MapStatus(status string) domain.TxStatus {
	switch strings.ToLower(status) {
	case "fulfilled", "sentunlock", "claimedunlock":
		return domain.TxStatusSuccess
	case "none", "created":
		return domain.TxStatusPending
	case "ordercancelled", "sentordercancel", "claimedordercancel":
		return domain.TxStatusFallback
	}
	return domain.TxStatusUnknown
}

// ClassifyError maps API failures to the error taxonomy.
func ClassifyError(err error) error {
	var apiErr *httpclient.APIError
	if !errors.As(err, &apiErr) {
		return apperror.ParseEvmError(err)
	}
	switch apiErr.Code {
	case ErrGasFeeNotCovered, ErrLowGiveAmount:
		return apperror.TooLowAmount()
	}
	msg := apiErr.Message
	if msg == "" {
		msg = "deBridge request failed"
	}
	return apperror.SDK(msg, err)
}

// fixedFee parses the API's fixFee, used when the contract cannot be read.
func fixedFee(s string) *big.Int {
	v, err := evmabi.ParseAmount(s)
	if err != nil {
		return new(big.Int)
	}
	return v
}
