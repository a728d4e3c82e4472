// Package celer implements the Celer cBridge provider: a source swap into
// the transit stable coin, the bridge hop and a destination swap, all
// executed through the cross-chain router contract.
package celer

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/httpclient"
)

// slippageScale converts a 0..1 fraction to the API's slippage units.
var slippageScale = decimal.NewFromInt(1_000_000 * 100)

// APIErr is the error envelope cBridge returns with status 200.
type APIErr struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// EstimateRequest are the query parameters of GET /v2/estimateAmt.
type EstimateRequest struct {
	SrcChainID int64
	DstChainID int64
	Symbol     string
	Slippage   float64
	// Amount in transit token wei.
	Amount string
}

// EstimateResponse is the answer of GET /v2/estimateAmt.
type EstimateResponse struct {
	Err                 *APIErr `json:"err"`
	EqValueTokenAmt     string  `json:"eq_value_token_amt"`
	BridgeRate          float64 `json:"bridge_rate"`
	PercFee             string  `json:"perc_fee"`
	BaseFee             string  `json:"base_fee"`
	SlippageTolerance   int64   `json:"slippage_tolerance"`
	MaxSlippage         int64   `json:"max_slippage"`
	EstimatedReceiveAmt string  `json:"estimated_receive_amt"`
}

// TransferStatusResponse is the answer of POST /v2/getTransferStatus.
type TransferStatusResponse struct {
	Err            *APIErr `json:"err"`
	Status         int     `json:"status"`
	SrcBlockTxLink string  `json:"src_block_tx_link"`
	DstBlockTxLink string  `json:"dst_block_tx_link"`
}

// Client is the cBridge gateway client.
type Client struct {
	http httpclient.Client
}

// NewClient wraps an HTTP client whose base URL is the gateway root.
func NewClient(http httpclient.Client) *Client {
	return &Client{http: http}
}

// Estimate asks how much of the transit token arrives on the other side.
func (c *Client) Estimate(ctx context.Context, req EstimateRequest) (*EstimateResponse, error) {
	var out EstimateResponse
	_, err := c.http.NewRequestWithOptions(httpclient.WithResponseErrorHandler(httpclient.JSONErrorHandler)).
		SetQueryParams(map[string]string{
			"src_chain_id":       strconv.FormatInt(req.SrcChainID, 10),
			"dst_chain_id":       strconv.FormatInt(req.DstChainID, 10),
			"token_symbol":       req.Symbol,
			"slippage_tolerance": ToAPISlippage(req.Slippage),
			"amt":                req.Amount,
		}).
		SetResult(&out).
		Get(ctx, "/v2/estimateAmt")
	if err != nil {
		return nil, err
	}
	if out.Err != nil && out.Err.Msg != "" {
		return nil, apperror.SDK("celer: "+out.Err.Msg, nil)
	}
	return &out, nil
}

// TransferStatus looks a transfer up by its id.
func (c *Client) TransferStatus(ctx context.Context, transferID string) (*TransferStatusResponse, error) {
	var out TransferStatusResponse
	_, err := c.http.NewRequestWithOptions(httpclient.WithResponseErrorHandler(httpclient.JSONErrorHandler)).
		SetBody(map[string]string{"transfer_id": transferID}).
		SetResult(&out).
		Post(ctx, "/v2/getTransferStatus")
	if err != nil {
		return nil, err
	}
	if out.Err != nil && out.Err.Msg != "" {
		return nil, apperror.SDK("celer: "+out.Err.Msg, nil)
	}
	return &out, nil
}

// ToAPISlippage renders a 0..1 fraction in the API's units.
func ToAPISlippage(s float64) string {
	return decimal.NewFromFloat(s).Mul(slippageScale).StringFixed(0)
}

// FromAPISlippage converts max_slippage back to a 0..1 fraction.
func FromAPISlippage(v int64) float64 {
	f, _ := decimal.NewFromInt(v).Div(slippageScale).Float64()
	return f
}

// APISymbol is the symbol the gateway knows the transit token by. Every
// USDC flavour is plain "USDC" there.
func APISymbol(symbol string) string {
	if strings.Contains(strings.ToLower(symbol), "usdc") {
		return "USDC"
	}
	return symbol
}

// Transfer states reported by getTransferStatus.
const (
	transferUnknown = iota
	transferSubmitting
	transferFailed
	transferWaitingForSGN
	transferWaitingForRelease
	transferCompleted
	transferToBeRefunded
	transferRequestingRefund
	transferRefundToBeConfirmed
	transferConfirmingRefund
	transferRefunded
)

// MapStatus converts a transfer state.
func MapStatus(status int) domain.TxStatus {
	switch status {
	case transferCompleted:
		return domain.TxStatusSuccess
	case transferSubmitting, transferWaitingForSGN, transferWaitingForRelease:
		return domain.TxStatusPending
	case transferFailed:
		return domain.TxStatusFail
	case transferToBeRefunded, transferRequestingRefund, transferRefundToBeConfirmed, transferConfirmingRefund, transferRefunded:
		return domain.TxStatusFallback
	}
	return domain.TxStatusUnknown
}

// txHashFromLink takes the hash out of an explorer link.
func txHashFromLink(link string) string {
	if i := strings.LastIndex(link, "/tx/"); i >= 0 {
		return strings.TrimRight(link[i+len("/tx/"):], "/")
	}
	return ""
}
