package eddy

import (
	"context"
	"net/url"

	"github.com/fd1az/swap-aggregator/internal/httpclient"
)

// Outbound is one transaction ZetaChain sent for a cross-chain
// transaction. Older nodes name the hash outbound_tx_hash.
type Outbound struct {
	Hash       string `json:"hash"`
	LegacyHash string `json:"outbound_tx_hash"`
}

// TxHash returns whichever hash the node reported.
func (o Outbound) TxHash() string {
	if o.Hash != "" {
		return o.Hash
	}
	return o.LegacyHash
}

// CCTX is a ZetaChain cross-chain transaction.
type CCTX struct {
	Status struct {
		Status string `json:"status"`
	} `json:"cctx_status"`
	Outbound []Outbound `json:"outbound_params"`
}

// Client reads cross-chain transactions from a ZetaChain LCD endpoint.
type Client struct {
	http httpclient.Client
}

// NewClient wraps an HTTP client whose base URL is the LCD root.
func NewClient(http httpclient.Client) *Client {
	return &Client{http: http}
}

// CrossChainTxs lists the cross-chain transactions started by the inbound
// transaction hash.
func (c *Client) CrossChainTxs(ctx context.Context, hash string) ([]CCTX, error) {
	var out struct {
		CrossChainTxs []CCTX `json:"CrossChainTxs"`
	}
	_, err := c.http.NewRequestWithOptions(httpclient.WithResponseErrorHandler(httpclient.JSONErrorHandler)).
		SetResult(&out).
		Get(ctx, "/zeta-chain/crosschain/inboundHashToCctxData/"+url.PathEscape(hash))
	if err != nil {
		return nil, err
	}
	return out.CrossChainTxs, nil
}
