package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	bcapp "github.com/fd1az/swap-aggregator/business/blockchain/app"
	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
)

// FakeWalletAddress stands in for the sender or receiver when a provider API
// is quoted before the user's addresses are known.
const FakeWalletAddress = "0xe388Ed184958062a2ea29B7fD049ca21244AE02e"

// QuoteAddresses returns the sender and receiver a provider API is quoted
// with. The receiver defaults to the sender.
func QuoteAddresses(opts domain.CalculationOptions) (from, receiver string) {
	from = opts.FromAddress
	if from == "" {
		from = FakeWalletAddress
	}
	receiver = opts.ReceiverAddress
	if receiver == "" {
		receiver = from
	}
	return from, receiver
}

// QuoteGas prices the gas of a quoted transaction. The limit is estimated
// when both the sender and the transaction are known and fallback is used
// otherwise. Any failure yields nil: missing gas data never fails a quote.
func QuoteGas(ctx context.Context, public bcapp.PublicAdapter, from string, tx *bcdomain.TransactionConfig, fallback uint64) *bcdomain.GasData {
	limit := fallback
	if tx != nil && common.IsHexAddress(from) {
		if est, err := public.EstimateGas(ctx, from, *tx); err == nil {
			limit = est
		}
	}
	if limit == 0 {
		return nil
	}
	gas, err := public.CalculateGasData(ctx, limit)
	if err != nil {
		return nil
	}
	return gas
}
