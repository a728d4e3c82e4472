package app

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/token"
)

type encodeFunc func(ctx context.Context, opts domain.EncodeOptions) (bcdomain.TransactionConfig, error)

// swapPlan is what the shared swap flow needs from a trade.
type swapPlan struct {
	tradeType domain.Type
	from      token.PriceTokenAmount

	// spender pulls the input token; empty when no approval is needed.
	spender string
	encode  encodeFunc
}

// executeSwap checks the network, the balance and the allowance, approves
// when short and finally sends the encoded trade. The approval is included
// before the trade is sent.
func executeSwap(ctx context.Context, tracer trace.Tracer, chains Chains, plan swapPlan, opts domain.SwapOptions) (*bcdomain.Receipt, error) {
	b := plan.from.Blockchain()
	ctx, span := tracer.Start(ctx, "trade.swap",
		trace.WithAttributes(
			attribute.String("trade_type", plan.tradeType.String()),
			attribute.String("blockchain", b.String()),
			attribute.String("amount", plan.from.StringWeiAmount()),
		),
	)
	defer span.End()

	fail := func(err error) (*bcdomain.Receipt, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "swap failed")
		return nil, err
	}

	private, err := chains.Private(b)
	if err != nil {
		return fail(err)
	}
	public, err := chains.Public(b)
	if err != nil {
		return fail(err)
	}
	if err := private.CheckBlockchainCorrect(ctx, b); err != nil {
		return fail(err)
	}

	owner := private.Address()
	required := plan.from.WeiAmount()

	balance, err := public.GetBalance(ctx, owner, plan.from.Address())
	if err != nil {
		return fail(err)
	}
	if balance.Cmp(required) < 0 {
		return fail(apperror.InsufficientFunds(
			plan.from.Symbol(),
			units(balance, plan.from.Decimals()),
			plan.from.TokenAmount().String(),
		))
	}

	if !plan.from.IsNative() && plan.spender != "" {
		allowance, err := public.GetAllowance(ctx, plan.from.Address(), owner, plan.spender)
		if err != nil {
			return fail(err)
		}
		if allowance.Cmp(required) < 0 {
			span.AddEvent("approve", trace.WithAttributes(attribute.String("spender", plan.spender)))
			_, err := private.ApproveTokens(ctx, plan.from.Address(), plan.spender, nil, bcdomain.TxOptions{
				OnTransactionHash: opts.OnApprove,
				GasPrice:          opts.GasPrice,
			})
			if err != nil {
				return fail(err)
			}
		}
	}

	tx, err := plan.encode(ctx, domain.EncodeOptions{
		FromAddress:     owner,
		ReceiverAddress: opts.ReceiverAddress,
		GasLimit:        opts.GasLimit,
		GasPrice:        opts.GasPrice,
	})
	if err != nil {
		return fail(err)
	}

	receipt, err := private.SendTransaction(ctx, tx, bcdomain.TxOptions{
		OnTransactionHash: opts.OnConfirm,
		GasLimit:          opts.GasLimit,
		GasPrice:          opts.GasPrice,
	})
	if err != nil {
		return fail(err)
	}

	span.SetAttributes(attribute.String("tx_hash", receipt.TxHash))
	span.SetStatus(codes.Ok, "swapped")
	return receipt, nil
}

func units(wei *big.Int, decimals uint8) string {
	return decimal.NewFromBigInt(wei, -int32(decimals)).String()
}
