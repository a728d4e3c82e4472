package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// receiverPolicy says whether a provider can deliver to contracts.
type receiverPolicy struct {
	rejectContracts bool
}

// encodeParams validates the addresses of an encode request. The sender
// must be an EVM address; the receiver must match the destination chain
// family and defaults to the sender.
func encodeParams(ctx context.Context, chains Chains, src, dst token.Blockchain, opts domain.EncodeOptions, policy receiverPolicy) (EncodeParams, error) {
	if !src.IsEVM() || !common.IsHexAddress(opts.FromAddress) {
		return EncodeParams{}, apperror.New(apperror.CodeWrongFromAddress, apperror.WithContext(opts.FromAddress))
	}

	receiver := opts.ReceiverAddress
	if receiver == "" {
		receiver = opts.FromAddress
	}
	if !token.IsAddressCorrect(dst, receiver) {
		return EncodeParams{}, apperror.New(apperror.CodeWrongReceiverAddress, apperror.WithContext(receiver))
	}

	if policy.rejectContracts && dst.IsEVM() && !token.CompareAddresses(receiver, opts.FromAddress) {
		if public, err := chains.Public(dst); err == nil {
			isContract, err := public.IsContract(ctx, receiver)
			if err != nil {
				return EncodeParams{}, err
			}
			if isContract {
				return EncodeParams{}, apperror.New(apperror.CodeUnsupportedReceiver, apperror.WithContext(receiver))
			}
		}
	}

	return EncodeParams{
		FromAddress:     opts.FromAddress,
		ReceiverAddress: receiver,
		SupportFee:      opts.SupportFee,
	}, nil
}

func applyGasOverrides(tx bcdomain.TransactionConfig, opts domain.EncodeOptions) bcdomain.TransactionConfig {
	if opts.GasLimit > 0 {
		tx.Gas = opts.GasLimit
	}
	if opts.GasPrice != nil {
		tx.GasPrice = opts.GasPrice
	}
	return tx
}
