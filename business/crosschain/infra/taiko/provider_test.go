package taiko

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/swap-aggregator/business/blockchain/bctest"
	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/business/blockchain/infra/evm/evmtest"
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const wallet = "0x1111111111111111111111111111111111111111"

var (
	l1Deployment = DefaultDeployments[token.Ethereum]
	l2Deployment = DefaultDeployments[token.Taiko]

	usdcTaiko = token.MustNewToken(token.Taiko, "0x07d83526730c7438048D55A4fc0b850e2aaB6f0b", "USDC", "USD Coin", 6)
	otherL2   = token.MustNewToken(token.Taiko, "0x9999999999999999999999999999999999999999", "FAKE", "Fake", 6)
)

type fixture struct {
	provider *Provider
	l1, l2   *evmtest.Client
	status   uint8
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{l1: evmtest.NewClient(1), l2: evmtest.NewClient(167000), status: statusDone}
	f.l2.Deploy(l2Deployment.Vault, VaultABI, map[string]evmtest.MethodFunc{
		"canonicalToBridged": func(args []any) ([]any, error) {
			if args[1].(common.Address) == common.HexToAddress(token.AddrUSDCEthereum) {
				return []any{common.HexToAddress(usdcTaiko.Address())}, nil
			}
			return []any{common.Address{}}, nil
		},
		"bridgedToCanonical": func(args []any) ([]any, error) {
			canonical := common.Address{}
			if args[0].(common.Address) == common.HexToAddress(usdcTaiko.Address()) {
				canonical = common.HexToAddress(token.AddrUSDCEthereum)
			}
			return []any{uint64(1), canonical, uint8(6), "USDC", "USD Coin"}, nil
		},
	})
	f.l2.Deploy(l2Deployment.Bridge, BridgeABI, map[string]evmtest.MethodFunc{
		"messageStatus": func([]any) ([]any, error) { return []any{f.status}, nil },
	})
	chains := bctest.Chains(t, map[token.Blockchain]*evmtest.Client{token.Ethereum: f.l1, token.Taiko: f.l2})
	f.provider = NewProvider(Config{Fee: 1000, GasLimit: 140_000, TxGasLimit: 250_000}, chains, bctest.Logger())
	return f
}

func amount(t *testing.T, tok token.Token, v string) token.PriceTokenAmount {
	t.Helper()
	a, err := token.NewPriceTokenAmount(token.NewUnpricedToken(tok), decimal.RequireFromString(v))
	require.NoError(t, err)
	return a
}

var noGas = domain.CalculationOptions{GasCalculation: domain.GasCalculationDisabled, SlippageTolerance: 0.01, Deadline: 20}

func TestProvider_Counterparts(t *testing.T) {
	tests := []struct {
		name    string
		from    token.PriceTokenAmount
		to      token.Token
		allowed bool
	}{
		{"native to native", amount(t, token.Native(token.Ethereum), "1"), token.Native(token.Taiko), true},
		{"native to token", amount(t, token.Native(token.Ethereum), "1"), usdcTaiko, false},
		{"canonical to bridged", amount(t, token.USDC, "100"), usdcTaiko, true},
		{"canonical to unrelated", amount(t, token.USDC, "100"), otherL2, false},
		{"bridged to canonical", amount(t, usdcTaiko, "100"), token.USDC, true},
		{"unknown back to L1", amount(t, otherL2, "100"), token.USDC, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			res := f.provider.Calculate(context.Background(), tt.from, token.NewUnpricedToken(tt.to), noGas)

			if !tt.allowed {
				require.Error(t, res.Err)
				assert.Contains(t, res.Err.Error(), "Swap is not allowed.")
				assert.True(t, apperror.HasCode(res.Err, apperror.CodeRubicSdk))
				return
			}
			require.NoError(t, res.Err)
			assert.True(t, res.Trade.To().TokenAmount().Equal(tt.from.TokenAmount()))
		})
	}
}

func TestProvider_Unsupported(t *testing.T) {
	f := newFixture(t)

	res := f.provider.Calculate(context.Background(), amount(t, token.USDC, "1"), token.NewUnpricedToken(token.USDCBase), noGas)

	assert.True(t, res.NotApplicable())
}

func TestProvider_EncodeNative(t *testing.T) {
	f := newFixture(t)
	res := f.provider.Calculate(context.Background(), amount(t, token.Native(token.Ethereum), "0.5"), token.NewUnpricedToken(token.Native(token.Taiko)), noGas)
	require.NoError(t, res.Err)
	assert.Empty(t, res.Trade.(*tradeapp.CrossChainTrade).Spender())

	tx, err := res.Trade.Encode(context.Background(), domain.EncodeOptions{FromAddress: wallet})
	require.NoError(t, err)
	assert.Equal(t, l1Deployment.Bridge, tx.To)
	assert.Equal(t, "500000000000001000", tx.Value.String())

	method, err := BridgeABI.MethodById(tx.Data[:4])
	require.NoError(t, err)
	assert.Equal(t, "sendMessage", method.Name)
	args, err := method.Inputs.Unpack(tx.Data[4:])
	require.NoError(t, err)
	msg := *abi.ConvertType(args[0], new(Message)).(*Message)
	assert.Equal(t, uint64(1), msg.SrcChainId)
	assert.Equal(t, uint64(167000), msg.DestChainId)
	assert.Equal(t, common.HexToAddress(wallet), msg.To)
	assert.Equal(t, "500000000000000000", msg.Value.String())
	assert.Equal(t, uint64(1000), msg.Fee)
	assert.Equal(t, uint32(140_000), msg.GasLimit)
}

func TestProvider_EncodeToken(t *testing.T) {
	f := newFixture(t)
	res := f.provider.Calculate(context.Background(), amount(t, token.USDC, "100"), token.NewUnpricedToken(usdcTaiko), noGas)
	require.NoError(t, res.Err)
	assert.Equal(t, l1Deployment.Vault, res.Trade.(*tradeapp.CrossChainTrade).Spender())

	tx, err := res.Trade.Encode(context.Background(), domain.EncodeOptions{FromAddress: wallet})
	require.NoError(t, err)
	assert.Equal(t, l1Deployment.Vault, tx.To)
	assert.Equal(t, "1000", tx.Value.String())

	method, err := VaultABI.MethodById(tx.Data[:4])
	require.NoError(t, err)
	assert.Equal(t, "sendToken", method.Name)
	args, err := method.Inputs.Unpack(tx.Data[4:])
	require.NoError(t, err)
	op := *abi.ConvertType(args[0], new(BridgeTransferOp)).(*BridgeTransferOp)
	assert.Equal(t, common.HexToAddress(token.AddrUSDCEthereum), op.Token)
	assert.Equal(t, "100000000", op.Amount.String())
	assert.Equal(t, uint64(167000), op.DestChainId)
}

func TestProvider_DstTxData(t *testing.T) {
	f := newFixture(t)
	res := f.provider.Calculate(context.Background(), amount(t, token.Native(token.Ethereum), "1"), token.NewUnpricedToken(token.Native(token.Taiko)), noGas)
	require.NoError(t, res.Err)
	trade := res.Trade.(domain.CrossChainTrade)

	pending, err := trade.GetDstTxData(context.Background(), common.HexToHash("0x02").Hex())
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, pending.Status)

	msgHash := common.HexToHash("0xbeef")
	hash := common.HexToHash("0x01")
	f.l1.Receipts[hash] = &types.Receipt{
		TxHash:      hash,
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(5),
		Logs: []*types.Log{{
			Address: common.HexToAddress(l1Deployment.Bridge),
			Topics:  []common.Hash{BridgeABI.Events["MessageSent"].ID, msgHash},
		}},
	}

	got, err := trade.GetDstTxData(context.Background(), hash.Hex())
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusSuccess, got.Status)
}

func TestMessageHash(t *testing.T) {
	_, ok := MessageHash(&bcdomain.Receipt{Logs: []bcdomain.Log{{Topics: []string{BridgeABI.Events["MessageSent"].ID.Hex()}}}})
	assert.False(t, ok, "the hash is the indexed topic")
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, domain.TxStatusPending, MapStatus(statusRetriable))
	assert.Equal(t, domain.TxStatusFail, MapStatus(statusFailed))
	assert.Equal(t, domain.TxStatusFallback, MapStatus(statusRecalled))
	assert.Equal(t, domain.TxStatusUnknown, MapStatus(9))
}
