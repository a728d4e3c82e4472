package evm

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/business/blockchain/infra/evm/evmtest"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/evmabi"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const usdc = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func newTestPublic(t *testing.T, client *evmtest.Client) *Public {
	t.Helper()
	p, err := NewPublic(DefaultPublicConfig(token.Ethereum, "http://unused"), client, testLogger())
	if err != nil {
		t.Fatalf("NewPublic() error = %v", err)
	}
	return p
}

func newTestPrivate(t *testing.T, client *evmtest.Client) *Private {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	cfg := PrivateConfig{
		DefaultGasLimit:     300_000,
		ReceiptTimeout:      200 * time.Millisecond,
		ReceiptPollInterval: 5 * time.Millisecond,
	}
	p, err := NewPrivate(newTestPublic(t, client), NewKeySignerFromKey(key), cfg)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPublic_TokenMetadataUsesOneMulticall(t *testing.T) {
	client := evmtest.NewClient(1)
	client.Deploy(usdc, evmabi.ERC20, evmtest.ERC20("USDC", "USD Coin", 6, nil))
	p := newTestPublic(t, client)

	md, err := p.TokenMetadata(context.Background(), usdc)
	if err != nil {
		t.Fatalf("TokenMetadata() error = %v", err)
	}
	if md.Symbol != "USDC" || md.Name != "USD Coin" || md.Decimals != 6 {
		t.Errorf("metadata = %+v", md)
	}
	if client.MulticallHit != 1 {
		t.Errorf("multicall hits = %d, want 1", client.MulticallHit)
	}
}

func TestPublic_TokenMetadataNotAToken(t *testing.T) {
	p := newTestPublic(t, evmtest.NewClient(1))

	_, err := p.TokenMetadata(context.Background(), "0x0000000000000000000000000000000000000bad")
	if apperror.GetCode(err) != apperror.CodeTokenMetadataFailed {
		t.Errorf("code = %v", apperror.GetCode(err))
	}
}

func TestPublic_MulticallPartialFailure(t *testing.T) {
	client := evmtest.NewClient(1)
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	client.Deploy(usdc, evmabi.ERC20, evmtest.ERC20("USDC", "USD Coin", 6, map[common.Address]*big.Int{
		owner: big.NewInt(42),
	}))
	p := newTestPublic(t, client)

	res, err := p.MulticallContractMethods(context.Background(), []domain.MethodCall{
		{Contract: usdc, ABI: evmabi.ERC20, Method: "balanceOf", Args: []any{owner}},
		{Contract: "0x0000000000000000000000000000000000000bad", ABI: evmabi.ERC20, Method: "decimals"},
		{Contract: usdc, ABI: evmabi.ERC20, Method: "balanceOf", Args: []any{"not an address"}},
	})
	if err != nil {
		t.Fatalf("Multicall error = %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("len = %d", len(res))
	}
	if !res[0].Success || res[0].Output[0].(*big.Int).Int64() != 42 {
		t.Errorf("first result = %+v", res[0])
	}
	if res[1].Success || res[2].Success {
		t.Errorf("failed calls reported success: %+v %+v", res[1], res[2])
	}
}

func TestPublic_EstimateGasAppliesMargin(t *testing.T) {
	client := evmtest.NewClient(1)
	client.EstimateGasValue = 100_000
	p := newTestPublic(t, client)

	gas, err := p.EstimateGas(context.Background(), usdc, domain.TransactionConfig{To: usdc})
	if err != nil {
		t.Fatal(err)
	}
	if gas != 115_000 {
		t.Errorf("gas = %d, want 115000", gas)
	}
}

func TestPublic_EstimateGasClassifiesErrors(t *testing.T) {
	client := evmtest.NewClient(1)
	client.EstimateErr = errors.New("insufficient funds for gas * price + value")
	p := newTestPublic(t, client)

	_, err := p.EstimateGas(context.Background(), usdc, domain.TransactionConfig{To: usdc})
	if got := apperror.GetCode(err); got != apperror.CodeInsufficientFunds {
		t.Errorf("code = %v, want %v (err %v)", got, apperror.CodeInsufficientFunds, err)
	}
}

func TestPublic_GetBalanceNativeAndIsContract(t *testing.T) {
	client := evmtest.NewClient(1)
	owner := common.HexToAddress("0x2222222222222222222222222222222222222222")
	client.Balances[owner] = big.NewInt(7)
	client.Deploy(usdc, evmabi.ERC20, evmtest.ERC20("USDC", "USD Coin", 6, nil))
	p := newTestPublic(t, client)

	bal, err := p.GetBalance(context.Background(), owner.Hex(), token.EVMNativeAddress)
	if err != nil || bal.Int64() != 7 {
		t.Errorf("native balance = %v, %v", bal, err)
	}
	isContract, _ := p.IsContract(context.Background(), usdc)
	isWallet, _ := p.IsContract(context.Background(), owner.Hex())
	if !isContract || isWallet {
		t.Errorf("IsContract usdc=%v wallet=%v", isContract, isWallet)
	}
}

func TestGasOracle_PriceKinds(t *testing.T) {
	tests := []struct {
		name     string
		baseFee  *big.Int
		want1559 bool
	}{
		{"london", big.NewInt(1e9), true},
		{"legacy", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := evmtest.NewClient(1)
			client.BaseFee = tt.baseFee
			p := newTestPublic(t, client)

			price, err := p.GetGasPrice(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if price.IsEIP1559() != tt.want1559 {
				t.Errorf("IsEIP1559 = %v", price.IsEIP1559())
			}
			gd, err := p.CalculateGasData(context.Background(), 21_000)
			if err != nil {
				t.Fatal(err)
			}
			want := new(big.Int).Mul(price.Wei(), big.NewInt(21_000))
			if gd.TotalWei.Cmp(want) != 0 {
				t.Errorf("total = %s, want %s", gd.TotalWei, want)
			}
		})
	}
}

func TestPrivate_SendEIP1559(t *testing.T) {
	client := evmtest.NewClient(1)
	p := newTestPrivate(t, client)

	hashes := make(chan string, 1)
	receipt, err := p.SendTransaction(context.Background(),
		domain.TransactionConfig{To: usdc, Value: big.NewInt(5)},
		domain.TxOptions{OnTransactionHash: func(h string) { hashes <- h }})
	if err != nil {
		t.Fatalf("SendTransaction() error = %v", err)
	}

	select {
	case h := <-hashes:
		if h != receipt.TxHash {
			t.Errorf("hash callback %s != receipt %s", h, receipt.TxHash)
		}
	case <-time.After(time.Second):
		t.Fatal("OnTransactionHash not called")
	}

	sent := client.Sent[0]
	if sent.Type() != types.DynamicFeeTxType {
		t.Errorf("tx type = %d, want dynamic fee", sent.Type())
	}
	if sent.Gas() != 115_000 {
		t.Errorf("gas = %d, want 115000", sent.Gas())
	}
}

func TestPrivate_SendLegacyWithExplicitGasPrice(t *testing.T) {
	client := evmtest.NewClient(1)
	p := newTestPrivate(t, client)

	_, err := p.SendTransaction(context.Background(),
		domain.TransactionConfig{To: usdc},
		domain.TxOptions{GasLimit: 50_000, GasPrice: big.NewInt(3e9)})
	if err != nil {
		t.Fatal(err)
	}
	sent := client.Sent[0]
	if sent.Type() != types.LegacyTxType || sent.Gas() != 50_000 || sent.GasPrice().Int64() != 3e9 {
		t.Errorf("unexpected tx type=%d gas=%d price=%s", sent.Type(), sent.Gas(), sent.GasPrice())
	}
}

func TestPrivate_IgnorableEstimateUsesDefaultLimit(t *testing.T) {
	client := evmtest.NewClient(1)
	client.EstimateErr = errors.New("execution reverted: STF")
	p := newTestPrivate(t, client)

	if _, err := p.SendTransaction(context.Background(), domain.TransactionConfig{To: usdc}, domain.TxOptions{}); err != nil {
		t.Fatal(err)
	}
	if got := client.Sent[0].Gas(); got != 300_000 {
		t.Errorf("gas = %d, want default 300000", got)
	}
}

func TestPrivate_IgnorableSendRetriesOnce(t *testing.T) {
	client := evmtest.NewClient(1)
	client.SendErrs = []error{errors.New("gas required exceeds allowance (21000)")}
	p := newTestPrivate(t, client)

	if _, err := p.SendTransaction(context.Background(), domain.TransactionConfig{To: usdc}, domain.TxOptions{}); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if client.SentCount() != 1 || client.Sent[0].Gas() != 300_000 {
		t.Errorf("sent=%d gas=%d", client.SentCount(), client.Sent[0].Gas())
	}
}

func TestPrivate_IgnorableSendRetryIsBounded(t *testing.T) {
	client := evmtest.NewClient(1)
	ignorable := errors.New("gas required exceeds allowance (21000)")
	client.SendErrs = []error{ignorable, ignorable}
	p := newTestPrivate(t, client)

	_, err := p.SendTransaction(context.Background(), domain.TransactionConfig{To: usdc}, domain.TxOptions{})
	if err == nil {
		t.Fatal("expected failure after one retry")
	}
	if client.SentCount() != 0 {
		t.Errorf("sent = %d", client.SentCount())
	}
}

func TestPrivate_ClassifiedFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *evmtest.Client)
		want  apperror.Code
	}{
		{
			name:  "insufficient funds on estimate",
			setup: func(c *evmtest.Client) { c.EstimateErr = errors.New("insufficient funds for gas * price + value") },
			want:  apperror.CodeInsufficientFunds,
		},
		{
			name:  "reverted receipt",
			setup: func(c *evmtest.Client) { c.ReceiptStatus = types.ReceiptStatusFailed },
			want:  apperror.CodeTransactionReverted,
		},
		{
			name:  "receipt never arrives",
			setup: func(c *evmtest.Client) { c.NoReceipt = true },
			want:  apperror.CodeFailedToCheckForTxReceipt,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := evmtest.NewClient(1)
			tt.setup(client)
			p := newTestPrivate(t, client)

			_, err := p.SendTransaction(context.Background(), domain.TransactionConfig{To: usdc}, domain.TxOptions{})
			if got := apperror.GetCode(err); got != tt.want {
				t.Errorf("code = %v, want %v (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestPrivate_CheckBlockchainCorrect(t *testing.T) {
	p := newTestPrivate(t, evmtest.NewClient(1))

	if err := p.CheckBlockchainCorrect(context.Background(), token.Ethereum); err != nil {
		t.Errorf("ETH: %v", err)
	}
	err := p.CheckBlockchainCorrect(context.Background(), token.BSC)
	if apperror.GetCode(err) != apperror.CodeWrongNetwork {
		t.Errorf("BSC code = %v", apperror.GetCode(err))
	}
}

func TestPrivate_ApproveInfinite(t *testing.T) {
	client := evmtest.NewClient(1)
	p := newTestPrivate(t, client)
	spender := "0x3333333333333333333333333333333333333333"

	if _, err := p.ApproveTokens(context.Background(), usdc, spender, nil, domain.TxOptions{}); err != nil {
		t.Fatal(err)
	}

	data := client.Sent[0].Data()
	args, err := evmabi.ERC20.Methods["approve"].Inputs.Unpack(data[4:])
	if err != nil {
		t.Fatal(err)
	}
	if args[0].(common.Address) != common.HexToAddress(spender) {
		t.Errorf("spender = %v", args[0])
	}
	if args[1].(*big.Int).Cmp(evmabi.MaxUint256) != 0 {
		t.Errorf("amount = %v, want 2^256-1", args[1])
	}
}

func TestIsIgnorableError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"execution reverted: TransferHelper: TRANSFER_FROM_FAILED", true},
		{"execution reverted: STF", true},
		{"STF", true},
		{"Execution Reverted: ERC20: transfer amount exceeds allowance", true},
		{"AnySwapERC20: request exceed allowance", true},
		{"gas required exceeds allowance (30000000)", true},
		{"execution reverted: SafeERC20: low-level call failed", true},
		{"execution reverted: Too little received", false},
		{"nonce too low", false},
		{"the first request failed", false},
	}
	for _, tt := range tests {
		if got := isIgnorableError(errors.New(tt.msg)); got != tt.want {
			t.Errorf("isIgnorableError(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}
