package token_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/token"
)

func TestToken_EqualIgnoresHexCase(t *testing.T) {
	lower := token.MustNewToken(token.Ethereum, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", "USDC", "", 6)
	if !lower.Equal(token.USDC) {
		t.Error("expected case-insensitive equality")
	}
	other := token.MustNewToken(token.Polygon, token.AddrUSDCEthereum, "USDC", "", 6)
	if other.Equal(token.USDC) {
		t.Error("tokens on different chains must differ")
	}
}

func TestIsAddressCorrect(t *testing.T) {
	tests := []struct {
		b    token.Blockchain
		addr string
		want bool
	}{
		{token.Ethereum, token.AddrUSDCEthereum, true},
		{token.Ethereum, "0x123", false},
		{token.Solana, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", true},
		{token.Solana, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", false},
		{token.Ripple, "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", true},
		{token.Ripple, "xHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", false},
		{token.Algorand, "anything", true},
		{token.Algorand, "", false},
	}
	for _, tt := range tests {
		if got := token.IsAddressCorrect(tt.b, tt.addr); got != tt.want {
			t.Errorf("IsAddressCorrect(%s, %q) = %v, want %v", tt.b, tt.addr, got, tt.want)
		}
	}
}

func TestBlockchain_ChainIDRoundTrip(t *testing.T) {
	for _, b := range []token.Blockchain{token.Ethereum, token.BSC, token.Base, token.Taiko} {
		id, ok := b.ChainID()
		if !ok {
			t.Fatalf("%s has no chain id", b)
		}
		back, ok := token.BlockchainByChainID(id)
		if !ok || back != b {
			t.Errorf("BlockchainByChainID(%d) = %s, want %s", id, back, b)
		}
	}
	if _, ok := token.Solana.ChainID(); ok {
		t.Error("solana must not report an EVM chain id")
	}
}

type countingFetcher struct {
	calls atomic.Int32
	md    token.Metadata
	err   error
}

func (f *countingFetcher) TokenMetadata(context.Context, token.Blockchain, string) (token.Metadata, error) {
	f.calls.Add(1)
	return f.md, f.err
}

const linkAddr = "0x514910771AF9Ca656af840dff83E8264EcF986CA"

func TestFactory_CreateToken_FetchesOncePerKey(t *testing.T) {
	fetcher := &countingFetcher{md: token.Metadata{Symbol: "LINK", Name: "Chainlink", Decimals: 18}}
	f := token.NewFactory(token.NewRegistry(), fetcher, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			addr := linkAddr
			if i%2 == 0 {
				addr = "0x514910771af9ca656af840dff83e8264ecf986ca"
			}
			tk, err := f.CreateToken(ctx, token.Ethereum, addr)
			if err != nil {
				t.Errorf("CreateToken() error = %v", err)
				return
			}
			if tk.Symbol() != "LINK" || tk.Decimals() != 18 {
				t.Errorf("unexpected token %v", tk)
			}
		}(i)
	}
	wg.Wait()

	if fetcher.calls.Load() != 1 {
		t.Errorf("metadata fetched %d times, want 1", fetcher.calls.Load())
	}
}

func TestFactory_RegistryAndNativeSkipFetch(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("must not be called")}
	f := token.NewFactory(token.DefaultRegistry(), fetcher, nil)
	ctx := context.Background()

	if _, err := f.CreateToken(ctx, token.Ethereum, token.AddrUSDCEthereum); err != nil {
		t.Fatalf("registry token: %v", err)
	}
	native, err := f.CreateToken(ctx, token.BSC, token.EVMNativeAddress)
	if err != nil {
		t.Fatalf("native token: %v", err)
	}
	if native.Symbol() != "BNB" {
		t.Errorf("native symbol = %s, want BNB", native.Symbol())
	}
	if fetcher.calls.Load() != 0 {
		t.Error("fetcher must not be called for known tokens")
	}
}

func TestFactory_CreatePriceTokenAmount(t *testing.T) {
	ctx := context.Background()
	price := decimal.NewFromInt(15)

	t.Run("missing decimals and fetch fails", func(t *testing.T) {
		f := token.NewFactory(token.NewRegistry(), &countingFetcher{err: errors.New("rpc down")}, nil)
		_, err := f.CreatePriceTokenAmount(ctx, token.TokenStruct{
			Blockchain:  token.Ethereum,
			Address:     linkAddr,
			TokenAmount: "1",
		})
		if apperror.GetCode(err) != apperror.CodeValidationError {
			t.Fatalf("code = %s, want VALIDATION_ERROR", apperror.GetCode(err))
		}
	})

	t.Run("supplied metadata skips fetch", func(t *testing.T) {
		fetcher := &countingFetcher{err: errors.New("must not be called")}
		f := token.NewFactory(token.NewRegistry(), fetcher, nil)
		decimals := uint8(18)
		a, err := f.CreatePriceTokenAmount(ctx, token.TokenStruct{
			Blockchain:  token.Ethereum,
			Address:     linkAddr,
			Symbol:      "LINK",
			Decimals:    &decimals,
			Price:       &price,
			TokenAmount: "2.5",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.StringWeiAmount() != "2500000000000000000" {
			t.Errorf("wei = %s", a.StringWeiAmount())
		}
		if p, ok := a.Price(); !ok || !p.Equal(price) {
			t.Errorf("price = %v, %v", p, ok)
		}
	})

	t.Run("negative amount", func(t *testing.T) {
		f := token.NewFactory(token.DefaultRegistry(), nil, nil)
		_, err := f.CreatePriceTokenAmount(ctx, token.TokenStruct{
			Blockchain:  token.Ethereum,
			Address:     token.AddrUSDCEthereum,
			TokenAmount: "-3",
		})
		if apperror.GetCode(err) != apperror.CodeWrongAmount {
			t.Fatalf("code = %s, want WRONG_AMOUNT", apperror.GetCode(err))
		}
	})
}
