package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/token"
)

type fakeSource struct {
	mu     sync.Mutex
	tokens map[string]decimal.Decimal
	coins  map[string]decimal.Decimal
	err    error
	calls  int
	asked  []string
}

func (f *fakeSource) TokenPrices(_ context.Context, platform string, addresses []string) (map[string]decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.asked = append(f.asked, platform)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]decimal.Decimal)
	for _, a := range addresses {
		if p, ok := f.tokens[a]; ok {
			out[a] = p
		}
	}
	return out, nil
}

func (f *fakeSource) CoinPrice(_ context.Context, id string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.asked = append(f.asked, id)
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.coins[id], nil
}

func newService(t *testing.T, src *fakeSource) *PriceService {
	t.Helper()
	s := NewPriceService(src, time.Minute, logger.New(io.Discard, logger.LevelError, "test", nil))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPriceService_TokenPrice(t *testing.T) {
	usdcAddr := "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	tests := []struct {
		name   string
		src    *fakeSource
		token  token.Token
		want   string
		wantOK bool
		asked  string
	}{
		{
			name:   "erc20 by contract",
			src:    &fakeSource{tokens: map[string]decimal.Decimal{usdcAddr: decimal.RequireFromString("0.9998")}},
			token:  token.USDC,
			want:   "0.9998",
			wantOK: true,
			asked:  "ethereum",
		},
		{
			name:   "native by coin id",
			src:    &fakeSource{coins: map[string]decimal.Decimal{"ethereum": decimal.NewFromInt(3400)}},
			token:  token.Native(token.Base),
			want:   "3400",
			wantOK: true,
			asked:  "ethereum",
		},
		{
			name:  "missing price is unknown",
			src:   &fakeSource{},
			token: token.USDC,
			want:  "0",
			asked: "ethereum",
		},
		{
			name:  "zero price is unknown",
			src:   &fakeSource{coins: map[string]decimal.Decimal{"binancecoin": decimal.Zero}},
			token: token.Native(token.BSC),
			want:  "0",
			asked: "binancecoin",
		},
		{
			name:  "source error is unknown",
			src:   &fakeSource{err: errors.New("429")},
			token: token.USDCBase,
			want:  "0",
			asked: "base",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newService(t, tt.src)

			got, ok := s.TokenPrice(context.Background(), tt.token)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, []string{tt.asked}, tt.src.asked)
		})
	}
}

func TestPriceService_CachesKnownPrices(t *testing.T) {
	src := &fakeSource{coins: map[string]decimal.Decimal{"ethereum": decimal.NewFromInt(3400)}}
	s := newService(t, src)

	for range 3 {
		_, ok := s.TokenPrice(context.Background(), token.Native(token.Ethereum))
		require.True(t, ok)
	}
	assert.Equal(t, 1, src.calls)
}

func TestPriceService_RetriesUnknownPrices(t *testing.T) {
	src := &fakeSource{}
	s := newService(t, src)

	_, ok := s.TokenPrice(context.Background(), token.USDC)
	require.False(t, ok)

	src.mu.Lock()
	src.tokens = map[string]decimal.Decimal{"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48": decimal.NewFromInt(1)}
	src.mu.Unlock()

	got, ok := s.TokenPrice(context.Background(), token.USDC)
	require.True(t, ok)
	assert.Equal(t, "1", got.String())
	assert.Equal(t, 2, src.calls)
}

func TestPriceService_NoPlatform(t *testing.T) {
	src := &fakeSource{}
	s := newService(t, src)

	sepoliaToken := token.MustNewToken(token.Sepolia, "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238", "USDC", "USD Coin", 6)
	_, ok := s.TokenPrice(context.Background(), sepoliaToken)

	assert.False(t, ok)
	assert.Zero(t, src.calls)
}

func TestPriceService_FeedsTokenFactory(t *testing.T) {
	src := &fakeSource{coins: map[string]decimal.Decimal{"ethereum": decimal.NewFromInt(3000)}}
	f := token.NewFactory(token.DefaultRegistry(), nil, newService(t, src))

	amount, err := f.CreatePriceTokenAmount(context.Background(), token.TokenStruct{
		Blockchain:  token.Ethereum,
		Address:     token.EVMNativeAddress,
		TokenAmount: "2",
	})

	require.NoError(t, err)
	price, ok := amount.Price()
	require.True(t, ok)
	assert.Equal(t, "3000", price.String())
}

func TestPriceService_Fallback(t *testing.T) {
	tests := []struct {
		name    string
		primary *fakeSource
		want    string
		asked   []string
	}{
		{
			name:    "primary error",
			primary: &fakeSource{err: errors.New("circuit open")},
			want:    "600",
			asked:   []string{"binancecoin"},
		},
		{
			name:    "primary has no price",
			primary: &fakeSource{},
			want:    "600",
			asked:   []string{"binancecoin"},
		},
		{
			name:    "primary answers",
			primary: &fakeSource{coins: map[string]decimal.Decimal{"binancecoin": decimal.NewFromInt(610)}},
			want:    "610",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback := &fakeSource{coins: map[string]decimal.Decimal{"binancecoin": decimal.NewFromInt(600)}}
			s := NewPriceService(tt.primary, time.Minute, logger.New(io.Discard, logger.LevelError, "test", nil), WithFallback(fallback))
			t.Cleanup(func() { _ = s.Close() })

			got, ok := s.TokenPrice(context.Background(), token.Native(token.BSC))

			require.True(t, ok)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.asked, fallback.asked)
		})
	}
}

func TestPriceService_FallbackSkipsTokens(t *testing.T) {
	fallback := &fakeSource{}
	s := NewPriceService(&fakeSource{}, time.Minute, logger.New(io.Discard, logger.LevelError, "test", nil), WithFallback(fallback))
	t.Cleanup(func() { _ = s.Close() })

	_, ok := s.TokenPrice(context.Background(), token.USDC)

	assert.False(t, ok)
	assert.Zero(t, fallback.calls)
}
