package token_test

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/token"
)

func eth(price float64) token.PriceToken {
	return token.NewPriceToken(token.Native(token.Ethereum), decimal.NewFromFloat(price))
}

func usdc(price float64) token.PriceToken {
	return token.NewPriceToken(token.USDC, decimal.NewFromFloat(price))
}

func fromWei(t *testing.T, pt token.PriceToken, wei *big.Int) token.PriceTokenAmount {
	t.Helper()
	a, err := token.NewPriceTokenAmountFromWei(pt, wei)
	if err != nil {
		t.Fatalf("NewPriceTokenAmountFromWei: %v", err)
	}
	return a
}

func TestPriceTokenAmount_WeiIsTokenAmountTimesDecimals(t *testing.T) {
	tests := []struct {
		name   string
		pt     token.PriceToken
		amount string
		want   string
	}{
		{"one eth", eth(3000), "1", "1000000000000000000"},
		{"fractional eth", eth(3000), "0.000000000000000001", "1"},
		{"usdc six decimals", usdc(1), "12.345678", "12345678"},
		{"truncates extra digits", usdc(1), "1.1234567", "1123456"},
		{"zero", usdc(1), "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := token.ParseTokenAmount(tt.pt, tt.amount)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.StringWeiAmount() != tt.want {
				t.Errorf("wei = %s, want %s", a.StringWeiAmount(), tt.want)
			}
			back := decimal.NewFromBigInt(a.WeiAmount(), -int32(a.Decimals()))
			if !back.Equal(a.TokenAmount()) {
				t.Errorf("token amount %s and wei %s disagree", a.TokenAmount(), a.WeiAmount())
			}
		})
	}
}

func TestParseTokenAmount_WrongAmount(t *testing.T) {
	for _, in := range []string{"-1", "abc", ""} {
		_, err := token.ParseTokenAmount(usdc(1), in)
		if apperror.GetCode(err) != apperror.CodeWrongAmount {
			t.Errorf("ParseTokenAmount(%q) code = %s, want WRONG_AMOUNT", in, apperror.GetCode(err))
		}
	}
}

func TestPriceTokenAmount_IsImmutable(t *testing.T) {
	wei := big.NewInt(500)
	a := fromWei(t, usdc(1), wei)

	wei.SetInt64(1)
	got := a.WeiAmount()
	got.SetInt64(2)

	if a.WeiAmount().Int64() != 500 {
		t.Fatalf("amount mutated through a shared pointer: %s", a.WeiAmount())
	}
}

func TestCalculatePriceImpactPercent(t *testing.T) {
	from, _ := token.ParseTokenAmount(eth(2000), "1")

	tests := []struct {
		name   string
		to     token.PriceTokenAmount
		want   float64
		wantOK bool
	}{
		{
			name:   "one percent loss",
			to:     mustParse(t, usdc(1), "1980"),
			want:   1,
			wantOK: true,
		},
		{
			name:   "gain is negative impact",
			to:     mustParse(t, usdc(1), "2100"),
			want:   -5,
			wantOK: true,
		},
		{
			name:   "clamped to -100",
			to:     mustParse(t, usdc(1), "100000"),
			want:   -100,
			wantOK: true,
		},
		{
			name:   "unknown price",
			to:     mustParse(t, token.NewUnpricedToken(token.USDC), "1980"),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := from.CalculatePriceImpactPercent(tt.to)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("impact = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculatePriceImpactPercent_ZeroInput(t *testing.T) {
	zero := mustParse(t, eth(2000), "0")
	if _, ok := zero.CalculatePriceImpactPercent(mustParse(t, usdc(1), "1")); ok {
		t.Error("expected no impact for a zero-value input")
	}
}

func TestSlippageAdjustments(t *testing.T) {
	a := fromWei(t, usdc(1), big.NewInt(1_000_000))

	if got := a.WeiAmountMinusSlippage(0.01); got.Int64() != 990_000 {
		t.Errorf("minus slippage = %s, want 990000", got)
	}
	if got := a.WeiAmountPlusSlippage(0.005); got.Int64() != 1_005_000 {
		t.Errorf("plus slippage = %s, want 1005000", got)
	}
	if got := a.SubtractPercent(decimal.NewFromFloat(0.3)); got.WeiAmount().Int64() != 997_000 {
		t.Errorf("subtract percent = %s, want 997000", got.WeiAmount())
	}
}

func TestCmp_DifferentTokens(t *testing.T) {
	a := mustParse(t, usdc(1), "1")
	b := mustParse(t, eth(1), "1")
	if _, err := a.Cmp(b); err == nil {
		t.Error("expected error comparing different tokens")
	}
}

func mustParse(t *testing.T, pt token.PriceToken, s string) token.PriceTokenAmount {
	t.Helper()
	a, err := token.ParseTokenAmount(pt, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return a
}
