package evmabi

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestStringifyAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1000", "1000", false},
		{"1000.0", "1000", false},
		{"0", "0", false},
		{"1.5", "", true},
		{"-1", "", true},
	}
	for _, tt := range tests {
		got, err := StringifyAmount(decimal.RequireFromString(tt.in))
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("StringifyAmount(%s) = %q, %v", tt.in, got, err)
		}
	}
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("1000000000000000000000")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := new(big.Int).SetString("1000000000000000000000", 10)
	if v.Cmp(want) != 0 {
		t.Errorf("ParseAmount = %s", v)
	}
	if _, err := ParseAmount("12.3"); err == nil {
		t.Error("expected fraction to be rejected")
	}
}

func TestBytes32Address(t *testing.T) {
	b := Bytes32Address("0x00000000000000000000000000000000000000ff")
	if b[31] != 0xff || b[0] != 0 || b[11] != 0 {
		t.Errorf("unexpected padding %x", b)
	}
}

func TestMaxUint256(t *testing.T) {
	if MaxUint256.BitLen() != 256 {
		t.Errorf("bitlen = %d", MaxUint256.BitLen())
	}
	if _, ok := ERC20.Methods["approve"]; !ok {
		t.Error("erc20 abi missing approve")
	}
	if _, ok := Multicall3.Methods["aggregate3"]; !ok {
		t.Error("multicall abi missing aggregate3")
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0x0", "0", false},
		{"0x2386F26FC10000", "10000000000000000", false},
		{"1000", "1000", false},
		{"0xzz", "", true},
		{"1.5", "", true},
	}
	for _, tt := range tests {
		got, err := ParseQuantity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseQuantity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && got.String() != tt.want {
			t.Errorf("ParseQuantity(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
