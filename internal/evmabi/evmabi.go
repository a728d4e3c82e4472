// Package evmabi holds parsed contract ABIs shared across chain adapters and
// providers, plus small helpers for address and amount arguments.
package evmabi

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// MustParse parses a JSON ABI and panics on malformed input. Only used for
// package-level constants.
func MustParse(raw string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("evmabi: invalid abi: %v", err))
	}
	return &parsed
}

// MaxUint256 is 2^256-1, the "infinite" approval amount.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Address converts a hex string to a common.Address.
func Address(hex string) common.Address {
	return common.HexToAddress(hex)
}

// Addresses converts hex strings to addresses.
func Addresses(hexes ...string) []common.Address {
	out := make([]common.Address, len(hexes))
	for i, h := range hexes {
		out[i] = common.HexToAddress(h)
	}
	return out
}

// Bytes32Address left-pads a 20-byte address to 32 bytes, the layout
// bridge contracts use for foreign receivers.
func Bytes32Address(hex string) [32]byte {
	var out [32]byte
	copy(out[12:], common.HexToAddress(hex).Bytes())
	return out
}

// StringifyAmount renders an on-chain amount. Chains only take integers, so
// fractional values are rejected instead of rounded.
func StringifyAmount(v decimal.Decimal) (string, error) {
	if !v.Equal(v.Truncate(0)) {
		return "", fmt.Errorf("amount %s is not an integer", v.String())
	}
	if v.IsNegative() {
		return "", fmt.Errorf("amount %s is negative", v.String())
	}
	return v.Truncate(0).String(), nil
}

// ParseAmount parses a decimal integer string into wei.
func ParseAmount(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if _, err := StringifyAmount(d); err != nil {
		return nil, err
	}
	return d.BigInt(), nil
}

// ParseQuantity accepts a 0x-prefixed hex quantity or a decimal integer, the
// two forms provider APIs use for transaction values.
func ParseQuantity(s string) (*big.Int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := hexutil.DecodeBig(strings.ToLower(s))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q: %w", s, err)
		}
		return v, nil
	}
	return ParseAmount(s)
}
