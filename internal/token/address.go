package token

import (
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
)

var rippleAddress = regexp.MustCompile(`^r[1-9A-HJ-NP-Za-km-z]{25,34}$`)

// IsAddressCorrect reports whether address is well formed for b's family.
// Families without a known format only require a non-empty value.
func IsAddressCorrect(b Blockchain, address string) bool {
	switch b.ChainType() {
	case ChainTypeEVM:
		return common.IsHexAddress(address)
	case ChainTypeSolana:
		raw, err := base58.Decode(address)
		return err == nil && len(raw) == 32
	case ChainTypeRipple:
		return rippleAddress.MatchString(address)
	default:
		return address != ""
	}
}

// CompareAddresses compares two addresses, ignoring case for hex.
func CompareAddresses(a, b string) bool {
	if strings.HasPrefix(a, "0x") || strings.HasPrefix(a, "0X") {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// IsNativeAddress reports whether address denotes b's native coin.
func IsNativeAddress(b Blockchain, address string) bool {
	return CompareAddresses(address, b.NativeAddress())
}

// normalizeAddress produces the cache/equality key form of an address.
func normalizeAddress(b Blockchain, address string) string {
	if b.IsEVM() {
		return strings.ToLower(address)
	}
	return address
}
