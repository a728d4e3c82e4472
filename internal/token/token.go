package token

import (
	"fmt"
)

// maxDecimals bounds token decimals; anything above is treated as bad
// metadata.
const maxDecimals = 36

// Token is an immutable on-chain asset. Identity is (blockchain, address);
// symbol and name are display metadata.
type Token struct {
	blockchain Blockchain
	address    string
	symbol     string
	name       string
	decimals   uint8
}

// NewToken validates and builds a Token.
func NewToken(b Blockchain, address, symbol, name string, decimals uint8) (Token, error) {
	if !IsAddressCorrect(b, address) {
		return Token{}, fmt.Errorf("token: invalid %s address %q", b, address)
	}
	if decimals > maxDecimals {
		return Token{}, fmt.Errorf("token: suspicious decimals %d for %s", decimals, symbol)
	}
	if name == "" {
		name = symbol
	}
	return Token{
		blockchain: b,
		address:    address,
		symbol:     symbol,
		name:       name,
		decimals:   decimals,
	}, nil
}

// MustNewToken is NewToken for static tables; it panics on bad input.
func MustNewToken(b Blockchain, address, symbol, name string, decimals uint8) Token {
	t, err := NewToken(b, address, symbol, name, decimals)
	if err != nil {
		panic(err)
	}
	return t
}

// Native returns the native coin of b.
func Native(b Blockchain) Token {
	decimals := uint8(18)
	switch b {
	case Solana:
		decimals = 9
	case Ripple, Algorand:
		decimals = 6
	}
	return Token{
		blockchain: b,
		address:    b.NativeAddress(),
		symbol:     b.NativeSymbol(),
		name:       b.NativeSymbol(),
		decimals:   decimals,
	}
}

func (t Token) Blockchain() Blockchain { return t.blockchain }
func (t Token) Address() string        { return t.address }
func (t Token) Symbol() string         { return t.symbol }
func (t Token) Name() string           { return t.name }
func (t Token) Decimals() uint8        { return t.decimals }

// IsNative reports whether t is the chain's native coin.
func (t Token) IsNative() bool {
	return IsNativeAddress(t.blockchain, t.address)
}

// Equal compares identity: blockchain and address.
func (t Token) Equal(other Token) bool {
	return t.blockchain == other.blockchain && CompareAddresses(t.address, other.address)
}

// Key returns the identity as a map key.
func (t Token) Key() Key {
	return Key{Blockchain: t.blockchain, Address: normalizeAddress(t.blockchain, t.address)}
}

// String returns a human-readable representation.
func (t Token) String() string {
	return fmt.Sprintf("%s(%s)", t.symbol, t.blockchain)
}

// Key identifies a token independently of address case.
type Key struct {
	Blockchain Blockchain
	Address    string
}

// NewKey normalizes address for b.
func NewKey(b Blockchain, address string) Key {
	return Key{Blockchain: b, Address: normalizeAddress(b, address)}
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return string(k.Blockchain) + ":" + k.Address
}
