package token

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/cache"
)

// Metadata is what a chain reports about a token contract.
type Metadata struct {
	Symbol   string
	Name     string
	Decimals uint8
}

// MetadataFetcher reads token metadata from a chain.
type MetadataFetcher interface {
	TokenMetadata(ctx context.Context, b Blockchain, address string) (Metadata, error)
}

// PriceFetcher returns a USD price; ok is false when the price is unknown.
type PriceFetcher interface {
	TokenPrice(ctx context.Context, t Token) (price decimal.Decimal, ok bool)
}

// TokenStruct describes a token amount as supplied by a caller. Missing
// metadata is fetched; a missing price stays unknown unless a PriceFetcher
// knows it.
type TokenStruct struct {
	Blockchain  Blockchain
	Address     string
	Symbol      string
	Name        string
	Decimals    *uint8
	Price       *decimal.Decimal
	TokenAmount string
}

// Factory builds tokens. Metadata is memoized per (blockchain, address) for
// the process lifetime: each key is fetched at most once, concurrent misses
// share a single fetch, and nothing is evicted.
type Factory struct {
	registry *Registry
	fetcher  MetadataFetcher
	prices   PriceFetcher
	tokens   *cache.Cache[Key, Token]
}

// NewFactory creates a factory. prices may be nil.
func NewFactory(registry *Registry, fetcher MetadataFetcher, prices PriceFetcher) *Factory {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Factory{
		registry: registry,
		fetcher:  fetcher,
		prices:   prices,
		tokens:   cache.New[Key, Token](0),
	}
}

// CreateToken resolves a token from the registry, the cache or the chain.
func (f *Factory) CreateToken(ctx context.Context, b Blockchain, address string) (Token, error) {
	if !IsAddressCorrect(b, address) {
		return Token{}, apperror.Validation(apperror.CodeValidationError,
			fmt.Sprintf("invalid %s address %q", b, address))
	}
	if IsNativeAddress(b, address) {
		return Native(b), nil
	}
	if t, ok := f.registry.Get(b, address); ok {
		return t, nil
	}

	return f.tokens.GetOrLoad(ctx, NewKey(b, address), 0, func(ctx context.Context) (Token, error) {
		if f.fetcher == nil {
			return Token{}, apperror.New(apperror.CodeValidationError,
				apperror.WithContext(fmt.Sprintf("no metadata source for %s:%s", b, address)))
		}
		md, err := f.fetcher.TokenMetadata(ctx, b, address)
		if err != nil {
			return Token{}, apperror.New(apperror.CodeValidationError,
				apperror.WithContext(fmt.Sprintf("token metadata for %s:%s", b, address)),
				apperror.WithCause(err))
		}
		return NewToken(b, address, md.Symbol, md.Name, md.Decimals)
	})
}

// CreatePriceToken resolves a token and its price.
func (f *Factory) CreatePriceToken(ctx context.Context, b Blockchain, address string) (PriceToken, error) {
	t, err := f.CreateToken(ctx, b, address)
	if err != nil {
		return PriceToken{}, err
	}
	return f.price(ctx, t, nil), nil
}

// CreatePriceTokenAmount builds the calculation input from a TokenStruct.
// It fails with VALIDATION_ERROR when decimals are absent and cannot be
// fetched, and with WRONG_AMOUNT for negative or non-numeric amounts.
func (f *Factory) CreatePriceTokenAmount(ctx context.Context, s TokenStruct) (PriceTokenAmount, error) {
	var (
		t   Token
		err error
	)
	if s.Decimals != nil && s.Symbol != "" {
		t, err = NewToken(s.Blockchain, s.Address, s.Symbol, s.Name, *s.Decimals)
		if err != nil {
			return PriceTokenAmount{}, apperror.Validation(apperror.CodeValidationError, err.Error())
		}
	} else {
		t, err = f.CreateToken(ctx, s.Blockchain, s.Address)
		if err != nil {
			return PriceTokenAmount{}, err
		}
		if s.Decimals != nil && *s.Decimals != t.Decimals() {
			return PriceTokenAmount{}, apperror.Validation(apperror.CodeValidationError,
				fmt.Sprintf("%s reports %d decimals, caller supplied %d", t, t.Decimals(), *s.Decimals))
		}
	}

	return ParseTokenAmount(f.price(ctx, t, s.Price), s.TokenAmount)
}

func (f *Factory) price(ctx context.Context, t Token, known *decimal.Decimal) PriceToken {
	if known != nil {
		return NewPriceToken(t, *known)
	}
	if f.prices != nil {
		if p, ok := f.prices.TokenPrice(ctx, t); ok {
			return NewPriceToken(t, p)
		}
	}
	return NewUnpricedToken(t)
}

// Registry returns the static token registry.
func (f *Factory) Registry() *Registry {
	return f.registry
}
