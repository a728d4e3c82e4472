package apperror

import "fmt"

// Detail keys carried by limit and funds errors.
const (
	DetailAmount   = "amount"
	DetailSymbol   = "symbol"
	DetailBalance  = "balance"
	DetailRequired = "required"
)

// MinAmount reports an input below a provider's published minimum.
func MinAmount(min, symbol string) *AppError {
	return New(CodeMinAmount,
		WithMessage(fmt.Sprintf("Minimum amount is %s %s", min, symbol)),
		WithDetail(DetailAmount, min),
		WithDetail(DetailSymbol, symbol),
	)
}

// MaxAmount reports an input above a provider's published maximum.
func MaxAmount(max, symbol string) *AppError {
	return New(CodeMaxAmount,
		WithMessage(fmt.Sprintf("Maximum amount is %s %s", max, symbol)),
		WithDetail(DetailAmount, max),
		WithDetail(DetailSymbol, symbol),
	)
}

// InsufficientFunds reports a wallet balance below what the trade spends.
func InsufficientFunds(symbol, balance, required string) *AppError {
	return New(CodeInsufficientFunds,
		WithMessage(fmt.Sprintf("Insufficient %s balance: have %s, need %s", symbol, balance, required)),
		WithDetail(DetailSymbol, symbol),
		WithDetail(DetailBalance, balance),
		WithDetail(DetailRequired, required),
	)
}

// WrongNetwork reports a signer connected to another chain.
func WrongNetwork(expected string) *AppError {
	return New(CodeWrongNetwork, WithContext(expected))
}

// NotSupportedTokens is returned when a provider does not list a token.
func NotSupportedTokens() *AppError {
	return New(CodeNotSupportedTokens)
}

// NotSupportedBlockchain is returned for chains outside a provider's set.
func NotSupportedBlockchain(blockchain string) *AppError {
	return New(CodeNotSupportedBlockchain, WithContext(blockchain))
}

// TooLowAmount is returned when fees consume the whole input.
func TooLowAmount() *AppError {
	return New(CodeTooLowAmount)
}

// SDK is the generic fallback that keeps the raw message.
func SDK(message string, cause error) *AppError {
	return New(CodeRubicSdk, WithMessage(message), WithCause(cause))
}
