package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Wallet / network
	CodeWrongNetwork: "Wallet is connected to a different network",
	CodeUserReject:   "User rejected the request",
	CodeLowGas:       "Gas limit or gas price is too low",

	// Execution
	CodeLowSlippage:               "Slippage tolerance is too low for this trade",
	CodeLowSlippageDeflationary:   "Slippage is too low for a deflationary token",
	CodeLowToSlippage:             "Destination slippage is lower than the bridge slippage",
	CodeTransactionReverted:       "Transaction has been reverted",
	CodeFailedToCheckForTxReceipt: "Failed to check for transaction receipt",
	CodeInsufficientFunds:         "Insufficient funds",

	// Quote limits
	CodeMinAmount:             "Amount is below the minimum",
	CodeMaxAmount:             "Amount is above the maximum",
	CodeTooLowAmount:          "Amount is too low to cover fees",
	CodeWrongAmount:           "Amount must be a non-negative number",
	CodeInsufficientLiquidity: "No route with enough liquidity",

	// Support
	CodeNotSupportedTokens:     "Tokens are not supported",
	CodeNotSupportedBlockchain: "Blockchain is not supported",
	CodeWrongReceiverAddress:   "Receiver address is not valid",
	CodeUnsupportedReceiver:    "Receiver address is not supported",
	CodeWrongFromAddress:       "From address is not valid",

	CodeSwapRequest: "Provider rejected the swap request",
	CodeRubicSdk:    "Unknown SDK error",

	// Infrastructure
	CodeChainConnectionFailed: "Failed to connect to blockchain node",
	CodeChainRPCError:         "Blockchain RPC call failed",
	CodeGasEstimationFailed:   "Gas estimation failed",
	CodeContractCallFailed:    "Smart contract call failed",
	CodeMulticallFailed:       "Multicall request failed",
	CodeProviderAPIError:      "Provider API error",
	CodePriceFetchFailed:      "Failed to fetch token price",
	CodeTokenMetadataFailed:   "Failed to fetch token metadata",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
