package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Swap taxonomy. Upper layers branch only on these codes, never on raw
// provider or RPC text.
const (
	// Wallet / network
	CodeWrongNetwork Code = "WRONG_NETWORK"
	CodeUserReject   Code = "USER_REJECT"
	CodeLowGas       Code = "LOW_GAS"

	// Execution
	CodeLowSlippage               Code = "LOW_SLIPPAGE"
	CodeLowSlippageDeflationary   Code = "LOW_SLIPPAGE_DEFLATIONARY_TOKEN"
	CodeLowToSlippage             Code = "LOW_TO_SLIPPAGE"
	CodeTransactionReverted       Code = "TRANSACTION_REVERTED"
	CodeFailedToCheckForTxReceipt Code = "FAILED_TO_CHECK_FOR_TRANSACTION_RECEIPT"
	CodeInsufficientFunds         Code = "INSUFFICIENT_FUNDS"

	// Quote limits
	CodeMinAmount             Code = "MIN_AMOUNT"
	CodeMaxAmount             Code = "MAX_AMOUNT"
	CodeTooLowAmount          Code = "TOO_LOW_AMOUNT"
	CodeWrongAmount           Code = "WRONG_AMOUNT"
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"

	// Support
	CodeNotSupportedTokens     Code = "NOT_SUPPORTED_TOKENS"
	CodeNotSupportedBlockchain Code = "NOT_SUPPORTED_BLOCKCHAIN"
	CodeWrongReceiverAddress   Code = "WRONG_RECEIVER_ADDRESS"
	CodeUnsupportedReceiver    Code = "UNSUPPORTED_RECEIVER_ADDRESS"
	CodeWrongFromAddress       Code = "WRONG_FROM_ADDRESS"

	// Provider transport
	CodeSwapRequest Code = "SWAP_REQUEST"

	// Generic fallback
	CodeRubicSdk Code = "RUBIC_SDK"
)

// Infrastructure error codes
const (
	CodeChainConnectionFailed Code = "CHAIN_CONNECTION_FAILED"
	CodeChainRPCError         Code = "CHAIN_RPC_ERROR"
	CodeGasEstimationFailed   Code = "GAS_ESTIMATION_FAILED"
	CodeContractCallFailed    Code = "CONTRACT_CALL_FAILED"
	CodeMulticallFailed       Code = "MULTICALL_FAILED"
	CodeProviderAPIError      Code = "PROVIDER_API_ERROR"
	CodePriceFetchFailed      Code = "PRICE_FETCH_FAILED"
	CodeTokenMetadataFailed   Code = "TOKEN_METADATA_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
