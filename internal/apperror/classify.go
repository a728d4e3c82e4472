package apperror

import (
	"encoding/json"
	"errors"
	"strings"
)

// RPC error codes with a fixed meaning across wallets and nodes.
const (
	rpcCodeInternal     = -32603
	rpcCodeUserRejected = 4001
)

// messageRule maps a substring of a raw error message to a taxonomy code.
type messageRule struct {
	substring string
	code      Code
}

// revertRules are checked in order before any numeric code.
var revertRules = []messageRule{
	{"Transaction has been reverted by the EVM", CodeTransactionReverted},
	{"execution reverted: UNIV3R: min return", CodeLowSlippage},
	{"UniswapV2Router: INSUFFICIENT_OUTPUT_AMOUNT", CodeLowSlippage},
	{"Too little received", CodeLowSlippage},
	{"Failed to check for transaction receipt", CodeFailedToCheckForTxReceipt},
}

// genericRules run in the final fallback step.
var genericRules = []messageRule{
	{"insufficient funds for gas * price + value", CodeInsufficientFunds},
	{"insufficient funds for transfer", CodeInsufficientFunds},
	{"max fee per gas less than block base fee", CodeLowGas},
	{"intrinsic gas too low", CodeLowGas},
}

// rpcCoder is satisfied by go-ethereum rpc errors and wallet errors.
type rpcCoder interface {
	ErrorCode() int
}

// ParseEvmError classifies a raw chain or wallet error into the stable
// taxonomy. Priority: known message substrings, then numeric RPC codes,
// then a JSON payload embedded in the message, then a generic parse that
// keeps the raw text. AppErrors pass through unchanged.
func ParseEvmError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	msg := err.Error()

	for _, r := range revertRules {
		if strings.Contains(msg, r.substring) {
			return New(r.code, WithCause(err))
		}
	}

	var coder rpcCoder
	if errors.As(err, &coder) {
		switch coder.ErrorCode() {
		case rpcCodeInternal:
			return New(CodeLowGas, WithCause(err))
		case rpcCodeUserRejected:
			return New(CodeUserReject, WithCause(err))
		}
	}

	if embedded := embeddedMessage(msg); embedded != "" {
		return SDK(embedded, err)
	}

	return parseGeneric(err)
}

// embeddedMessage extracts the "message" field of a JSON object carried
// inside an error string, e.g. `Internal JSON-RPC error.\n{"code":...}`.
func embeddedMessage(msg string) string {
	start := strings.Index(msg, "{")
	if start < 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(msg[start:]), &payload); err != nil {
		return ""
	}
	return payload.Message
}

func parseGeneric(err error) *AppError {
	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, r := range genericRules {
		if strings.Contains(lower, strings.ToLower(r.substring)) {
			return New(r.code, WithCause(err))
		}
	}
	if strings.Contains(lower, "user denied") || strings.Contains(lower, "user rejected") {
		return New(CodeUserReject, WithCause(err))
	}
	return SDK(msg, err)
}
