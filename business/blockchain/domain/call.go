package domain

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// MethodCall is one read in a batch.
type MethodCall struct {
	Contract string
	ABI      *abi.ABI
	Method   string
	Args     []any
}

// MethodResult holds the decoded outputs of a MethodCall. Success is false
// when the call reverted or its output could not be decoded.
type MethodResult struct {
	Success bool
	Output  []any
}
