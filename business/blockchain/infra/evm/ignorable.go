package evm

import (
	"errors"
	"strings"
)

// ignorableEstimateErrors are estimation failures that do not predict a
// failed send, usually because an approval is still pending.
var ignorableEstimateErrors = []string{
	"execution reverted: transferhelper: transfer_from_failed",
	"stf",
	"execution reverted: erc20: transfer amount exceeds allowance",
	"anyswaperc20: request exceed allowance",
	"gas required exceeds allowance",
	"execution reverted: safeerc20: low-level call failed",
}

// isIgnorableError reports whether err, or any error it wraps, matches the
// ignorable list. "STF" is compared against whole revert reasons only so that
// unrelated messages containing those letters are not swallowed.
func isIgnorableError(err error) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if ignorableMessage(strings.ToLower(err.Error())) {
			return true
		}
	}
	return false
}

func ignorableMessage(msg string) bool {
	for _, s := range ignorableEstimateErrors {
		if s == "stf" {
			if msg == "stf" || strings.HasSuffix(msg, "reverted: stf") || strings.HasSuffix(msg, ": stf") {
				return true
			}
			continue
		}
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// isRevert reports a contract-level failure. Those are answers from a healthy
// node and must not trip circuit breakers.
func isRevert(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}
