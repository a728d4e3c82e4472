package domain

import "github.com/shopspring/decimal"

// FeeAmount is an absolute fee in one token.
type FeeAmount struct {
	Amount      decimal.Decimal
	TokenSymbol string
}

// PlatformFee is a percentage taken from the input.
type PlatformFee struct {
	Percent     decimal.Decimal
	TokenSymbol string
}

// FeeInfo groups the fees a trade charges. Nil members are absent.
type FeeInfo struct {
	FixedFee    *FeeAmount
	PlatformFee *PlatformFee
	CryptoFee   *FeeAmount
}

// IsZero reports whether no fee is set.
func (f FeeInfo) IsZero() bool {
	return f.FixedFee == nil && f.PlatformFee == nil && f.CryptoFee == nil
}

// MergeFees combines leg fees. Amounts in the same symbol add up; the first
// fee wins otherwise. Platform fee percentages add up.
func MergeFees(parts ...FeeInfo) FeeInfo {
	var out FeeInfo
	for _, p := range parts {
		out.FixedFee = mergeAmount(out.FixedFee, p.FixedFee)
		out.CryptoFee = mergeAmount(out.CryptoFee, p.CryptoFee)
		if p.PlatformFee != nil {
			if out.PlatformFee == nil {
				cp := *p.PlatformFee
				out.PlatformFee = &cp
			} else {
				out.PlatformFee.Percent = out.PlatformFee.Percent.Add(p.PlatformFee.Percent)
			}
		}
	}
	return out
}

func mergeAmount(acc, next *FeeAmount) *FeeAmount {
	if next == nil {
		return acc
	}
	if acc == nil {
		cp := *next
		return &cp
	}
	if acc.TokenSymbol == next.TokenSymbol {
		acc.Amount = acc.Amount.Add(next.Amount)
	}
	return acc
}
