package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/fd1az/swap-aggregator/internal/token"
)

// DeflationChecker tells fee-on-transfer tokens apart.
type DeflationChecker interface {
	IsDeflationary(ctx context.Context, t token.Token) (bool, error)
}

// StaticDeflation is a fixed set of deflationary tokens.
type StaticDeflation map[token.Key]bool

var _ DeflationChecker = StaticDeflation(nil)

// ParseDeflationList reads "CHAIN:address" entries.
func ParseDeflationList(entries []string) (StaticDeflation, error) {
	out := make(StaticDeflation, len(entries))
	for _, e := range entries {
		chain, addr, ok := strings.Cut(e, ":")
		if !ok {
			return nil, fmt.Errorf("deflationary token %q: want CHAIN:address", e)
		}
		b := token.Blockchain(strings.ToUpper(strings.TrimSpace(chain)))
		addr = strings.TrimSpace(addr)
		if !token.IsAddressCorrect(b, addr) {
			return nil, fmt.Errorf("deflationary token %q: invalid address", e)
		}
		out[token.NewKey(b, addr)] = true
	}
	return out, nil
}

func (s StaticDeflation) IsDeflationary(_ context.Context, t token.Token) (bool, error) {
	return s[t.Key()], nil
}
