// Package domain contains route search types.
package domain

import (
	"math/big"
	"slices"
	"strings"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// PathCall is one quote call for a path. Variant distinguishes several
// calls for the same path, e.g. a stable and a volatile pool or a fee tier.
type PathCall struct {
	Variant string
	Call    bcdomain.MethodCall
}

// Route is a quoted path.
type Route struct {
	Path      []token.Token
	Variant   string
	AmountOut *big.Int
}

// Symbols renders the path as "A > B > C".
func (r Route) Symbols() string {
	parts := make([]string, len(r.Path))
	for i, t := range r.Path {
		parts[i] = t.Symbol()
	}
	return strings.Join(parts, " > ")
}

// SortByAmountOut orders routes best first. Equal outputs keep enumeration
// order.
func SortByAmountOut(routes []Route) {
	slices.SortStableFunc(routes, func(a, b Route) int {
		return b.AmountOut.Cmp(a.AmountOut)
	})
}

// RoutePathStep is one hop group in a trade summary.
type RoutePathStep struct {
	Type     string
	Provider string
	Path     []token.Token
}
