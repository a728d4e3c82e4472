// Package app implements route enumeration and batched quoting.
package app

import (
	"context"
	"fmt"
	"math/big"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/business/routing/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const tracerName = "github.com/fd1az/swap-aggregator/business/routing/app"

// Multicaller is the slice of the chain adapter the factory needs.
type Multicaller interface {
	MulticallContractMethods(ctx context.Context, calls []bcdomain.MethodCall) ([]bcdomain.MethodResult, error)
}

// CallBuilder is the provider strategy: how to quote a path and how to read
// the quote back.
type CallBuilder interface {
	BuildCalls(path []token.Token, amountIn *big.Int) []domain.PathCall
	ParseAmount(outputs []any) (*big.Int, error)
}

// Request describes one search.
type Request struct {
	From             token.PriceTokenAmount
	To               token.PriceToken
	RoutingTokens    []token.Token
	MaxTransitTokens int

	// MaxPathLength is the provider's hard cap on path tokens; 0 means none.
	MaxPathLength int
}

// PathFactory enumerates candidate paths and quotes all of them in one
// multicall.
type PathFactory struct {
	tracer trace.Tracer
}

// NewPathFactory creates a factory.
func NewPathFactory() *PathFactory {
	return &PathFactory{tracer: otel.Tracer(tracerName)}
}

// FindRoutes returns every path with a positive quote, in enumeration order.
func (f *PathFactory) FindRoutes(ctx context.Context, mc Multicaller, builder CallBuilder, req Request) ([]domain.Route, error) {
	if req.MaxTransitTokens < 0 {
		req.MaxTransitTokens = 0
	}
	if req.MaxPathLength > 0 && req.MaxTransitTokens+2 > req.MaxPathLength {
		return nil, apperror.SDK(fmt.Sprintf("Maximum number of transit tokens: %d", req.MaxPathLength-2), nil)
	}

	ctx, span := f.tracer.Start(ctx, "routing.find_routes",
		trace.WithAttributes(
			attribute.String("from", req.From.Symbol()),
			attribute.String("to", req.To.Symbol()),
			attribute.Int("max_transit", req.MaxTransitTokens),
		),
	)
	defer span.End()

	paths := EnumeratePaths(req.From.Token, req.To.Token, req.RoutingTokens, req.MaxTransitTokens)

	type pending struct {
		path    []token.Token
		variant string
	}
	var (
		calls   []bcdomain.MethodCall
		tracked []pending
	)
	amountIn := req.From.WeiAmount()
	for _, path := range paths {
		for _, pc := range builder.BuildCalls(path, amountIn) {
			calls = append(calls, pc.Call)
			tracked = append(tracked, pending{path: path, variant: pc.Variant})
		}
	}
	span.SetAttributes(attribute.Int("paths", len(paths)), attribute.Int("calls", len(calls)))
	if len(calls) == 0 {
		return nil, nil
	}

	results, err := mc.MulticallContractMethods(ctx, calls)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "multicall failed")
		return nil, err
	}

	routes := make([]domain.Route, 0, len(results))
	for i, r := range results {
		if !r.Success {
			continue
		}
		out, err := builder.ParseAmount(r.Output)
		if err != nil || out == nil || out.Sign() <= 0 {
			continue
		}
		routes = append(routes, domain.Route{
			Path:      tracked[i].path,
			Variant:   tracked[i].variant,
			AmountOut: out,
		})
	}

	span.SetAttributes(attribute.Int("routes", len(routes)))
	span.SetStatus(codes.Ok, "quoted")
	return routes, nil
}

// EnumeratePaths lists from > [transit...] > to for 0..maxTransit transit
// tokens. Transit tokens never repeat and never stand in for an endpoint,
// including the endpoint's wrapped native form.
func EnumeratePaths(from, to token.Token, routing []token.Token, maxTransit int) [][]token.Token {
	var candidates []token.Token
	for _, t := range routing {
		if sameAsset(t, from) || sameAsset(t, to) {
			continue
		}
		dup := false
		for _, c := range candidates {
			if c.Equal(t) {
				dup = true
				break
			}
		}
		if !dup {
			candidates = append(candidates, t)
		}
	}

	var out [][]token.Token
	used := make([]bool, len(candidates))
	var dfs func(prefix []token.Token, remaining int)
	dfs = func(prefix []token.Token, remaining int) {
		if remaining == 0 {
			path := make([]token.Token, 0, len(prefix)+1)
			path = append(path, prefix...)
			out = append(out, append(path, to))
			return
		}
		for i, c := range candidates {
			if used[i] {
				continue
			}
			used[i] = true
			dfs(append(prefix, c), remaining-1)
			used[i] = false
		}
	}

	for depth := 0; depth <= maxTransit; depth++ {
		dfs([]token.Token{from}, depth)
	}
	return out
}

// sameAsset treats a native coin and its wrapped token as one asset.
func sameAsset(a, b token.Token) bool {
	if a.Equal(b) {
		return true
	}
	if a.Blockchain() != b.Blockchain() {
		return false
	}
	if a.IsNative() {
		w, ok := token.WrappedNative(a.Blockchain())
		return ok && w.Equal(b)
	}
	if b.IsNative() {
		w, ok := token.WrappedNative(b.Blockchain())
		return ok && w.Equal(a)
	}
	return false
}
