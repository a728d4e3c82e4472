package app

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const meterName = "github.com/fd1az/swap-aggregator/business/trade/app"

// Calculator fans a quote request out to providers concurrently.
type Calculator struct {
	name    string
	timeout time.Duration
	log     logger.LoggerInterface
	tracer  trace.Tracer

	calculations metric.Int64Counter
	latency      metric.Float64Histogram
}

// NewCalculator creates a calculator. name labels spans and metrics;
// timeout bounds each provider and is overridden by CalculationOptions.Timeout.
func NewCalculator(name string, timeout time.Duration, log logger.LoggerInterface) (*Calculator, error) {
	c := &Calculator{
		name:    name,
		timeout: timeout,
		log:     log,
		tracer:  otel.Tracer(tracerName),
	}

	meter := otel.Meter(meterName)
	var err error
	c.calculations, err = meter.Int64Counter(
		"provider_calculations_total",
		metric.WithDescription("Provider quote calculations by outcome"),
	)
	if err != nil {
		return nil, err
	}
	c.latency, err = meter.Float64Histogram(
		"provider_calculation_latency_ms",
		metric.WithDescription("Provider quote latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Run calculates every provider concurrently and returns results in
// provider order; sorting is left to the caller. Unsupported pairs yield
// empty results without a call.
func (c *Calculator) Run(ctx context.Context, providers []domain.Provider, from token.PriceTokenAmount, to token.PriceToken, opts domain.CalculationOptions) []domain.Result {
	ctx, span := c.tracer.Start(ctx, c.name+".calculate",
		trace.WithAttributes(
			attribute.String("from", from.Blockchain().String()+":"+from.Symbol()),
			attribute.String("to", to.Blockchain().String()+":"+to.Symbol()),
			attribute.Int("providers", len(providers)),
		),
	)
	defer span.End()

	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	results := make([]domain.Result, len(providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		if !p.IsSupported(from.Blockchain(), to.Blockchain()) {
			results[i] = domain.Result{TradeType: p.Type()}
			continue
		}
		g.Go(func() error {
			results[i] = c.calculateOne(gctx, p, timeout, from, to, opts)
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, r := range results {
		if r.Succeeded() {
			ok++
		}
	}
	span.SetAttributes(attribute.Int("succeeded", ok))
	return results
}

func (c *Calculator) calculateOne(ctx context.Context, p domain.Provider, timeout time.Duration, from token.PriceTokenAmount, to token.PriceToken, opts domain.CalculationOptions) (res domain.Result) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.log.Error(ctx, "provider panicked", "provider", p.Type().String(), "panic", fmt.Sprint(r))
			res = domain.Result{TradeType: p.Type(), Err: apperror.SDK(fmt.Sprintf("%s: %v", p.Type(), r), nil)}
		}
		if res.TradeType == "" {
			res.TradeType = p.Type()
		}
		if ctx.Err() == context.DeadlineExceeded && res.Trade == nil && res.Err == nil {
			res.Err = apperror.New(apperror.CodeServiceTimeout, apperror.WithContext(p.Type().String()))
		}

		outcome := "not_applicable"
		switch {
		case res.Succeeded():
			outcome = "success"
		case res.Err != nil:
			outcome = "error"
			c.log.Debug(ctx, "provider failed", "provider", p.Type().String(), "error", res.Err.Error())
		}
		attrs := metric.WithAttributes(
			attribute.String("provider", p.Type().String()),
			attribute.String("outcome", outcome),
		)
		c.calculations.Add(ctx, 1, attrs)
		c.latency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	}()

	return p.Calculate(ctx, from, to, opts)
}
