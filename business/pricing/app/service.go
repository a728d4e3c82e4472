package app

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swap-aggregator/business/pricing/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/cache"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/token"
)

const tracerName = "github.com/fd1az/swap-aggregator/business/pricing/app"

// DefaultCacheTTL applies when the service is created with a zero TTL.
const DefaultCacheTTL = time.Minute

// PriceService reads USD prices through a TTL cache. Unknown prices are
// not cached, so a later call retries the source.
type PriceService struct {
	source   PriceSource
	fallback CoinPricer
	prices   *cache.Cache[token.Key, decimal.Decimal]
	ttl      time.Duration
	log      logger.LoggerInterface
	tracer   trace.Tracer
}

// Option configures a PriceService.
type Option func(*PriceService)

// WithFallback sets a second source for native coin prices, asked when
// the primary source fails or has no price.
func WithFallback(f CoinPricer) Option {
	return func(s *PriceService) {
		s.fallback = f
	}
}

var _ token.PriceFetcher = (*PriceService)(nil)

// NewPriceService creates the service.
func NewPriceService(source PriceSource, ttl time.Duration, log logger.LoggerInterface, opts ...Option) *PriceService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	s := &PriceService{
		source: source,
		prices: cache.New[token.Key, decimal.Decimal](ttl),
		ttl:    ttl,
		log:    log,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TokenPrice implements token.PriceFetcher. Any failure is reported as an
// unknown price.
func (s *PriceService) TokenPrice(ctx context.Context, t token.Token) (decimal.Decimal, bool) {
	p, err := s.prices.GetOrLoad(ctx, t.Key(), s.ttl, func(ctx context.Context) (decimal.Decimal, error) {
		return s.load(ctx, t)
	})
	if err != nil {
		s.log.Debug(ctx, "token price unknown", "token", t.String(), "error", err)
		return decimal.Zero, false
	}
	return p, true
}

// Price is TokenPrice as a domain value.
func (s *PriceService) Price(ctx context.Context, t token.Token) (domain.Price, bool) {
	usd, ok := s.TokenPrice(ctx, t)
	if !ok {
		return domain.Price{}, false
	}
	return domain.NewPrice(t.Key(), usd, "coingecko"), true
}

func (s *PriceService) load(ctx context.Context, t token.Token) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.load",
		trace.WithAttributes(
			attribute.String("blockchain", t.Blockchain().String()),
			attribute.String("token", t.Address()),
		),
	)
	defer span.End()

	var (
		usd decimal.Decimal
		err error
	)
	if t.IsNative() {
		id, ok := domain.NativeCoin(t.Blockchain())
		if !ok {
			return decimal.Zero, apperror.NotFound(apperror.CodePriceFetchFailed, "no native coin for "+t.Blockchain().String())
		}
		usd, err = s.coinPrice(ctx, id)
	} else {
		platform, ok := domain.Platform(t.Blockchain())
		if !ok {
			return decimal.Zero, apperror.NotFound(apperror.CodePriceFetchFailed, "no price platform for "+t.Blockchain().String())
		}
		address := strings.ToLower(t.Address())
		var prices map[string]decimal.Decimal
		prices, err = s.source.TokenPrices(ctx, platform, []string{address})
		usd = prices[address]
	}
	if err != nil {
		span.RecordError(err)
		return decimal.Zero, apperror.Wrap(err, apperror.CodePriceFetchFailed, "price source")
	}
	if !usd.IsPositive() {
		return decimal.Zero, apperror.NotFound(apperror.CodePriceFetchFailed, "no price for "+t.String())
	}
	return usd, nil
}

func (s *PriceService) coinPrice(ctx context.Context, id string) (decimal.Decimal, error) {
	usd, err := s.source.CoinPrice(ctx, id)
	if s.fallback == nil || (err == nil && usd.IsPositive()) {
		return usd, err
	}
	if err != nil {
		s.log.Debug(ctx, "primary coin price failed, trying fallback", "coin", id, "error", err)
	}
	return s.fallback.CoinPrice(ctx, id)
}

// Close stops the cache janitor.
func (s *PriceService) Close() error {
	s.prices.Close()
	return nil
}
