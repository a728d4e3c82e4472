package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swap-aggregator/business/blockchain/app"
	"github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/cache"
	"github.com/fd1az/swap-aggregator/internal/circuitbreaker"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/token"
)

var _ app.GasOracle = (*GasOracle)(nil)

// GasOracleConfig holds configuration for the gas oracle.
type GasOracleConfig struct {
	Blockchain  token.Blockchain
	CacheTTL    time.Duration // ~1 block
	MaxGasPrice *big.Int      // cap on the reported price, nil for none
}

// DefaultGasOracleConfig returns sensible defaults.
func DefaultGasOracleConfig(b token.Blockchain) GasOracleConfig {
	return GasOracleConfig{
		Blockchain:  b,
		CacheTTL:    12 * time.Second,
		MaxGasPrice: new(big.Int).Mul(big.NewInt(500), big.NewInt(1e9)),
	}
}

type gasOracleMetrics struct {
	gasPriceFetches metric.Int64Counter
	gasPriceGwei    metric.Float64Gauge
	cacheHits       metric.Int64Counter
}

// GasOracle prices gas for one chain. Prices are cached for CacheTTL and
// concurrent misses share one RPC round trip.
type GasOracle struct {
	config GasOracleConfig
	client EthClient
	logger logger.LoggerInterface

	priceCache *cache.Cache[string, *domain.GasPrice]
	cb         *circuitbreaker.CircuitBreaker[*domain.GasPrice]

	tracer  trace.Tracer
	metrics *gasOracleMetrics
}

// NewGasOracle creates a new gas oracle instance.
func NewGasOracle(cfg GasOracleConfig, client EthClient, log logger.LoggerInterface) (*GasOracle, error) {
	g := &GasOracle{
		config:     cfg,
		client:     client,
		logger:     log,
		priceCache: cache.New[string, *domain.GasPrice](time.Minute),
		tracer:     otel.Tracer(tracerName),
	}

	if err := g.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("gas-oracle-" + string(cfg.Blockchain))
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "gas oracle circuit state changed", "name", name, "from", from.String(), "to", to.String())
	}
	g.cb = circuitbreaker.New[*domain.GasPrice](cbCfg)

	return g, nil
}

func (g *GasOracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	g.metrics = &gasOracleMetrics{}

	g.metrics.gasPriceFetches, err = meter.Int64Counter(
		"gas_price_fetches_total",
		metric.WithDescription("Gas price RPC fetches"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	g.metrics.gasPriceGwei, err = meter.Float64Gauge(
		"gas_price_gwei",
		metric.WithDescription("Current gas price in gwei"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheHits, err = meter.Int64Counter(
		"gas_cache_hits_total",
		metric.WithDescription("Gas price cache hits"),
		metric.WithUnit("{hit}"),
	)
	return err
}

// GetGasPrice returns the cached price or fetches a fresh one. Chains whose
// latest header carries a base fee get an EIP-1559 price.
func (g *GasOracle) GetGasPrice(ctx context.Context) (*domain.GasPrice, error) {
	chainAttr := attribute.String("blockchain", string(g.config.Blockchain))
	ctx, span := g.tracer.Start(ctx, "gas.get_price", trace.WithAttributes(chainAttr))
	defer span.End()

	if price, ok := g.priceCache.Get(ctx, "current"); ok {
		g.metrics.cacheHits.Add(ctx, 1, metric.WithAttributes(chainAttr))
		span.AddEvent("cache_hit")
		return price, nil
	}

	price, err := g.priceCache.GetOrLoad(ctx, "current", g.config.CacheTTL, func(ctx context.Context) (*domain.GasPrice, error) {
		g.metrics.gasPriceFetches.Add(ctx, 1, metric.WithAttributes(chainAttr))
		return g.cb.Execute(func() (*domain.GasPrice, error) {
			return g.fetch(ctx)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.New(apperror.CodeChainRPCError,
			apperror.WithCause(err),
			apperror.WithContext("failed to get gas price"))
	}

	g.metrics.gasPriceGwei.Record(ctx, price.Gwei(), metric.WithAttributes(chainAttr))
	span.SetAttributes(attribute.Float64("gwei", price.Gwei()), attribute.Bool("eip1559", price.IsEIP1559()))
	span.SetStatus(codes.Ok, "fetched")

	return price, nil
}

func (g *GasOracle) fetch(ctx context.Context) (*domain.GasPrice, error) {
	head, err := g.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}

	var price *domain.GasPrice
	if head.BaseFee != nil {
		tip, err := g.client.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, err
		}
		price = domain.NewEIP1559GasPrice(head.BaseFee, tip)
	} else {
		wei, err := g.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, err
		}
		price = domain.NewLegacyGasPrice(wei)
	}

	if max := g.config.MaxGasPrice; max != nil && price.Legacy.Cmp(max) > 0 {
		g.logger.Warn(ctx, "gas price exceeds max, capping",
			"blockchain", string(g.config.Blockchain), "wei", price.Legacy.String())
		price.Legacy = new(big.Int).Set(max)
		if price.MaxFeePerGas != nil && price.MaxFeePerGas.Cmp(max) > 0 {
			price.MaxFeePerGas = new(big.Int).Set(max)
		}
	}
	return price, nil
}

// CalculateGasData prices gasLimit at the current gas price.
func (g *GasOracle) CalculateGasData(ctx context.Context, gasLimit uint64) (*domain.GasData, error) {
	price, err := g.GetGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewGasData(gasLimit, price), nil
}

// Close stops the cache janitor.
func (g *GasOracle) Close() {
	g.priceCache.Close()
}
