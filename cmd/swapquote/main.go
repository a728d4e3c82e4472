// Package main is the entry point of the swap quote CLI.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/swap-aggregator/business/blockchain"
	blockchainDI "github.com/fd1az/swap-aggregator/business/blockchain/di"
	"github.com/fd1az/swap-aggregator/business/crosschain"
	crosschainDI "github.com/fd1az/swap-aggregator/business/crosschain/di"
	"github.com/fd1az/swap-aggregator/business/onchain"
	onchainDI "github.com/fd1az/swap-aggregator/business/onchain/di"
	"github.com/fd1az/swap-aggregator/business/pricing"
	pricingDI "github.com/fd1az/swap-aggregator/business/pricing/di"
	"github.com/fd1az/swap-aggregator/internal/apm"
	"github.com/fd1az/swap-aggregator/internal/config"
	"github.com/fd1az/swap-aggregator/internal/health"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/metrics"
	"github.com/fd1az/swap-aggregator/internal/monolith"
	"github.com/fd1az/swap-aggregator/pkg/ui"
	"github.com/fd1az/swap-aggregator/pkg/ui/components"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type flags struct {
	configPath string
	req        request
	watch      bool
	interval   time.Duration
	encode     bool
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&f.req.fromChain, "from-chain", "eth", "Source blockchain")
	flag.StringVar(&f.req.fromToken, "from", "native", "Source token address or symbol")
	flag.StringVar(&f.req.toChain, "to-chain", "", "Destination blockchain (defaults to -from-chain)")
	flag.StringVar(&f.req.toToken, "to", "", "Destination token address or symbol")
	flag.StringVar(&f.req.amount, "amount", "1", "Input amount in token units")
	flag.StringVar(&f.req.fromAddress, "from-address", "", "Wallet that sends the trade")
	flag.StringVar(&f.req.receiver, "receiver", "", "Receiver on the destination chain (defaults to -from-address)")
	flag.Float64Var(&f.req.slippage, "slippage", 0, "Slippage tolerance as a fraction (0 uses the configured default)")
	flag.BoolVar(&f.req.gas, "gas", false, "Estimate gas for every quote")
	flag.BoolVar(&f.watch, "watch", false, "Re-quote on an interval in a terminal UI")
	flag.DurationVar(&f.interval, "interval", 15*time.Second, "Re-quote interval for -watch")
	flag.BoolVar(&f.encode, "encode", false, "Print the best trade's transaction as JSON (needs -from-address)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("swapquote %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}
	if f.req.toChain == "" {
		f.req.toChain = f.req.fromChain
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, f); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	if err := f.req.validate(); err != nil {
		return err
	}
	if f.encode && f.req.fromAddress == "" {
		return errors.New("-encode needs -from-address")
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	// The TUI owns the terminal; logs would tear it.
	var out io.Writer = os.Stderr
	if f.watch {
		out = io.Discard
	}
	log := logger.New(out, logLevel, cfg.App.Name, nil)
	log.Info(ctx, "starting swapquote", "version", version, "environment", cfg.App.Environment)

	if cfg.Telemetry.Enabled {
		traceProvider := apm.NewTraceProvider(log,
			apm.WithProvider(apm.ParseProvider(cfg.Telemetry.Exporter)),
			apm.WithEndpoint(cfg.Telemetry.OTLPEndpoint),
			apm.WithHeaders(cfg.Telemetry.OTLPHeaders),
			apm.WithServiceName(cfg.Telemetry.ServiceName),
		)
		defer traceProvider.Stop()

		mp, err := metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.NewPrometheusConfig()),
		)
		if err != nil {
			log.Warn(ctx, "metrics disabled", "error", err)
		} else {
			defer mp.Shutdown(context.Background())

			port := cfg.Telemetry.PrometheusPort
			if port == 0 {
				port = 9090
			}
			promServer := metrics.NewPrometheusServer(log, nil, metrics.WithPort(strconv.Itoa(port)))
			promServer.Start()
			defer promServer.Stop(context.Background())
		}
	}

	mono := monolith.New(cfg, log)
	defer mono.Close()

	modules := []monolith.Module{
		&blockchain.Module{}, // Must be first - dials the chains
		&pricing.Module{},    // Token factory; depends on blockchain for metadata
		&onchain.Module{},    // Depends on blockchain
		&crosschain.Module{}, // Depends on blockchain and onchain (bridge legs)
	}
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	if cfg.Health.Enabled {
		healthServer := health.NewServer(cfg.Health.Port, version, log)
		chains := blockchainDI.GetBlockchainService(mono.Services())
		for _, b := range chains.Blockchains() {
			public, err := chains.Public(b)
			if err != nil {
				continue
			}
			healthServer.RegisterCheck("rpc:"+b.String(), health.ErrorCheck(func(ctx context.Context) error {
				_, err := public.GetChainID(ctx)
				return err
			}))
		}
		healthServer.Start()
		defer healthServer.Stop(context.Background())
	}

	q := &quoter{
		registry:   mono.TokenRegistry(),
		factory:    pricingDI.GetTokenFactory(mono.Services()),
		onchain:    onchainDI.GetOnChainManager(mono.Services()),
		crosschain: crosschainDI.GetCrossChainManager(mono.Services()),
	}

	switch {
	case f.watch:
		return ui.Run(ctx, f.req.title(), f.interval, func(ctx context.Context) ([]components.QuoteRow, error) {
			results, err := q.quote(ctx, f.req)
			if err != nil {
				return nil, err
			}
			return quoteRows(results), nil
		})

	case f.encode:
		results, err := q.quote(ctx, f.req)
		if err != nil {
			return err
		}
		encoded, err := encodeBest(ctx, results, f.req)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(encoded)

	default:
		results, err := q.quote(ctx, f.req)
		if err != nil {
			return err
		}
		rows := quoteRows(results)
		if len(rows) == 0 {
			return fmt.Errorf("no provider supports %s", f.req.title())
		}
		fmt.Println(ui.TitleStyle.Render(" " + f.req.title() + " "))
		fmt.Println(components.Table(rows, -1))
		return nil
	}
}
