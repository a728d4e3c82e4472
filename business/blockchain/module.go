// Package blockchain implements the chain abstraction bounded context.
package blockchain

import (
	"context"
	"math/big"
	"strings"

	"github.com/fd1az/swap-aggregator/business/blockchain/app"
	blockchainDI "github.com/fd1az/swap-aggregator/business/blockchain/di"
	"github.com/fd1az/swap-aggregator/business/blockchain/infra/evm"
	"github.com/fd1az/swap-aggregator/internal/config"
	"github.com/fd1az/swap-aggregator/internal/di"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/monolith"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers the adapter registry. One public adapter is
// dialled per configured EVM chain; private adapters are added when a wallet
// key is configured.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, blockchainDI.BlockchainService, func(sr di.ServiceRegistry) *app.BlockchainService {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		svc := app.NewBlockchainService()

		var signer evm.Signer
		if key := strings.TrimSpace(cfg.Wallet.PrivateKey); key != "" {
			s, err := evm.NewKeySigner(key)
			if err != nil {
				panic("invalid wallet.private_key: " + err.Error())
			}
			signer = s
		}

		for name, chain := range cfg.Chains {
			b, err := token.ParseBlockchain(name)
			if err != nil || !b.IsEVM() || chain.RPCURL == "" {
				log.Warn(context.Background(), "skipping chain", "chain", name)
				continue
			}

			pubCfg := evm.DefaultPublicConfig(b, chain.RPCURL)
			if chain.MulticallAddress != "" {
				pubCfg.MulticallAddress = chain.MulticallAddress
			}
			pubCfg.GasMargin = cfg.Gas.Margin
			if cfg.Gas.CacheTTL > 0 {
				pubCfg.Gas.CacheTTL = cfg.Gas.CacheTTL
			}
			if cfg.Gas.MaxGasPriceGwei > 0 {
				pubCfg.Gas.MaxGasPrice = new(big.Int).Mul(big.NewInt(cfg.Gas.MaxGasPriceGwei), big.NewInt(1e9))
			}

			pub, closer, err := evm.DialPublic(context.Background(), pubCfg, log)
			if err != nil {
				log.Error(context.Background(), "failed to dial chain", "chain", name, "error", err)
				continue
			}
			svc.RegisterPublic(b, pub, closer)

			if signer == nil {
				continue
			}
			priv, err := evm.NewPrivate(pub, signer, evm.PrivateConfig{
				DefaultGasLimit:     cfg.Gas.DefaultGasLimit,
				ReceiptTimeout:      cfg.Gas.ReceiptTimeout,
				ReceiptPollInterval: cfg.Gas.ReceiptPollInterval,
			})
			if err != nil {
				panic("failed to create private adapter: " + err.Error())
			}
			svc.RegisterPrivate(b, priv)
		}

		return svc
	})

	return nil
}

// Startup resolves the registry, so dial errors surface at boot, and hooks
// client shutdown into the monolith.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	svc := blockchainDI.GetBlockchainService(mono.Services())
	mono.OnClose(svc.Close)

	chains := svc.Blockchains()
	names := make([]string, len(chains))
	for i, b := range chains {
		names[i] = string(b)
	}
	log.Info(ctx, "blockchain module started", "chains", strings.Join(names, ","))
	return nil
}
