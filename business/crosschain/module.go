// Package crosschain implements the bridge bounded context: bridge
// providers, the leg composer and the cross-chain manager.
package crosschain

import (
	"context"
	"strings"

	blockchainDI "github.com/fd1az/swap-aggregator/business/blockchain/di"
	"github.com/fd1az/swap-aggregator/business/crosschain/app"
	crosschainDI "github.com/fd1az/swap-aggregator/business/crosschain/di"
	"github.com/fd1az/swap-aggregator/business/crosschain/infra/celer"
	"github.com/fd1az/swap-aggregator/business/crosschain/infra/debridge"
	"github.com/fd1az/swap-aggregator/business/crosschain/infra/eddy"
	"github.com/fd1az/swap-aggregator/business/crosschain/infra/meson"
	"github.com/fd1az/swap-aggregator/business/crosschain/infra/symbiosis"
	"github.com/fd1az/swap-aggregator/business/crosschain/infra/taiko"
	onchainDI "github.com/fd1az/swap-aggregator/business/onchain/di"
	tradeapp "github.com/fd1az/swap-aggregator/business/trade/app"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/config"
	"github.com/fd1az/swap-aggregator/internal/di"
	"github.com/fd1az/swap-aggregator/internal/httpclient"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/monolith"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// vaultSuffix marks Taiko vault addresses in providers.taiko.contracts.
const vaultSuffix = "_vault"

// Module implements the cross-chain bounded context.
type Module struct{}

// RegisterServices registers the manager with every enabled bridge.
// Registration order is the tie-break order of equal quotes.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, crosschainDI.CrossChainManager, func(sr di.ServiceRegistry) *app.Manager {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		chains := blockchainDI.GetBlockchainService(sr)

		legCalc, err := tradeapp.NewCalculator("crosschain-legs", cfg.Swap.ProviderTimeout, log)
		if err != nil {
			panic("failed to create calculator: " + err.Error())
		}
		composer := app.NewComposer(onchainDI.GetOnChainManager(sr).Providers(), legCalc)

		deflation, err := tradeapp.ParseDeflationList(cfg.Swap.DeflationaryTokens)
		if err != nil {
			panic("invalid swap.deflationary_tokens: " + err.Error())
		}
		proxy, err := tradeapp.FeeProxyFromConfig(cfg.Swap)
		if err != nil {
			panic("invalid swap.proxy_contracts: " + err.Error())
		}

		client := func(name, url string) httpclient.Client {
			hc, err := httpclient.ForProvider(name, url, cfg.HTTP)
			if err != nil {
				panic("failed to create " + name + " client: " + err.Error())
			}
			return hc
		}

		var providers []domain.Provider
		if pc := cfg.Provider(config.ProviderSymbiosis); pc.Enabled && pc.APIURL != "" {
			providers = append(providers, symbiosis.NewProvider(symbiosis.NewClient(client("symbiosis", pc.APIURL)), symbiosis.Config{
				Fee:      tradeapp.NewFeePolicy(proxy, pc),
				GasLimit: cfg.Gas.DefaultGasLimit,
			}, chains, log))
		}
		if pc := cfg.Provider(config.ProviderCeler); pc.Enabled && pc.APIURL != "" {
			contracts := celer.Contracts(chainAddresses(pc.Contracts, ""))
			if len(contracts) < 2 {
				log.Warn(context.Background(), "celer needs router contracts on two chains", "configured", len(contracts))
			} else {
				providers = append(providers, celer.NewProvider(celer.NewClient(client("celer", pc.APIURL)), composer, contracts, celer.Config{
					Fee:      tradeapp.NewFeePolicy(proxy, pc),
					GasLimit: cfg.Gas.DefaultGasLimit,
				}, chains, log))
			}
		}
		if pc := cfg.Provider(config.ProviderDeBridge); pc.Enabled && pc.APIURL != "" {
			statusURL := pc.StatusURL
			if statusURL == "" {
				statusURL = pc.APIURL
			}
			providers = append(providers, debridge.NewProvider(
				debridge.NewClient(client("debridge", pc.APIURL)),
				debridge.NewStatusClient(client("debridge-status", statusURL)),
				deflation,
				debridge.Config{
					Slippage:  pc.DefaultSlippage,
					GasLimit:  cfg.Gas.DefaultGasLimit,
					Fee:       tradeapp.NewFeePolicy(proxy, pc),
					Contracts: chainAddresses(pc.Contracts, ""),
				}, chains, log))
		}
		if pc := cfg.Provider(config.ProviderMeson); pc.Enabled && pc.APIURL != "" {
			providers = append(providers, meson.NewProvider(meson.NewClient(client("meson", pc.APIURL)), meson.Config{
				Fee:      tradeapp.NewFeePolicy(proxy, pc),
				GasLimit: cfg.Gas.DefaultGasLimit,
			}, chains, log))
		}
		if pc := cfg.Provider(config.ProviderTaiko); pc.Enabled {
			providers = append(providers, taiko.NewProvider(taiko.Config{
				TxGasLimit:  cfg.Gas.DefaultGasLimit,
				Deployments: taikoDeployments(pc.Contracts),
			}, chains, log))
		}

		if pc := cfg.Provider(config.ProviderEddy); pc.Enabled {
			if p, ok := eddyProvider(pc, proxy, cfg, chains, log, client); ok {
				providers = append(providers, p)
			}
		}

		calc, err := tradeapp.NewCalculator("crosschain", cfg.Swap.ProviderTimeout, log)
		if err != nil {
			panic("failed to create calculator: " + err.Error())
		}
		return app.NewManager(providers, calc, cfg.Swap)
	})

	return nil
}

// eddyProvider reads providers.eddy.contracts: zetachain is the Eddy
// contract, zetachain_router the DEX router and eth or bsc override the TSS
// address. Without the Eddy contract the bridge is left out.
func eddyProvider(pc config.ProviderConfig, proxy *tradeapp.FeeProxy, cfg *config.Config, chains tradeapp.Chains, log logger.LoggerInterface, client func(name, url string) httpclient.Client) (*eddy.Provider, bool) {
	contract, ok := pc.Contract("zetachain")
	if !ok {
		log.Warn(context.Background(), "eddy needs providers.eddy.contracts.zetachain")
		return nil, false
	}
	router, _ := pc.Contract("zetachain_router")
	tss := chainAddresses(pc.Contracts, "")
	delete(tss, token.ZetaChain)

	var status *eddy.Client
	if pc.StatusURL != "" {
		status = eddy.NewClient(client("eddy-status", pc.StatusURL))
	}
	return eddy.NewProvider(status, eddy.Config{
		Contract: contract,
		Router:   router,
		TSS:      tss,
		Fee:      tradeapp.NewFeePolicy(proxy, pc),
		GasLimit: cfg.Gas.DefaultGasLimit,
	}, chains, log), true
}

// chainAddresses converts contract keys with the given suffix to chains.
// Unknown chain keys are dropped.
func chainAddresses(contracts map[string]string, suffix string) map[token.Blockchain]string {
	out := make(map[token.Blockchain]string, len(contracts))
	for key, addr := range contracts {
		name, ok := strings.CutSuffix(key, suffix)
		if !ok || (suffix == "" && strings.HasSuffix(key, vaultSuffix)) {
			continue
		}
		b, err := token.ParseBlockchain(name)
		if err != nil || addr == "" {
			continue
		}
		out[b] = addr
	}
	return out
}

func taikoDeployments(contracts map[string]string) map[token.Blockchain]taiko.Deployment {
	out := make(map[token.Blockchain]taiko.Deployment)
	for b, addr := range chainAddresses(contracts, "") {
		d := out[b]
		d.Bridge = addr
		out[b] = d
	}
	for b, addr := range chainAddresses(contracts, vaultSuffix) {
		d := out[b]
		d.Vault = addr
		out[b] = d
	}
	return out
}

// Startup resolves the manager so misconfiguration surfaces at boot.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	manager := crosschainDI.GetCrossChainManager(mono.Services())

	names := make([]string, 0, len(manager.Providers()))
	for _, p := range manager.Providers() {
		names = append(names, p.Type().String())
	}
	mono.Logger().Info(ctx, "crosschain module started", "providers", strings.Join(names, ","))
	return nil
}
