package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gas.Margin != 1.15 {
		t.Errorf("gas.margin = %v, want 1.15", cfg.Gas.Margin)
	}
	if cfg.Swap.ProviderTimeout != 15*time.Second {
		t.Errorf("swap.provider_timeout = %v", cfg.Swap.ProviderTimeout)
	}
	if url, ok := cfg.RPCURL("ETH"); !ok || url == "" {
		t.Error("expected a default eth rpc url")
	}
	if !cfg.Provider(ProviderCeler).UseProxy {
		t.Error("celer should default to proxy fees")
	}
	if !cfg.Provider(ProviderMeson).UseProxy || !cfg.Provider(ProviderUniswapV2).UseProxy {
		t.Error("meson and uniswap_v2 should default to proxy fees")
	}
	if len(cfg.Swap.ProxyContracts) != 0 {
		t.Errorf("no fee gateway is configured by default: %v", cfg.Swap.ProxyContracts)
	}
	if cfg.Provider(ProviderDeBridge).UseProxy {
		t.Error("debridge should default to no proxy")
	}
	if eddy := cfg.Provider(ProviderEddy); eddy.UseProxy || eddy.StatusURL == "" {
		t.Errorf("eddy defaults = %+v", eddy)
	}
	if cfg.Provider("unknown").Enabled {
		t.Error("unknown provider must be disabled")
	}
}

func TestLoad_EnvOverridesChainURL(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SWAP_BASE_RPC_URL", "http://localhost:8545")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if url, _ := cfg.RPCURL("base"); url != "http://localhost:8545" {
		t.Errorf("base rpc = %q", url)
	}
}

func TestLoad_FileAndValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte("swap:\n  slippage_tolerance: 1.5\n")
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for slippage > 1")
	}
}
