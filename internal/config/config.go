// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider names used as keys under "providers".
const (
	ProviderUniswapV2 = "uniswap_v2"
	ProviderUniswapV3 = "uniswap_v3"
	ProviderAerodrome = "aerodrome"
	ProviderSymbiosis = "symbiosis"
	ProviderCeler     = "celer"
	ProviderDeBridge  = "debridge"
	ProviderMeson     = "meson"
	ProviderTaiko     = "taiko"
	ProviderEddy      = "eddy"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig                 `mapstructure:"app"`
	Chains    map[string]ChainConfig    `mapstructure:"chains"`
	Wallet    WalletConfig              `mapstructure:"wallet"`
	Swap      SwapConfig                `mapstructure:"swap"`
	Routing   RoutingConfig             `mapstructure:"routing"`
	Gas       GasConfig                 `mapstructure:"gas"`
	HTTP      HTTPConfig                `mapstructure:"http"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Pricing   PricingConfig             `mapstructure:"pricing"`
	Health    HealthConfig              `mapstructure:"health"`
	Telemetry TelemetryConfig           `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// ChainConfig holds a node endpoint. Keys under "chains" are lower-case
// blockchain names (eth, bsc, polygon, ...).
type ChainConfig struct {
	RPCURL           string `mapstructure:"rpc_url"`
	MulticallAddress string `mapstructure:"multicall_address"`
}

// WalletConfig holds the signing key. Only needed for swaps.
type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"`
}

// SwapConfig holds calculation defaults applied when a caller leaves an
// option unset.
type SwapConfig struct {
	SlippageTolerance float64       `mapstructure:"slippage_tolerance"`
	DeadlineMinutes   int           `mapstructure:"deadline_minutes"`
	GasCalculation    bool          `mapstructure:"gas_calculation"`
	ProviderTimeout   time.Duration `mapstructure:"provider_timeout"`
	// DeflationaryTokens are "CHAIN:address" entries of fee-on-transfer
	// tokens.
	DeflationaryTokens []string `mapstructure:"deflationary_tokens"`
	// ProxyContracts are the fee gateway addresses keyed by chain name.
	// Platform fees are only charged on chains listed here.
	ProxyContracts map[string]string `mapstructure:"proxy_contracts"`
}

// RoutingConfig bounds path search.
type RoutingConfig struct {
	MaxTransitTokens int `mapstructure:"max_transit_tokens"`
}

// GasConfig holds gas estimation and receipt polling settings.
type GasConfig struct {
	Margin              float64       `mapstructure:"margin"`
	DefaultGasLimit     uint64        `mapstructure:"default_gas_limit"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
	MaxGasPriceGwei     int64         `mapstructure:"max_gas_price_gwei"`
	ReceiptTimeout      time.Duration `mapstructure:"receipt_timeout"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval"`
}

// HTTPConfig holds provider API client settings.
type HTTPConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	RetryMax       int           `mapstructure:"retry_max"`
	RetryWaitMin   time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax   time.Duration `mapstructure:"retry_wait_max"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

// ProviderConfig holds per-provider settings. DefaultSlippage and UseProxy
// are the per-provider defaults for integrations that do not compute them.
type ProviderConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	APIURL             string  `mapstructure:"api_url"`
	StatusURL          string  `mapstructure:"status_url"`
	DefaultSlippage    float64 `mapstructure:"default_slippage"`
	UseProxy           bool    `mapstructure:"use_proxy"`
	PlatformFeePercent float64 `mapstructure:"platform_fee_percent"`
	// Contracts are provider contract addresses keyed by lower-case chain
	// name, e.g. providers.celer.contracts.eth.
	Contracts map[string]string `mapstructure:"contracts"`
}

// Contract returns the configured contract address on chain.
func (p ProviderConfig) Contract(chain string) (string, bool) {
	addr, ok := p.Contracts[strings.ToLower(chain)]
	return addr, ok && addr != ""
}

// PricingConfig holds the token price API settings.
type PricingConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	APIURL   string        `mapstructure:"api_url"`
	APIKey   string        `mapstructure:"api_key"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// FallbackURL is the Binance REST root used for native coin prices
	// when the price API fails. Empty disables the fallback.
	FallbackURL string `mapstructure:"fallback_url"`
}

// HealthConfig holds the health server settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Exporter       string `mapstructure:"exporter"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Provider returns the settings for name, or a disabled zero value.
func (c *Config) Provider(name string) ProviderConfig {
	return c.Providers[name]
}

// RPCURL returns the endpoint configured for a lower-case chain key.
func (c *Config) RPCURL(chain string) (string, bool) {
	cc, ok := c.Chains[strings.ToLower(chain)]
	if !ok || cc.RPCURL == "" {
		return "", false
	}
	return cc.RPCURL, true
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("SWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// defaultRPCURLs are public endpoints, fine for quoting, rate limited for
// anything heavier.
var defaultRPCURLs = map[string]string{
	"eth":       "https://eth.llamarpc.com",
	"bsc":       "https://bsc-dataseed.binance.org",
	"polygon":   "https://polygon-rpc.com",
	"arbitrum":  "https://arb1.arbitrum.io/rpc",
	"optimism":  "https://mainnet.optimism.io",
	"avalanche": "https://api.avax.network/ext/bc/C/rpc",
	"base":      "https://mainnet.base.org",
	"linea":     "https://rpc.linea.build",
	"zetachain": "https://zetachain-evm.blockpi.network/v1/rpc/public",
	"taiko":     "https://rpc.mainnet.taiko.xyz",
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "SWAP_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SWAP_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SWAP_LOG_LEVEL", "LOG_LEVEL")

	// Chains
	for chain := range defaultRPCURLs {
		env := strings.ToUpper(chain)
		v.BindEnv("chains."+chain+".rpc_url", "SWAP_"+env+"_RPC_URL", env+"_RPC_URL")
	}

	// Wallet
	v.BindEnv("wallet.private_key", "SWAP_PRIVATE_KEY", "PRIVATE_KEY")

	// Pricing
	v.BindEnv("pricing.api_key", "SWAP_PRICING_API_KEY", "COINGECKO_API_KEY")

	// Telemetry
	v.BindEnv("telemetry.enabled", "SWAP_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "SWAP_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.exporter", "SWAP_OTEL_EXPORTER")
	v.BindEnv("telemetry.otlp_endpoint", "SWAP_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "SWAP_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "swap-aggregator")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	for chain, url := range defaultRPCURLs {
		v.SetDefault("chains."+chain+".rpc_url", url)
	}

	// Swap defaults
	v.SetDefault("swap.slippage_tolerance", 0.02)
	v.SetDefault("swap.deadline_minutes", 20)
	v.SetDefault("swap.gas_calculation", true)
	v.SetDefault("swap.provider_timeout", "15s")

	v.SetDefault("routing.max_transit_tokens", 1)

	// Gas defaults
	v.SetDefault("gas.margin", 1.15)
	v.SetDefault("gas.default_gas_limit", 500000)
	v.SetDefault("gas.cache_ttl", "12s")
	v.SetDefault("gas.max_gas_price_gwei", 500)
	v.SetDefault("gas.receipt_timeout", "5m")
	v.SetDefault("gas.receipt_poll_interval", "2s")

	// HTTP defaults
	v.SetDefault("http.timeout", "10s")
	v.SetDefault("http.retry_max", 3)
	v.SetDefault("http.retry_wait_min", "500ms")
	v.SetDefault("http.retry_wait_max", "3s")
	v.SetDefault("http.rate_limit_rps", 10)
	v.SetDefault("http.rate_limit_burst", 20)

	// Providers
	for _, p := range []string{ProviderUniswapV2, ProviderUniswapV3, ProviderAerodrome, ProviderTaiko} {
		v.SetDefault("providers."+p+".enabled", true)
	}
	for _, p := range []string{ProviderUniswapV2, ProviderUniswapV3, ProviderAerodrome, ProviderSymbiosis, ProviderMeson} {
		v.SetDefault("providers."+p+".use_proxy", true)
	}
	v.SetDefault("providers.symbiosis.enabled", true)
	v.SetDefault("providers.symbiosis.api_url", "https://api.symbiosis.finance/crosschain")
	v.SetDefault("providers.celer.enabled", true)
	v.SetDefault("providers.celer.api_url", "https://cbridge-prod2.celer.network")
	v.SetDefault("providers.celer.use_proxy", true)
	v.SetDefault("providers.debridge.enabled", true)
	v.SetDefault("providers.debridge.api_url", "https://api.dln.trade/v1.0")
	v.SetDefault("providers.debridge.default_slippage", 0)
	v.SetDefault("providers.debridge.use_proxy", false)
	v.SetDefault("providers.meson.enabled", true)
	v.SetDefault("providers.meson.api_url", "https://relayer.meson.fi/api/v1")
	v.SetDefault("providers.eddy.enabled", true)
	v.SetDefault("providers.eddy.status_url", "https://zetachain.blockpi.network/lcd/v1/public")
	v.SetDefault("providers.eddy.use_proxy", false)

	// Pricing defaults
	v.SetDefault("pricing.enabled", true)
	v.SetDefault("pricing.api_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("pricing.cache_ttl", "1m")
	v.SetDefault("pricing.fallback_url", "https://api.binance.com")

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8081)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.exporter", "zipkin")
	v.SetDefault("telemetry.service_name", "swap-aggregator")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	hasChain := false
	for _, cc := range c.Chains {
		if cc.RPCURL != "" {
			hasChain = true
			break
		}
	}
	if !hasChain {
		return fmt.Errorf("at least one chains.<name>.rpc_url is required")
	}
	if c.Swap.SlippageTolerance < 0 || c.Swap.SlippageTolerance > 1 {
		return fmt.Errorf("swap.slippage_tolerance must be within [0, 1]: %v", c.Swap.SlippageTolerance)
	}
	if c.Swap.DeadlineMinutes <= 0 {
		return fmt.Errorf("swap.deadline_minutes must be positive")
	}
	if c.Routing.MaxTransitTokens < 0 {
		return fmt.Errorf("routing.max_transit_tokens cannot be negative")
	}
	if c.Gas.Margin < 1 {
		return fmt.Errorf("gas.margin must be >= 1: %v", c.Gas.Margin)
	}
	for name, p := range c.Providers {
		if p.DefaultSlippage < 0 || p.DefaultSlippage > 1 {
			return fmt.Errorf("providers.%s.default_slippage must be within [0, 1]", name)
		}
		if p.PlatformFeePercent < 0 || p.PlatformFeePercent >= 100 {
			return fmt.Errorf("providers.%s.platform_fee_percent must be within [0, 100)", name)
		}
	}
	return nil
}
