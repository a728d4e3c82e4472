package httpclient

import (
	"github.com/fd1az/swap-aggregator/internal/config"
	"github.com/fd1az/swap-aggregator/internal/ratelimit"
)

// ForProvider builds the client a provider integration talks to its API
// with: base URL, timeout, retries and a per-provider rate limit from cfg.
func ForProvider(name, baseURL string, cfg config.HTTPConfig, opts ...ClientOption) (Client, error) {
	base := []ClientOption{
		WithProviderName(name),
		WithBaseURL(baseURL),
		WithRetry(RetryPolicy{Max: cfg.RetryMax, WaitMin: cfg.RetryWaitMin, WaitMax: cfg.RetryWaitMax}),
		WithRateLimiter(ratelimit.NewWithBurst(cfg.RateLimitRPS, cfg.RateLimitBurst)),
	}
	if cfg.Timeout > 0 {
		base = append(base, WithRequestTimeout(cfg.Timeout))
	}
	return NewInstrumentedClient(append(base, opts...)...)
}
