package app

import (
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/config"
)

// ApplyDefaults fills the options a caller left unset from the swap config.
// A zero slippage counts as unset.
func ApplyDefaults(opts domain.CalculationOptions, cfg config.SwapConfig) domain.CalculationOptions {
	if opts.SlippageTolerance == 0 {
		opts.SlippageTolerance = cfg.SlippageTolerance
	}
	if opts.Deadline == 0 {
		opts.Deadline = cfg.DeadlineMinutes
	}
	if opts.GasCalculation == "" {
		opts.GasCalculation = domain.GasCalculationDisabled
		if cfg.GasCalculation {
			opts.GasCalculation = domain.GasCalculationEnabled
		}
	}
	if opts.Timeout == 0 {
		opts.Timeout = cfg.ProviderTimeout
	}
	return opts
}
