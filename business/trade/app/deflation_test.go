package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/config"
	"github.com/fd1az/swap-aggregator/internal/token"
)

func TestParseDeflationList(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		wantErr bool
	}{
		{"empty", nil, false},
		{"lower case chain", []string{"eth: " + token.AddrUSDCEthereum}, false},
		{"missing separator", []string{token.AddrUSDCEthereum}, true},
		{"bad address", []string{"ETH:0x1234"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDeflationList(tt.entries)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, len(tt.entries))
		})
	}
}

func TestStaticDeflation_IsDeflationary(t *testing.T) {
	list, err := ParseDeflationList([]string{"ETH:" + token.AddrUSDCEthereum})
	require.NoError(t, err)

	yes, err := list.IsDeflationary(context.Background(), token.USDC)
	require.NoError(t, err)
	assert.True(t, yes)

	no, err := list.IsDeflationary(context.Background(), token.USDCBase)
	require.NoError(t, err)
	assert.False(t, no)
}

func TestApplyDefaults(t *testing.T) {
	cfg := config.SwapConfig{SlippageTolerance: 0.02, DeadlineMinutes: 20, GasCalculation: true}

	got := ApplyDefaults(domain.CalculationOptions{}, cfg)
	assert.Equal(t, 0.02, got.SlippageTolerance)
	assert.Equal(t, 20, got.Deadline)
	assert.Equal(t, domain.GasCalculationEnabled, got.GasCalculation)

	kept := ApplyDefaults(domain.CalculationOptions{SlippageTolerance: 0.005, GasCalculation: domain.GasCalculationDisabled}, cfg)
	assert.Equal(t, 0.005, kept.SlippageTolerance)
	assert.Equal(t, domain.GasCalculationDisabled, kept.GasCalculation)
}
