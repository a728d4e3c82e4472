package crosschain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fd1az/swap-aggregator/business/crosschain/infra/taiko"
	"github.com/fd1az/swap-aggregator/internal/token"
)

func TestChainAddresses(t *testing.T) {
	contracts := map[string]string{
		"eth":       "0x01",
		"base":      "0x02",
		"eth_vault": "0x03",
		"mars":      "0x04",
		"arbitrum":  "",
	}

	assert.Equal(t, map[token.Blockchain]string{token.Ethereum: "0x01", token.Base: "0x02"}, chainAddresses(contracts, ""))
	assert.Equal(t, map[token.Blockchain]string{token.Ethereum: "0x03"}, chainAddresses(contracts, vaultSuffix))
}

func TestTaikoDeployments(t *testing.T) {
	got := taikoDeployments(map[string]string{
		"eth":         "0xbridge",
		"taiko_vault": "0xvault",
	})

	assert.Equal(t, map[token.Blockchain]taiko.Deployment{
		token.Ethereum: {Bridge: "0xbridge"},
		token.Taiko:    {Vault: "0xvault"},
	}, got)
}
