// Package bctest wires fake EVM clients into a chain service for tests of
// code that quotes against chains.
package bctest

import (
	"io"
	"testing"

	bcapp "github.com/fd1az/swap-aggregator/business/blockchain/app"
	"github.com/fd1az/swap-aggregator/business/blockchain/infra/evm"
	"github.com/fd1az/swap-aggregator/business/blockchain/infra/evm/evmtest"
	"github.com/fd1az/swap-aggregator/internal/logger"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// Logger discards everything below error.
func Logger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

// Chains registers one public adapter per client.
func Chains(t *testing.T, clients map[token.Blockchain]*evmtest.Client) *bcapp.BlockchainService {
	t.Helper()
	svc := bcapp.NewBlockchainService()
	for b, client := range clients {
		p, err := evm.NewPublic(evm.DefaultPublicConfig(b, "http://unused"), client, Logger())
		if err != nil {
			t.Fatalf("NewPublic(%s) error = %v", b, err)
		}
		svc.RegisterPublic(b, p, nil)
	}
	return svc
}
