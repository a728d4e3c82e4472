// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/fd1az/swap-aggregator/business/blockchain/app"
	"github.com/fd1az/swap-aggregator/internal/di"
)

// Public service tokens - exposed to other modules
var (
	BlockchainService = di.NewToken[*app.BlockchainService]("blockchain.BlockchainService")
)

// GetBlockchainService is the type-safe accessor.
func GetBlockchainService(c di.ServiceRegistry) *app.BlockchainService {
	return di.GetToken(c, BlockchainService)
}
