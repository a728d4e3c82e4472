// Package di contains dependency injection tokens for the on-chain context.
package di

import (
	"github.com/fd1az/swap-aggregator/business/onchain/app"
	"github.com/fd1az/swap-aggregator/internal/di"
)

// Public service tokens - exposed to other modules
var (
	OnChainManager = di.NewToken[*app.Manager]("onchain.Manager")
)

// GetOnChainManager is the type-safe accessor.
func GetOnChainManager(c di.ServiceRegistry) *app.Manager {
	return di.GetToken(c, OnChainManager)
}
