// Package di contains dependency injection tokens for the cross-chain context.
package di

import (
	"github.com/fd1az/swap-aggregator/business/crosschain/app"
	"github.com/fd1az/swap-aggregator/internal/di"
)

// Public service tokens - exposed to other modules
var (
	CrossChainManager = di.NewToken[*app.Manager]("crosschain.Manager")
)

// GetCrossChainManager is the type-safe accessor.
func GetCrossChainManager(c di.ServiceRegistry) *app.Manager {
	return di.GetToken(c, CrossChainManager)
}
