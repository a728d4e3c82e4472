package token

// Well-known token addresses.
const (
	AddrWETHEthereum = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	AddrUSDCEthereum = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	AddrUSDTEthereum = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
	AddrDAIEthereum  = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
	AddrWBTCEthereum = "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"

	AddrWBNB    = "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"
	AddrUSDTBSC = "0x55d398326f99059fF775485246999027B3197955"
	AddrUSDCBSC = "0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d"
	AddrBUSDBSC = "0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56"

	AddrWMATIC      = "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270"
	AddrUSDCPolygon = "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"
	AddrUSDTPolygon = "0xc2132D05D31c914a87C6611C10748AEb04B58e8F"
	AddrWETHPolygon = "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619"

	AddrWETHArbitrum = "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"
	AddrUSDCArbitrum = "0xaf88d065e77c8cC2239327C5EDb3A432268e5831"
	AddrUSDTArbitrum = "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9"

	AddrWETHOptimism = "0x4200000000000000000000000000000000000006"
	AddrUSDCOptimism = "0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85"
	AddrUSDTOptimism = "0x94b008aA00579c1307B0EF2c499aD98a8ce58e58"

	AddrWAVAX         = "0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7"
	AddrUSDCAvalanche = "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"
	AddrUSDTAvalanche = "0x9702230A8Ea53601f5cD2dc00fDBc13d4dF4A8c7"

	AddrWETHBase  = "0x4200000000000000000000000000000000000006"
	AddrUSDCBase  = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	AddrUSDbCBase = "0xd9aAEc86B65D86f6A7B5B1b0c42FFA531710b6CA"

	AddrWETHLinea = "0xe5D7C2a44FfDDf6b295A15c148167daaAf5Cf34f"
	AddrUSDCLinea = "0x176211869cA2b568f2A7D4EE941E073a821EE1ff"

	AddrWZETA      = "0x5F0b1a82749cb4E2278EC87F8BF6B618dC71a8bf"
	AddrWETHTaiko  = "0x0011E559da84dde3f841e22dc33F3adbF184D84A"
	AddrWETHScroll = "0x5300000000000000000000000000000000000004"
)

// Well-known tokens.
var (
	WETH = MustNewToken(Ethereum, AddrWETHEthereum, "WETH", "Wrapped Ether", 18)
	USDC = MustNewToken(Ethereum, AddrUSDCEthereum, "USDC", "USD Coin", 6)
	USDT = MustNewToken(Ethereum, AddrUSDTEthereum, "USDT", "Tether USD", 6)
	DAI  = MustNewToken(Ethereum, AddrDAIEthereum, "DAI", "Dai Stablecoin", 18)
	WBTC = MustNewToken(Ethereum, AddrWBTCEthereum, "WBTC", "Wrapped Bitcoin", 8)

	WBNB    = MustNewToken(BSC, AddrWBNB, "WBNB", "Wrapped BNB", 18)
	USDTBSC = MustNewToken(BSC, AddrUSDTBSC, "USDT", "Tether USD", 18)
	USDCBSC = MustNewToken(BSC, AddrUSDCBSC, "USDC", "USD Coin", 18)
	BUSDBSC = MustNewToken(BSC, AddrBUSDBSC, "BUSD", "Binance USD", 18)

	WMATIC      = MustNewToken(Polygon, AddrWMATIC, "WMATIC", "Wrapped Matic", 18)
	USDCPolygon = MustNewToken(Polygon, AddrUSDCPolygon, "USDC", "USD Coin", 6)
	USDTPolygon = MustNewToken(Polygon, AddrUSDTPolygon, "USDT", "Tether USD", 6)
	WETHPolygon = MustNewToken(Polygon, AddrWETHPolygon, "WETH", "Wrapped Ether", 18)

	WETHArbitrum = MustNewToken(Arbitrum, AddrWETHArbitrum, "WETH", "Wrapped Ether", 18)
	USDCArbitrum = MustNewToken(Arbitrum, AddrUSDCArbitrum, "USDC", "USD Coin", 6)
	USDTArbitrum = MustNewToken(Arbitrum, AddrUSDTArbitrum, "USDT", "Tether USD", 6)

	WETHOptimism = MustNewToken(Optimism, AddrWETHOptimism, "WETH", "Wrapped Ether", 18)
	USDCOptimism = MustNewToken(Optimism, AddrUSDCOptimism, "USDC", "USD Coin", 6)
	USDTOptimism = MustNewToken(Optimism, AddrUSDTOptimism, "USDT", "Tether USD", 6)

	WAVAX         = MustNewToken(Avalanche, AddrWAVAX, "WAVAX", "Wrapped AVAX", 18)
	USDCAvalanche = MustNewToken(Avalanche, AddrUSDCAvalanche, "USDC", "USD Coin", 6)
	USDTAvalanche = MustNewToken(Avalanche, AddrUSDTAvalanche, "USDT", "Tether USD", 6)

	WETHBase  = MustNewToken(Base, AddrWETHBase, "WETH", "Wrapped Ether", 18)
	USDCBase  = MustNewToken(Base, AddrUSDCBase, "USDC", "USD Coin", 6)
	USDbCBase = MustNewToken(Base, AddrUSDbCBase, "USDbC", "USD Base Coin", 6)

	WETHLinea = MustNewToken(Linea, AddrWETHLinea, "WETH", "Wrapped Ether", 18)
	USDCLinea = MustNewToken(Linea, AddrUSDCLinea, "USDC", "USD Coin", 6)

	WZETA      = MustNewToken(ZetaChain, AddrWZETA, "WZETA", "Wrapped Zeta", 18)
	WETHTaiko  = MustNewToken(Taiko, AddrWETHTaiko, "WETH", "Wrapped Ether", 18)
	WETHScroll = MustNewToken(Scroll, AddrWETHScroll, "WETH", "Wrapped Ether", 18)
)

// WrappedNative returns the wrapped native token of b.
func WrappedNative(b Blockchain) (Token, bool) {
	switch b {
	case Ethereum:
		return WETH, true
	case BSC:
		return WBNB, true
	case Polygon:
		return WMATIC, true
	case Arbitrum:
		return WETHArbitrum, true
	case Optimism:
		return WETHOptimism, true
	case Avalanche:
		return WAVAX, true
	case Base:
		return WETHBase, true
	case Linea:
		return WETHLinea, true
	case ZetaChain:
		return WZETA, true
	case Taiko:
		return WETHTaiko, true
	case Scroll:
		return WETHScroll, true
	}
	return Token{}, false
}

// DefaultRoutingTokens returns a fresh copy of the transit tokens tried by
// path search on each chain.
func DefaultRoutingTokens() map[Blockchain][]Token {
	return map[Blockchain][]Token{
		Ethereum:  {WETH, USDC, USDT, DAI, WBTC},
		BSC:       {WBNB, USDTBSC, BUSDBSC, USDCBSC},
		Polygon:   {WMATIC, USDCPolygon, USDTPolygon, WETHPolygon},
		Arbitrum:  {WETHArbitrum, USDCArbitrum, USDTArbitrum},
		Optimism:  {WETHOptimism, USDCOptimism, USDTOptimism},
		Avalanche: {WAVAX, USDCAvalanche, USDTAvalanche},
		Base:      {WETHBase, USDCBase, USDbCBase},
		Linea:     {WETHLinea, USDCLinea},
	}
}

// DefaultRegistry returns a registry pre-populated with well-known tokens
// and every chain's native coin.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for b := range nativeSymbols {
		r.Register(Native(b))
	}
	seen := make(map[Key]bool)
	for _, tokens := range DefaultRoutingTokens() {
		for _, t := range tokens {
			if seen[t.Key()] {
				continue
			}
			seen[t.Key()] = true
			r.Register(t)
		}
	}
	for _, t := range []Token{WZETA, WETHTaiko, WETHScroll} {
		r.Register(t)
	}
	return r
}
