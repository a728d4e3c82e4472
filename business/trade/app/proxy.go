package app

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/config"
	"github.com/fd1az/swap-aggregator/internal/evmabi"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// FeeProxyABI is the fee gateway. routerCall pulls srcInputAmount from the
// sender (or takes it as value), keeps the platform fee for the integrator,
// approves gateway for the remainder and calls router with data.
var FeeProxyABI = evmabi.MustParse(`[
	{"name":"routerCall","type":"function","stateMutability":"payable",
	 "inputs":[
		{"name":"params","type":"tuple","components":[
			{"name":"srcInputToken","type":"address"},
			{"name":"srcInputAmount","type":"uint256"},
			{"name":"dstChainID","type":"uint256"},
			{"name":"dstOutputToken","type":"address"},
			{"name":"dstMinOutputAmount","type":"uint256"},
			{"name":"recipient","type":"address"},
			{"name":"integrator","type":"address"},
			{"name":"router","type":"address"}]},
		{"name":"gateway","type":"address"},
		{"name":"data","type":"bytes"}],
	 "outputs":[]}
]`)

// ProxyParams is the routerCall params tuple.
type ProxyParams struct {
	SrcInputToken      common.Address
	SrcInputAmount     *big.Int
	DstChainID         *big.Int
	DstOutputToken     common.Address
	DstMinOutputAmount *big.Int
	Recipient          common.Address
	Integrator         common.Address
	Router             common.Address
}

// FeeProxy knows the fee gateway deployed on each chain. A nil *FeeProxy has
// no gateways.
type FeeProxy struct {
	gateways map[token.Blockchain]string
}

// NewFeeProxy creates a proxy from gateway addresses per chain.
func NewFeeProxy(gateways map[token.Blockchain]string) *FeeProxy {
	return &FeeProxy{gateways: gateways}
}

// FeeProxyFromConfig reads swap.proxy_contracts, keyed by chain name.
func FeeProxyFromConfig(cfg config.SwapConfig) (*FeeProxy, error) {
	gateways := make(map[token.Blockchain]string, len(cfg.ProxyContracts))
	for key, addr := range cfg.ProxyContracts {
		b, err := token.ParseBlockchain(key)
		if err != nil {
			return nil, err
		}
		if !b.IsEVM() || !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid fee proxy %q on %s", addr, key)
		}
		gateways[b] = addr
	}
	return NewFeeProxy(gateways), nil
}

// Gateway returns the gateway on b.
func (p *FeeProxy) Gateway(b token.Blockchain) (string, bool) {
	if p == nil {
		return "", false
	}
	addr, ok := p.gateways[b]
	return addr, ok
}

// FeePolicy is a provider's platform fee setup. UseProxy is the provider
// default; CalculationOptions.UseProxy overrides it per call.
type FeePolicy struct {
	Proxy    *FeeProxy
	Percent  float64
	UseProxy bool
}

// NewFeePolicy reads a provider's fee settings.
func NewFeePolicy(proxy *FeeProxy, pc config.ProviderConfig) FeePolicy {
	return FeePolicy{Proxy: proxy, Percent: pc.PlatformFeePercent, UseProxy: pc.UseProxy}
}

// Resolve decides the platform fee of one quote. A fee is only charged when
// it can be collected: a positive percent, the proxy enabled for the call
// and a gateway on the source chain. Otherwise the zero ProxyFee is returned
// and the input is quoted in full.
func (p FeePolicy) Resolve(b token.Blockchain, opts domain.CalculationOptions) ProxyFee {
	if p.Percent <= 0 || !opts.ResolveUseProxy(p.UseProxy) {
		return ProxyFee{}
	}
	gateway, ok := p.Proxy.Gateway(b)
	if !ok {
		return ProxyFee{}
	}
	integrator := common.Address{}
	if common.IsHexAddress(opts.ProviderAddress) {
		integrator = common.HexToAddress(opts.ProviderAddress)
	}
	return ProxyFee{
		Gateway:    gateway,
		Percent:    decimal.NewFromFloat(p.Percent),
		Integrator: integrator,
	}
}

// ProxyFee is the resolved platform fee of a quote. The zero value charges
// nothing and sends transactions directly.
type ProxyFee struct {
	Gateway    string
	Percent    decimal.Decimal
	Integrator common.Address
}

// Active reports whether the trade is routed through the gateway.
func (f ProxyFee) Active() bool {
	return f.Gateway != ""
}

// Quoted is the part of from that reaches the provider.
func (f ProxyFee) Quoted(from token.PriceTokenAmount) token.PriceTokenAmount {
	if !f.Active() {
		return from
	}
	return from.SubtractPercent(f.Percent)
}

// FeeInfo reports the platform fee, if any.
func (f ProxyFee) FeeInfo(from token.PriceTokenAmount) domain.FeeInfo {
	if !f.Active() {
		return domain.FeeInfo{}
	}
	return domain.FeeInfo{PlatformFee: &domain.PlatformFee{Percent: f.Percent, TokenSymbol: from.Symbol()}}
}

// Spender is the contract the input is approved to: the gateway when
// active, direct otherwise.
func (f ProxyFee) Spender(direct string) string {
	if !f.Active() {
		return direct
	}
	return f.Gateway
}

// ProxyCall describes the trade a provider transaction belongs to.
type ProxyCall struct {
	From      token.PriceTokenAmount
	To        token.Token
	MinOut    *big.Int
	Recipient string
	// Approve is the contract the gateway approves before calling the
	// router; empty means the router itself.
	Approve string
}

// Wrap routes a provider transaction through the gateway. The gateway takes
// the full input; the provider transaction was built for the quoted part.
// Native value grows by the fee so the gateway can keep it.
func (f ProxyFee) Wrap(call ProxyCall, tx bcdomain.TransactionConfig) (bcdomain.TransactionConfig, error) {
	if !f.Active() {
		return tx, nil
	}
	approve := call.Approve
	if approve == "" {
		approve = tx.To
	}

	params := ProxyParams{
		SrcInputToken:      common.HexToAddress(call.From.Address()),
		SrcInputAmount:     call.From.WeiAmount(),
		DstChainID:         big.NewInt(0),
		DstMinOutputAmount: big.NewInt(0),
		Integrator:         f.Integrator,
		Router:             common.HexToAddress(tx.To),
	}
	if id, ok := call.To.Blockchain().ChainID(); ok {
		params.DstChainID = big.NewInt(id)
	}
	if call.To.Blockchain().IsEVM() {
		params.DstOutputToken = common.HexToAddress(call.To.Address())
	}
	if call.MinOut != nil {
		params.DstMinOutputAmount = call.MinOut
	}
	if common.IsHexAddress(call.Recipient) {
		params.Recipient = common.HexToAddress(call.Recipient)
	}

	data, err := FeeProxyABI.Pack("routerCall", params, common.HexToAddress(approve), tx.Data)
	if err != nil {
		return bcdomain.TransactionConfig{}, apperror.SDK("failed to encode routerCall", err)
	}

	value := new(big.Int)
	if tx.Value != nil {
		value.Set(tx.Value)
	}
	if call.From.IsNative() {
		fee := new(big.Int).Sub(call.From.WeiAmount(), f.Quoted(call.From).WeiAmount())
		value.Add(value, fee)
	}

	tx.To, tx.Data, tx.Value = f.Gateway, data, value
	return tx, nil
}

