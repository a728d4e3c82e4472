package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	bcdomain "github.com/fd1az/swap-aggregator/business/blockchain/domain"
	crosschainapp "github.com/fd1az/swap-aggregator/business/crosschain/app"
	onchainapp "github.com/fd1az/swap-aggregator/business/onchain/app"
	pricingdomain "github.com/fd1az/swap-aggregator/business/pricing/domain"
	"github.com/fd1az/swap-aggregator/business/trade/domain"
	"github.com/fd1az/swap-aggregator/internal/token"
	"github.com/fd1az/swap-aggregator/pkg/ui/components"
)

const nativeKeyword = "native"

// request is one pair to quote, as given on the command line.
type request struct {
	fromChain   string
	fromToken   string
	toChain     string
	toToken     string
	amount      string
	fromAddress string
	receiver    string
	slippage    float64
	gas         bool
}

func (r request) validate() error {
	if r.toToken == "" {
		return errors.New("-to is required")
	}
	if _, err := decimal.NewFromString(r.amount); err != nil {
		return fmt.Errorf("invalid -amount %q", r.amount)
	}
	if r.slippage < 0 || r.slippage >= 1 {
		return fmt.Errorf("-slippage must be in [0, 1), got %v", r.slippage)
	}
	return nil
}

func (r request) title() string {
	return fmt.Sprintf("%s %s:%s -> %s:%s", r.amount,
		strings.ToUpper(r.fromChain), r.fromToken, strings.ToUpper(r.toChain), r.toToken)
}

func (r request) options() domain.CalculationOptions {
	opts := domain.CalculationOptions{
		GasCalculation:    domain.GasCalculationDisabled,
		SlippageTolerance: r.slippage,
		FromAddress:       r.fromAddress,
		ReceiverAddress:   r.receiver,
	}
	if r.gas {
		opts.GasCalculation = domain.GasCalculationEnabled
	}
	return opts
}

type quoter struct {
	registry   *token.Registry
	factory    *token.Factory
	onchain    *onchainapp.Manager
	crosschain *crosschainapp.Manager
}

// quote builds both sides through the token factory and asks the manager
// matching the pair.
func (q *quoter) quote(ctx context.Context, r request) ([]domain.Result, error) {
	fromChain, err := token.ParseBlockchain(r.fromChain)
	if err != nil {
		return nil, err
	}
	toChain, err := token.ParseBlockchain(r.toChain)
	if err != nil {
		return nil, err
	}
	fromAddr, err := resolveAddress(q.registry, fromChain, r.fromToken)
	if err != nil {
		return nil, err
	}
	toAddr, err := resolveAddress(q.registry, toChain, r.toToken)
	if err != nil {
		return nil, err
	}

	from, err := q.factory.CreatePriceTokenAmount(ctx, token.TokenStruct{
		Blockchain:  fromChain,
		Address:     fromAddr,
		TokenAmount: r.amount,
	})
	if err != nil {
		return nil, err
	}
	to, err := q.factory.CreatePriceToken(ctx, toChain, toAddr)
	if err != nil {
		return nil, err
	}

	if fromChain == toChain {
		return q.onchain.Calculate(ctx, from, to, r.options()), nil
	}
	return q.crosschain.Calculate(ctx, from, to, r.options()), nil
}

// resolveAddress accepts an address, "native" or a registered symbol.
func resolveAddress(registry *token.Registry, b token.Blockchain, s string) (string, error) {
	if strings.EqualFold(s, nativeKeyword) {
		return token.Native(b).Address(), nil
	}
	if token.IsAddressCorrect(b, s) {
		return s, nil
	}
	if t, ok := registry.GetBySymbol(b, s); ok {
		return t.Address(), nil
	}
	return "", fmt.Errorf("unknown token %q on %s", s, b)
}

// quoteRows formats sorted results. Providers that do not apply to the
// pair are left out; the first successful result is marked best.
func quoteRows(results []domain.Result) []components.QuoteRow {
	rows := make([]components.QuoteRow, 0, len(results))
	bestSeen := false
	for _, r := range results {
		if r.NotApplicable() {
			continue
		}
		row := components.QuoteRow{Provider: r.TradeType.String(), Output: "-", Gas: "-", Impact: "-"}
		if r.Trade != nil {
			fillTrade(&row, r.Trade)
		}
		if r.Err != nil {
			row.Err = r.Err.Error()
		} else if !bestSeen {
			row.Best = true
			bestSeen = true
		}
		rows = append(rows, row)
	}
	return rows
}

func fillTrade(row *components.QuoteRow, t domain.Trade) {
	from, to := t.From(), t.To()
	row.Kind = t.Kind().String()
	row.Output = to.TokenAmount().Truncate(6).String() + " " + to.Symbol()
	if usd, ok := to.USDValue(); ok {
		row.OutputUSD = usd
	}
	if gas := t.GasData(); gas != nil {
		native := token.Native(from.Blockchain())
		row.Gas = gas.TotalNative(native.Decimals()).Truncate(6).String() + " " + native.Symbol()
	}
	if impact, ok := t.PriceImpact(); ok {
		row.Impact = fmt.Sprintf("%.2f%%", impact)
	}

	fromUSD, fromOK := from.Price()
	toUSD, toOK := to.Price()
	if !fromOK || !toOK || from.TokenAmount().IsZero() {
		return
	}
	market, ok := pricingdomain.MarketRate(fromUSD, toUSD)
	if !ok {
		return
	}
	bps := pricingdomain.CalculateDeviation(market, to.TokenAmount().Div(from.TokenAmount())).BasisPoints
	row.DeviationBps = &bps
}

// encodedTrade is what -encode prints.
type encodedTrade struct {
	Provider    string                     `json:"provider"`
	From        string                     `json:"from"`
	To          string                     `json:"to"`
	ToMinWei    string                     `json:"toAmountMinWei"`
	Slippage    float64                    `json:"slippage"`
	Transaction bcdomain.TransactionConfig `json:"transaction"`
}

func encodeBest(ctx context.Context, results []domain.Result, r request) (encodedTrade, error) {
	best, ok := domain.Best(results)
	if !ok {
		for _, res := range results {
			if res.Err != nil {
				return encodedTrade{}, fmt.Errorf("no trade: %s: %w", res.TradeType, res.Err)
			}
		}
		return encodedTrade{}, errors.New("no provider supports the pair")
	}

	tx, err := best.Trade.Encode(ctx, domain.EncodeOptions{
		FromAddress:     r.fromAddress,
		ReceiverAddress: r.receiver,
	})
	if err != nil {
		return encodedTrade{}, fmt.Errorf("encode %s: %w", best.TradeType, err)
	}
	return encodedTrade{
		Provider:    best.TradeType.String(),
		From:        best.Trade.From().String(),
		To:          best.Trade.To().String(),
		ToMinWei:    best.Trade.ToTokenAmountMin().String(),
		Slippage:    best.Trade.SlippageTolerance(),
		Transaction: tx,
	}, nil
}
