package feed

import (
	"context"

	"github.com/shopspring/decimal"
)

// MarketFetcher retrieves the hierarchical market-API snapshot.
type MarketFetcher interface {
	FetchMarket(ctx context.Context) (*MarketSnapshot, error)
}

// TerminalFetcher retrieves the raw positional fund rows from the trading
// terminal endpoint.
type TerminalFetcher interface {
	FetchTerminal(ctx context.Context) ([][]string, error)
}

// RatesFetcher retrieves the two driving scalars: the international ounce
// price in USD and the domestic cash dollar rate.
type RatesFetcher interface {
	FetchRates(ctx context.Context) (Rates, error)
}

// Rates are the driving inputs of the valuation formulas.
type Rates struct {
	GoldOunceUSD decimal.Decimal `json:"gold_ounce_usd"`
	DollarPrice  decimal.Decimal `json:"dollar_price"`
}

// MarketSnapshot is the hierarchical feed: independently sourced sub-lists of
// entities, each entity carrying nested related-entity records.
type MarketSnapshot struct {
	Assets    []Entity `json:"assets"`
	Warehouse []Entity `json:"warehouse"`
	Funds     []Entity `json:"funds"`
}

// Entity is one node of the market feed. LastTrade is the raw timestamp
// string as served ("YYYY-MM-DD HH:MM:SS" with possible trailing noise).
type Entity struct {
	Slug      string           `json:"slug"`
	Close     *decimal.Decimal `json:"close_price"`
	ChangePct *decimal.Decimal `json:"change_percent"`
	LastTrade string           `json:"last_trade"`
	Related   []Entity         `json:"related_entities"`
}
