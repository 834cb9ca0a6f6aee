package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"gold-market-alerts/internal/feed"
	"gold-market-alerts/internal/service"
)

// SimulateCycle 通过给定的盎司/美元/shams 价格模拟一次完整周期并触发告警。
// No database is touched: the hysteresis map starts neutral and the delta
// rules stay silent.
func (a *App) SimulateCycle(ctx context.Context, gold, dollar decimal.Decimal, shams *decimal.Decimal) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	snap := &feed.MarketSnapshot{}
	if shams != nil {
		now := time.Now().UTC().Format("2006-01-02 15:04:05")
		snap.Warehouse = []feed.Entity{{
			Slug:      "shams",
			LastTrade: now,
			Related:   []feed.Entity{{Slug: "shams", Close: shams, LastTrade: now}},
		}}
	}

	svc := service.New(a.Config, nil,
		&staticMarketFetcher{snap: snap},
		&staticTerminalFetcher{},
		&staticRatesFetcher{rates: feed.Rates{GoldOunceUSD: gold, DollarPrice: dollar}},
		nil, nil, notifier, a.Logger)

	cycle := time.Now().UTC().Truncate(a.Config.Scheduler.Interval)
	return svc.ProcessCycle(ctx, cycle)
}

type staticMarketFetcher struct {
	snap *feed.MarketSnapshot
}

func (s *staticMarketFetcher) FetchMarket(ctx context.Context) (*feed.MarketSnapshot, error) {
	return s.snap, nil
}

type staticTerminalFetcher struct{}

func (s *staticTerminalFetcher) FetchTerminal(ctx context.Context) ([][]string, error) {
	return nil, nil
}

type staticRatesFetcher struct {
	rates feed.Rates
}

func (s *staticRatesFetcher) FetchRates(ctx context.Context) (feed.Rates, error) {
	return s.rates, nil
}

var _ feed.MarketFetcher = (*staticMarketFetcher)(nil)
var _ feed.TerminalFetcher = (*staticTerminalFetcher)(nil)
var _ feed.RatesFetcher = (*staticRatesFetcher)(nil)
