package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"gold-market-alerts/internal/alerting"
	"gold-market-alerts/internal/config"
	"gold-market-alerts/internal/feed"
	"gold-market-alerts/internal/fund"
	"gold-market-alerts/internal/market"
	"gold-market-alerts/internal/scheduler"
	"gold-market-alerts/internal/storage"
)

// Service orchestrates one synchronous cycle: feeds in, merged canonical
// table, valuation, fund aggregates, alert evaluation, persistence out.
type Service struct {
	scheduler *scheduler.Scheduler
	market    feed.MarketFetcher
	terminal  feed.TerminalFetcher
	rates     feed.RatesFetcher
	history   storage.HistoryStore
	statuses  storage.StatusStore
	notifier  alerting.Notifier
	logger    zerolog.Logger

	evaluator      alerting.Evaluator
	minValueRatio  decimal.Decimal
	minInflowRatio decimal.Decimal
	alertsOn       bool
	locker         storage.AdvisoryLocker
	lockKey        int64
}

// New constructs the monitoring service.
func New(cfg *config.Config, sched *scheduler.Scheduler, marketFeed feed.MarketFetcher, terminal feed.TerminalFetcher, rates feed.RatesFetcher, history storage.HistoryStore, statuses storage.StatusStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	var locker storage.AdvisoryLocker
	if l, ok := history.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		scheduler: sched,
		market:    marketFeed,
		terminal:  terminal,
		rates:     rates,
		history:   history,
		statuses:  statuses,
		notifier:  notifier,
		logger:    logger.With().Str("component", "service").Logger(),
		evaluator: alerting.Evaluator{
			Bands: map[alerting.Class]alerting.Band{
				alerting.ClassDollar: band(cfg.Alerting.Dollar),
				alerting.ClassShams:  band(cfg.Alerting.Shams),
				alerting.ClassGold:   band(cfg.Alerting.Gold),
			},
			SwingThresholdPct: decimal.NewFromFloat(cfg.Alerting.SwingThresholdPct),
			SurgeDelta:        decimal.NewFromFloat(cfg.Alerting.SurgeDelta),
		},
		minValueRatio:  decimal.NewFromFloat(cfg.Alerting.Screening.MinValueRatio),
		minInflowRatio: decimal.NewFromFloat(cfg.Alerting.Screening.MinInflowRatio),
		alertsOn:       cfg.Alerting.Enabled,
		locker:         locker,
		lockKey:        cfg.Scheduler.AdvisoryLockKey,
	}
}

func band(cfg config.BandConfig) alerting.Band {
	return alerting.Band{
		High: decimal.NewFromFloat(cfg.High),
		Low:  decimal.NewFromFloat(cfg.Low),
	}
}

// Run begins the aligned cycle loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessCycle)
}

// ProcessCycle 执行单个周期的完整计算。
func (s *Service) ProcessCycle(ctx context.Context, cycle time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("cycle", cycle).Msg("skip cycle because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	return s.executeCycle(ctx, cycle)
}

func (s *Service) executeCycle(ctx context.Context, cycle time.Time) error {
	// Persisted state is read before the current snapshot is computed; the
	// cycle must never compare the snapshot against itself.
	prevStatuses := s.readStatuses(ctx)
	prevScalars := s.readPreviousScalars(ctx)

	snap, err := s.market.FetchMarket(ctx)
	if err != nil {
		return fmt.Errorf("fetch market snapshot: %w", err)
	}
	rates, err := s.rates.FetchRates(ctx)
	if err != nil {
		return fmt.Errorf("fetch rates: %w", err)
	}
	rows, err := s.terminal.FetchTerminal(ctx)
	if err != nil {
		return fmt.Errorf("fetch terminal snapshot: %w", err)
	}

	table := market.BuildTable(snap)
	market.Valuate(table, rates.GoldOunceUSD, rates.DollarPrice)

	funds := fund.FromTerminalRows(rows)
	agg := fund.Aggregate(funds)
	screened := fund.Screen(funds, s.minValueRatio, s.minInflowRatio)

	shams := table.Lookup("shams")
	current := alerting.CurrentValues{
		Dollar: rates.DollarPrice,
		Shams:  shams.Close,
		Gold:   rates.GoldOunceUSD,
	}

	result := s.evaluator.Evaluate(prevStatuses, prevScalars, current, agg, screened)

	s.logger.Info().Time("cycle", cycle).
		Int("funds", len(funds)).
		Int("screened", len(screened)).
		Int("alerts", len(result.Events)).
		Str("weighted_sarane_diff", agg.WeightedSaraneDiff.String()).
		Msg("cycle computed")

	if s.alertsOn && s.notifier != nil {
		for _, event := range result.Events {
			if err := s.notifier.Notify(ctx, event); err != nil {
				s.logger.Error().Err(err).Time("cycle", cycle).
					Str("kind", string(event.Kind)).
					Msg("failed to dispatch alert")
			}
		}
	}

	// Status is written whenever a hysteresis state changed, independent of
	// delivery outcome.
	if result.StatusChanged && s.statuses != nil {
		if err := s.statuses.SetStatuses(ctx, result.Status); err != nil {
			s.logger.Error().Err(err).Time("cycle", cycle).Msg("failed to persist alert status")
		}
	}

	if s.history != nil {
		record := buildCycleRecord(cycle, rates, table, agg, prevScalars)
		if err := s.history.AppendCycle(ctx, record); err != nil {
			s.logger.Error().Err(err).Time("cycle", cycle).Msg("failed to append cycle history")
		}
	}

	return nil
}

// readStatuses reads the persisted hysteresis map, substituting the neutral
// map on any failure so the cycle still completes.
func (s *Service) readStatuses(ctx context.Context) alerting.StatusMap {
	if s.statuses == nil {
		return alerting.NewStatusMap()
	}
	statuses, err := s.statuses.GetStatuses(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("alert status unreadable; assuming normal")
		return alerting.NewStatusMap()
	}
	return statuses
}

// readPreviousScalars reads the newest history row. A missing or unreadable
// row disables the delta rules for this cycle, nothing more.
func (s *Service) readPreviousScalars(ctx context.Context) alerting.PreviousScalars {
	if s.history == nil {
		return alerting.PreviousScalars{}
	}
	record, err := s.history.LatestCycle(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNoCycles) {
			s.logger.Warn().Err(err).Msg("cycle history unreadable; delta rules disabled for this cycle")
		}
		return alerting.PreviousScalars{}
	}
	return alerting.PreviousScalars{
		Dollar:     &record.DollarPrice,
		Shams:      &record.ShamsPrice,
		Gold:       &record.GoldPriceUSD,
		SaraneDiff: &record.EkhtelafSaraneWeighted,
	}
}

func buildCycleRecord(cycle time.Time, rates feed.Rates, table market.Table, agg fund.Aggregates, prev alerting.PreviousScalars) storage.CycleRecord {
	record := storage.CycleRecord{
		CycleTS:                cycle,
		GoldPriceUSD:           rates.GoldOunceUSD,
		DollarPrice:            rates.DollarPrice,
		DollarChangePct:        pctChange(rates.DollarPrice, prev.Dollar),
		FundWeightedChangePct:  agg.WeightedChangePct,
		FundFinalPriceAvg:      agg.WeightedClose,
		FundWeightedBubblePct:  agg.WeightedBubblePct,
		SaraneKharidWeighted:   agg.WeightedSaraneKharid,
		SaraneForoshWeighted:   agg.WeightedSaraneForosh,
		EkhtelafSaraneWeighted: agg.WeightedSaraneDiff,
		PolHagigi:              agg.TotalPolHagigi,
	}

	if shams := table.Lookup("shams"); shams != nil {
		if shams.Close != nil {
			record.ShamsPrice = *shams.Close
		}
		if shams.ChangePct != nil {
			record.ShamsChangePct = *shams.ChangePct
		}
	}

	return record
}

func pctChange(current decimal.Decimal, previous *decimal.Decimal) decimal.Decimal {
	if previous == nil || previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(*previous).Div(*previous).Mul(decimal.NewFromInt(100))
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
