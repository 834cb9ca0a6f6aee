package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"gold-market-alerts/internal/alerting"
	"gold-market-alerts/internal/config"
	"gold-market-alerts/internal/feed"
	"gold-market-alerts/internal/scheduler"
	"gold-market-alerts/internal/service"
	"gold-market-alerts/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFeeds() (feed.MarketFetcher, feed.TerminalFetcher, feed.RatesFetcher) {
	marketFeed := feed.NewMarketClient(feed.MarketOptions{
		BaseURL:   a.Config.Feeds.Market.BaseURL,
		Timeout:   a.Config.Feeds.Market.RequestTimeout,
		UserAgent: a.Config.Feeds.Market.UserAgent,
	}, a.Logger)

	terminal := feed.NewTerminalClient(feed.TerminalOptions{
		BaseURL:   a.Config.Feeds.Terminal.BaseURL,
		Timeout:   a.Config.Feeds.Terminal.RequestTimeout,
		UserAgent: a.Config.Feeds.Terminal.UserAgent,
	}, a.Logger)

	rates := feed.NewRatesClient(feed.RatesOptions{
		BaseURL:   a.Config.Feeds.Rates.BaseURL,
		Timeout:   a.Config.Feeds.Rates.RequestTimeout,
		UserAgent: a.Config.Feeds.Rates.UserAgent,
	}, a.Logger)

	return marketFeed, terminal, rates
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToCycle,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	marketFeed, terminal, rates := a.newFeeds()
	notifier := a.newNotifier()

	var history storage.HistoryStore
	var statuses storage.StatusStore
	if store != nil {
		history = store
		statuses = store
	}

	svc := service.New(a.Config, sched, marketFeed, terminal, rates, history, statuses, notifier, a.Logger)

	a.Logger.Info().Msg("starting monitoring service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// ExportOptions hold parameters for exporting cycle history.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
