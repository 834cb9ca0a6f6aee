package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"gold-market-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Feeds     FeedsConfig     `mapstructure:"feeds"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs cycle cadence.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToCycle    bool          `mapstructure:"align_to_cycle"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// FeedsConfig groups the upstream data sources.
type FeedsConfig struct {
	Market   FeedEndpoint `mapstructure:"market"`
	Terminal FeedEndpoint `mapstructure:"terminal"`
	Rates    FeedEndpoint `mapstructure:"rates"`
}

// FeedEndpoint describes a single upstream HTTP source.
type FeedEndpoint struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// AlertingConfig defines alert thresholds and routing.
type AlertingConfig struct {
	Enabled           bool            `mapstructure:"enabled"`
	Dollar            BandConfig      `mapstructure:"dollar"`
	Shams             BandConfig      `mapstructure:"shams"`
	Gold              BandConfig      `mapstructure:"gold"`
	SwingThresholdPct float64         `mapstructure:"swing_threshold_pct"`
	SurgeDelta        float64         `mapstructure:"surge_delta"`
	Screening         ScreeningConfig `mapstructure:"screening"`
	Channels          []string        `mapstructure:"channels"`
	Telegram          TelegramConfig  `mapstructure:"telegram"`
}

// BandConfig is the hysteresis band for one tracked class.
type BandConfig struct {
	High float64 `mapstructure:"high"`
	Low  float64 `mapstructure:"low"`
}

// ScreeningConfig tunes the hard-buy fund screen.
type ScreeningConfig struct {
	MinValueRatio  float64 `mapstructure:"min_value_ratio"`
	MinInflowRatio float64 `mapstructure:"min_inflow_ratio"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GOLDWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "goldwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "5m")
	v.SetDefault("scheduler.align_to_cycle", true)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x676f6c64))
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("feeds.market.request_timeout", "10s")
	v.SetDefault("feeds.market.user_agent", "goldwatcher/1.0")
	v.SetDefault("feeds.terminal.request_timeout", "10s")
	v.SetDefault("feeds.terminal.user_agent", "goldwatcher/1.0")
	v.SetDefault("feeds.rates.request_timeout", "10s")
	v.SetDefault("feeds.rates.user_agent", "goldwatcher/1.0")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.swing_threshold_pct", 0.3)
	v.SetDefault("alerting.surge_delta", 10.0)
	v.SetDefault("alerting.screening.min_value_ratio", 150.0)
	v.SetDefault("alerting.screening.min_inflow_ratio", 50.0)
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Alerting.SwingThresholdPct < 0 {
		return fmt.Errorf("alerting.swing_threshold_pct cannot be negative")
	}
	if c.Alerting.SurgeDelta < 0 {
		return fmt.Errorf("alerting.surge_delta cannot be negative")
	}
	for name, band := range map[string]BandConfig{
		"alerting.dollar": c.Alerting.Dollar,
		"alerting.shams":  c.Alerting.Shams,
		"alerting.gold":   c.Alerting.Gold,
	} {
		if band.High > 0 && band.Low >= band.High {
			return fmt.Errorf("%s.low must be below %s.high", name, name)
		}
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
