package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/newthinker/augur/internal/core"
	"github.com/newthinker/augur/internal/health"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig              `mapstructure:"server"`
	Log        LogConfig                 `mapstructure:"log"`
	Pipeline   PipelineConfig            `mapstructure:"pipeline"`
	Features   FeaturesConfig            `mapstructure:"features"`
	Validation ValidationConfig          `mapstructure:"validation"`
	Sentiment  SentimentConfig           `mapstructure:"sentiment"`
	Weighting  WeightingConfig           `mapstructure:"weighting"`
	Storage    StorageConfig             `mapstructure:"storage"`
	Cache      CacheConfig               `mapstructure:"cache"`
	Collector  CollectorConfig           `mapstructure:"collector"`
	Notifiers  map[string]NotifierConfig `mapstructure:"notifiers"`
	Router     RouterConfig              `mapstructure:"router"`
	LLM        LLMConfig                 `mapstructure:"llm"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
	Alerts     AlertsConfig              `mapstructure:"alerts"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Mode        string `mapstructure:"mode"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// PipelineConfig bounds the per-alert work.
type PipelineConfig struct {
	Symbol         string        `mapstructure:"symbol"`
	CandleLookback int           `mapstructure:"candle_lookback"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	RecentSignals  int           `mapstructure:"recent_signals"`
	// TrainInterval schedules the accuracy self-check when serving; zero
	// disables it. Each run covers the preceding TrainWindow.
	TrainInterval time.Duration `mapstructure:"train_interval"`
	TrainWindow   time.Duration `mapstructure:"train_window"`
}

// FeaturesConfig holds the weekly expiry schedule.
type FeaturesConfig struct {
	ExpiryWeekday string `mapstructure:"expiry_weekday"` // e.g. "thursday"
	ExpiryCutoff  string `mapstructure:"expiry_cutoff"`  // "HH:MM"
	Timezone      string `mapstructure:"timezone"`
}

type ValidationConfig struct {
	MarketConditionScore float64       `mapstructure:"market_condition_score"`
	MinTrainingSamples   int           `mapstructure:"min_training_samples"`
	PairingTolerance     time.Duration `mapstructure:"pairing_tolerance"`
}

type SentimentConfig struct {
	SourceTimeout time.Duration `mapstructure:"source_timeout"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

type WeightingConfig struct {
	SessionOpen  string `mapstructure:"session_open"`
	SessionClose string `mapstructure:"session_close"`
	Shards       int    `mapstructure:"shards"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

type StorageConfig struct {
	TradeLog TradeLogConfig `mapstructure:"trade_log"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
}

type TradeLogConfig struct {
	Type string `mapstructure:"type"` // "memory" or "postgres"
	DSN  string `mapstructure:"dsn"`
}

type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type NotifierConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	// Webhook notifier fields
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
	// Kafka notifier fields
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type RouterConfig struct {
	CooldownMinutes int     `mapstructure:"cooldown_minutes"`
	MinConfidence   float64 `mapstructure:"min_confidence"` // percent
}

type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Claude   ClaudeConfig  `mapstructure:"claude"`
	OpenAI   OpenAIConfig  `mapstructure:"openai"`
	Ollama   OllamaConfig  `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// CollectorConfig controls the market data poller that feeds the cache.
type CollectorConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Provider     string        `mapstructure:"provider"`
	Symbols      []string      `mapstructure:"symbols"`
	Interval     string        `mapstructure:"interval"` // candle interval, e.g. 15m
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Lookback     time.Duration `mapstructure:"lookback"`
	VIX          bool          `mapstructure:"vix"`
}

// AlertsConfig controls the pipeline health rules. Alerts go to every
// enabled notifier that can deliver plain text.
type AlertsConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Cooldown time.Duration `mapstructure:"cooldown"`
	Rules    []health.Rule `mapstructure:"rules"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file on top of Defaults. A .env file in the
// working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix("AUGUR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Mode:        "release",
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Log: LogConfig{
			Level: "info",
		},
		Pipeline: PipelineConfig{
			Symbol:         core.DefaultSymbol,
			CandleLookback: 50,
			FetchTimeout:   3 * time.Second,
			RecentSignals:  50,
			TrainInterval:  24 * time.Hour,
			TrainWindow:    30 * 24 * time.Hour,
		},
		Features: FeaturesConfig{
			ExpiryWeekday: "thursday",
			ExpiryCutoff:  "15:30",
			Timezone:      "Asia/Kolkata",
		},
		Validation: ValidationConfig{
			MarketConditionScore: 75,
			MinTrainingSamples:   100,
			PairingTolerance:     30 * time.Minute,
		},
		Sentiment: SentimentConfig{
			SourceTimeout: 2 * time.Second,
			CacheTTL:      time.Minute,
		},
		Weighting: WeightingConfig{
			SessionOpen:  "09:15",
			SessionClose: "15:30",
			Shards:       32,
			HistoryLimit: 100,
		},
		Storage: StorageConfig{
			TradeLog: TradeLogConfig{Type: "memory"},
			Archive:  ArchiveConfig{Type: "localfs", Path: "./data/archive"},
		},
		Cache: CacheConfig{
			Addr:   "localhost:6379",
			Prefix: "augur",
		},
		Collector: CollectorConfig{
			Provider:     "yahoo",
			Symbols:      []string{core.DefaultSymbol},
			Interval:     "15m",
			PollInterval: time.Minute,
			Lookback:     5 * 24 * time.Hour,
			VIX:          true,
		},
		Router: RouterConfig{
			CooldownMinutes: 30,
			MinConfidence:   70,
		},
		LLM: LLMConfig{
			Timeout: 20 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Alerts: AlertsConfig{
			Interval: time.Minute,
			Cooldown: 30 * time.Minute,
			Rules:    health.DefaultRules(),
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Router.MinConfidence < 0 || c.Router.MinConfidence > 100 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_confidence must be between 0 and 100, got %f", c.Router.MinConfidence))
	}
	if c.Router.CooldownMinutes < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cooldown_minutes cannot be negative, got %d", c.Router.CooldownMinutes))
	}

	if _, err := ParseWeekday(c.Features.ExpiryWeekday); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}
	if _, err := ParseClock(c.Features.ExpiryCutoff); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("expiry_cutoff: %w", err))
	}

	open, err := ParseClock(c.Weighting.SessionOpen)
	if err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("session_open: %w", err))
	}
	closing, err := ParseClock(c.Weighting.SessionClose)
	if err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("session_close: %w", err))
	}
	if open >= closing {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("session_open %s must be before session_close %s", c.Weighting.SessionOpen, c.Weighting.SessionClose))
	}

	if c.Validation.MarketConditionScore < 0 || c.Validation.MarketConditionScore > 100 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("market_condition_score must be between 0 and 100, got %f", c.Validation.MarketConditionScore))
	}

	switch c.Storage.TradeLog.Type {
	case "", "memory":
	case "postgres":
		if c.Storage.TradeLog.DSN == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("trade_log dsn required when type is postgres"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown trade_log type %q", c.Storage.TradeLog.Type))
	}

	if c.Storage.Archive.Enabled && c.Storage.Archive.Type == "s3" && c.Storage.Archive.S3.Bucket == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("s3 bucket required when archive type is s3"))
	}

	if kafka, ok := c.Notifiers["kafka"]; ok && kafka.Enabled {
		if len(kafka.Brokers) == 0 || kafka.Topic == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("kafka notifier requires brokers and topic"))
		}
	}

	if c.Collector.Enabled {
		if c.Collector.Provider != "yahoo" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown collector provider %q", c.Collector.Provider))
		}
		if c.Collector.PollInterval <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("collector poll_interval must be positive"))
		}
	}

	if c.Alerts.Enabled {
		if c.Alerts.Interval <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("alerts interval must be positive"))
		}
		for i := range c.Alerts.Rules {
			if err := c.Alerts.Rules[i].Validate(); err != nil {
				return core.WrapError(core.ErrConfigInvalid, err)
			}
		}
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		case "ollama":
			if c.LLM.Ollama.Endpoint == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("ollama endpoint required when provider is ollama"))
			}
		}
	}

	return nil
}

// Location resolves the configured timezone, falling back to IST when the
// zone database is unavailable.
func (f FeaturesConfig) Location() *time.Location {
	if f.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday parses a weekday name such as "thursday" or "Thu".
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if d, ok := weekdays[s]; ok {
		return d, nil
	}
	for name, d := range weekdays {
		if len(s) >= 3 && strings.HasPrefix(name, s) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

// ParseClock parses "HH:MM" into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
