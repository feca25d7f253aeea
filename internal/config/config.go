// Package config loads and validates monitor configuration via Viper.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mwatts/pricewatch/internal/pricing"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Monitor MonitorConfig          `mapstructure:"monitor"`
	Extract ExtractConfig          `mapstructure:"extract"`
	Server  ServerConfig           `mapstructure:"server"`
	SMTP    SMTPConfig             `mapstructure:"smtp"`
	Webhook WebhookConfig          `mapstructure:"webhook"`
	Logging LoggingConfig          `mapstructure:"logging"`
	Models  []pricing.TrackedModel `mapstructure:"models"`
}

// MonitorConfig governs the run pipeline: pacing, identity, persistence.
type MonitorConfig struct {
	UserAgent               string  `mapstructure:"user_agent"`
	DelaySeconds            float64 `mapstructure:"delay_seconds"`
	TimeoutSeconds          int     `mapstructure:"timeout_seconds"`
	HistoryPath             string  `mapstructure:"history_path"`
	DefaultThresholdPercent float64 `mapstructure:"default_threshold_percent"`
}

// ExtractConfig tunes the extraction heuristics.
type ExtractConfig struct {
	// AssumeCents keeps the storefront heuristic of reading digit runs
	// longer than two as cent-denominated. Known to misread four-figure
	// whole-dollar prices; kept toggleable until intent is confirmed.
	AssumeCents bool    `mapstructure:"assume_cents"`
	MinPrice    float64 `mapstructure:"min_price"`
	MaxPrice    float64 `mapstructure:"max_price"`
}

// ServerConfig controls the read API server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// SMTPConfig holds email sink credentials. The sink activates only when
// host, user, password, and recipient are all present.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	To       string `mapstructure:"to"`
}

// Enabled reports whether every required SMTP value is set.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.User != "" && c.Password != "" && c.To != ""
}

// WebhookConfig holds the webhook sink target.
type WebhookConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Enabled reports whether a webhook target is configured.
func (c WebhookConfig) Enabled() bool {
	return c.URL != ""
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk and environment. A .env file next to the
// working directory is folded into the environment first, matching how the
// sinks are configured in deployment.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := resolveThresholds(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("monitor.user_agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("monitor.delay_seconds", 2.5)
	v.SetDefault("monitor.timeout_seconds", 10)
	v.SetDefault("monitor.history_path", "prices.json")
	v.SetDefault("monitor.default_threshold_percent", 5.0)
	v.SetDefault("extract.assume_cents", true)
	v.SetDefault("extract.min_price", 100)
	v.SetDefault("extract.max_price", 5000)
	v.SetDefault("server.port", 5001)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("webhook.timeout_seconds", 10)
	v.SetDefault("logging.development", false)
}

// bindEnv maps the flat environment keys the deployment uses onto the
// nested config structure.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("smtp.host", "SMTP_HOST")
	_ = v.BindEnv("smtp.port", "SMTP_PORT")
	_ = v.BindEnv("smtp.user", "SMTP_USER")
	_ = v.BindEnv("smtp.password", "SMTP_PASSWORD")
	_ = v.BindEnv("smtp.to", "SMTP_TO")
	_ = v.BindEnv("webhook.url", "WEBHOOK_URL")
}

// resolveThresholds fills each model's drop threshold from the default and
// any PRICE_THRESHOLD_<KEY> override.
func resolveThresholds(cfg *Config) error {
	for i := range cfg.Models {
		m := &cfg.Models[i]
		m.ThresholdPercent = cfg.Monitor.DefaultThresholdPercent
		if m.ThresholdKey == "" {
			continue
		}
		envKey := "PRICE_THRESHOLD_" + strings.ToUpper(m.ThresholdKey)
		raw, ok := os.LookupEnv(envKey)
		if !ok || raw == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", envKey, err)
		}
		m.ThresholdPercent = parsed
	}
	return nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Monitor.DelaySeconds < 0 {
		return fmt.Errorf("monitor.delay_seconds must be >= 0")
	}
	if c.Monitor.TimeoutSeconds <= 0 {
		return fmt.Errorf("monitor.timeout_seconds must be > 0")
	}
	if c.Monitor.HistoryPath == "" {
		return fmt.Errorf("monitor.history_path is required")
	}
	if c.Monitor.DefaultThresholdPercent <= 0 {
		return fmt.Errorf("monitor.default_threshold_percent must be > 0")
	}
	if c.Extract.MinPrice >= c.Extract.MaxPrice {
		return fmt.Errorf("extract.min_price must be < extract.max_price")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	for _, m := range c.Models {
		if m.Name == "" {
			return fmt.Errorf("model name is required")
		}
		if m.SourceURL == "" {
			return fmt.Errorf("model %q: source_url is required", m.Name)
		}
		switch m.Strategy {
		case pricing.StrategyStorefrontSingleValue, pricing.StrategyMarketplaceAggregateMin:
		default:
			return fmt.Errorf("model %q: unknown strategy %q", m.Name, m.Strategy)
		}
		if m.ThresholdPercent <= 0 {
			return fmt.Errorf("model %q: threshold must be > 0", m.Name)
		}
	}
	return nil
}

// RequestTimeout converts the fetch timeout config into a duration.
func (c MonitorConfig) RequestTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Delay converts the pacing config into a duration.
func (c MonitorConfig) Delay() time.Duration {
	return time.Duration(c.DelaySeconds * float64(time.Second))
}

// Timeout converts the webhook timeout config into a duration.
func (c WebhookConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
