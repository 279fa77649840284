package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/quangdle/crypto-signal-bot/internal/risk"
	"github.com/quangdle/crypto-signal-bot/internal/signal"
)

// Config is the full bot configuration. Strategy settings come from a
// JSON file; credentials and environment selection come from the
// process environment so they never live in version control.
type Config struct {
	Environment string `json:"-"` // development | production
	LogLevel    string `json:"-"`

	Exchange struct {
		APIKey    string `json:"-"`
		APISecret string `json:"-"`
		Testnet   bool   `json:"-"`
		Demo      bool   `json:"-"`
	} `json:"-"`

	Trading struct {
		Symbols        []string `json:"symbols"`
		Interval       string   `json:"interval"`
		PollIntervalS  int      `json:"poll_interval_seconds"`
		RequestTimeout int      `json:"request_timeout_seconds"`
	} `json:"trading"`

	Signal signal.Config `json:"signal"`
	Risk   risk.Limits   `json:"risk"`

	Storage struct {
		DatabasePath string `json:"database_path"`
	} `json:"storage"`

	Monitoring struct {
		PrometheusPort int  `json:"prometheus_port"`
		HealthPort     int  `json:"health_port"`
		EnableStream   bool `json:"enable_ticker_stream"`
	} `json:"monitoring"`
}

// Load reads the JSON config file and overlays environment variables.
// Callers load .env beforehand (godotenv) when one exists.
func Load(configFile string) (*Config, error) {
	cfg := &Config{}
	cfg.Risk = risk.DefaultLimits()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Environment = getEnv("ENV", "development")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.Exchange.APIKey = getEnv("BYBIT_API_KEY", "")
	cfg.Exchange.APISecret = getEnv("BYBIT_API_SECRET", "")
	cfg.Exchange.Testnet = getEnvBool("BYBIT_TESTNET", true)
	cfg.Exchange.Demo = getEnvBool("BYBIT_DEMO", false)

	if len(cfg.Trading.Symbols) == 0 {
		cfg.Trading.Symbols = []string{getEnv("TRADING_SYMBOL", "BTC/USDT")}
	}
	if cfg.Trading.Interval == "" {
		cfg.Trading.Interval = getEnv("TRADING_INTERVAL", "1m")
	}
	if cfg.Trading.PollIntervalS <= 0 {
		cfg.Trading.PollIntervalS = getEnvInt("POLL_INTERVAL_SECONDS", 60)
	}
	if cfg.Trading.RequestTimeout <= 0 {
		cfg.Trading.RequestTimeout = getEnvInt("REQUEST_TIMEOUT_SECONDS", 10)
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = getEnv("DATABASE_PATH", "signal_bot.db")
	}
	if cfg.Monitoring.PrometheusPort == 0 {
		cfg.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 8080)
	}
	if cfg.Monitoring.HealthPort == 0 {
		cfg.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", 8081)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Trading.PollIntervalS) * time.Second
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Trading.RequestTimeout) * time.Second
}

func (c *Config) validate() error {
	if c.Exchange.APIKey == "" || c.Exchange.APISecret == "" {
		return fmt.Errorf("BYBIT_API_KEY and BYBIT_API_SECRET are required")
	}
	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("at least one trading symbol is required")
	}
	return c.Risk.Validate()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.Atoi(val)
		if err == nil {
			return parsed
		}
	}
	return defaultVal
}
