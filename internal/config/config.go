package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Source struct {
		Kind        string `yaml:"kind"` // fake | alphavantage | yahoo
		BaseURL     string `yaml:"base_url"`
		APIKey      string `yaml:"api_key"`
		HistoryDays int    `yaml:"history_days"`
		Seed        int64  `yaml:"seed"`
		Proxy       string `yaml:"proxy"`
	} `yaml:"source"`
	Store struct {
		Backend       string `yaml:"backend"` // sqlite | postgres | mysql | redis | memory
		SQLitePath    string `yaml:"sqlite_path"`
		PostgresDSN   string `yaml:"postgres_dsn"`
		MySQLDSN      string `yaml:"mysql_dsn"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
	} `yaml:"store"`
	Limits struct {
		CompactRecords int `yaml:"compact_records"`
		FullRecords    int `yaml:"full_records"`
	} `yaml:"limits"`
	Calculations struct {
		MovingAveragePeriod int `yaml:"moving_average_period"`
		VolatilityPeriod    int `yaml:"volatility_period"`
		MomentumPeriod      int `yaml:"momentum_period"`
	} `yaml:"calculations"`
	Calendar struct {
		Kind string `yaml:"kind"` // daily | exchange
		MIC  string `yaml:"mic"`
	} `yaml:"calendar"`
	Schedule struct {
		RollCron   string   `yaml:"roll_cron"`
		WarmupCron string   `yaml:"warmup_cron"`
		Watchlist  []string `yaml:"watchlist"`
	} `yaml:"schedule"`
	Telegram struct {
		BaseURL  string `yaml:"base_url"`
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment when the
// file exists. Variables already set are left alone.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	log.Printf("[INFO] loaded environment from %s", path)
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("STOCKINFO_SOURCE"); v != "" {
		cfg.Source.Kind = v
	}
	if v := os.Getenv("STOCKINFO_SOURCE_URL"); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.Source.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Source.Proxy = v
	}
	if v := os.Getenv("STOCKINFO_STORE"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Store.PostgresDSN = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.Store.MySQLDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Store.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Store.RedisPassword = v
	}
	if v := os.Getenv("STOCKINFO_COMPACT_RECORDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.CompactRecords = n
		}
	}
	if v := os.Getenv("STOCKINFO_FULL_RECORDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.FullRecords = n
		}
	}
	if v := os.Getenv("STOCKINFO_CALENDAR"); v != "" {
		cfg.Calendar.Kind = v
	}
	if v := os.Getenv("STOCKINFO_WATCHLIST"); v != "" {
		cfg.Schedule.Watchlist = splitList(v)
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = "fake"
	}
	if cfg.Source.HistoryDays == 0 {
		cfg.Source.HistoryDays = 800
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "sqlite"
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = "data/stockinfo.db"
	}
	if cfg.Limits.CompactRecords == 0 {
		cfg.Limits.CompactRecords = 100
	}
	if cfg.Limits.FullRecords == 0 {
		cfg.Limits.FullRecords = 365
	}
	if cfg.Calculations.MovingAveragePeriod == 0 {
		cfg.Calculations.MovingAveragePeriod = 30
	}
	if cfg.Calculations.VolatilityPeriod == 0 {
		cfg.Calculations.VolatilityPeriod = 7
	}
	if cfg.Calculations.MomentumPeriod == 0 {
		cfg.Calculations.MomentumPeriod = 14
	}
	if cfg.Calendar.Kind == "" {
		// Only the fake source produces a record for every calendar day.
		cfg.Calendar.Kind = "exchange"
		if cfg.Source.Kind == "fake" {
			cfg.Calendar.Kind = "daily"
		}
	}
	if cfg.Calendar.MIC == "" {
		cfg.Calendar.MIC = "xnys"
	}
	if cfg.Schedule.RollCron == "" {
		cfg.Schedule.RollCron = "0 0 0 * * *"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case "fake", "yahoo":
	case "alphavantage":
		if c.Source.APIKey == "" {
			return fmt.Errorf("source.api_key is required for alphavantage")
		}
	default:
		return fmt.Errorf("source.kind must be fake, alphavantage or yahoo, got %q", c.Source.Kind)
	}
	switch c.Store.Backend {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required")
		}
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn is required")
		}
	case "mysql":
		if c.Store.MySQLDSN == "" {
			return fmt.Errorf("store.mysql_dsn is required")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required")
		}
	case "memory":
	default:
		return fmt.Errorf("store.backend %q is not supported", c.Store.Backend)
	}
	if c.Limits.CompactRecords <= 0 || c.Limits.FullRecords <= 0 {
		return fmt.Errorf("limits must be positive")
	}
	if c.Limits.CompactRecords > c.Limits.FullRecords {
		return fmt.Errorf("limits.compact_records (%d) exceeds limits.full_records (%d)",
			c.Limits.CompactRecords, c.Limits.FullRecords)
	}
	if c.Calculations.MovingAveragePeriod <= 0 || c.Calculations.VolatilityPeriod <= 0 || c.Calculations.MomentumPeriod <= 0 {
		return fmt.Errorf("calculation periods must be positive")
	}
	if c.Source.Kind == "fake" {
		longest := max(c.Calculations.MovingAveragePeriod, c.Calculations.VolatilityPeriod+1, c.Calculations.MomentumPeriod+1)
		if c.Source.HistoryDays < c.Limits.FullRecords+longest+1 {
			return fmt.Errorf("source.history_days must cover limits.full_records plus the longest window (%d)",
				c.Limits.FullRecords+longest+1)
		}
	}
	switch c.Calendar.Kind {
	case "daily":
		if c.Source.Kind != "fake" {
			return fmt.Errorf("calendar.kind daily requires source.kind fake, %s has no weekend records", c.Source.Kind)
		}
	case "exchange":
	default:
		return fmt.Errorf("calendar.kind must be daily or exchange, got %q", c.Calendar.Kind)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}
