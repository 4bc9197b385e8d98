package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Source.Kind != "fake" || cfg.Store.Backend != "sqlite" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Limits.CompactRecords != 100 || cfg.Limits.FullRecords != 365 {
		t.Errorf("unexpected limits %+v", cfg.Limits)
	}
	if cfg.Calculations.MovingAveragePeriod != 30 || cfg.Calculations.VolatilityPeriod != 7 || cfg.Calculations.MomentumPeriod != 14 {
		t.Errorf("unexpected periods %+v", cfg.Calculations)
	}
	if cfg.Schedule.RollCron != "0 0 0 * * *" {
		t.Errorf("unexpected roll cron %q", cfg.Schedule.RollCron)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  addr: ":9000"
source:
  kind: alphavantage
  api_key: from-file
store:
  backend: memory
limits:
  compact_records: 50
  full_records: 200
calendar:
  kind: exchange
  mic: xlon
schedule:
  watchlist: [IBM, AAPL]
telegram:
  chat_id: "1001"
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "bot-token")
	t.Setenv("ALPHAVANTAGE_API_KEY", "from-env")
	t.Setenv("STOCKINFO_WATCHLIST", "msft, tsla ,")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Store.Backend != "memory" || cfg.Limits.CompactRecords != 50 {
		t.Errorf("expected file values, got %+v", cfg)
	}
	if cfg.Source.APIKey != "from-env" {
		t.Errorf("expected env override for api key, got %q", cfg.Source.APIKey)
	}
	if strings.Join(cfg.Schedule.Watchlist, ",") != "MSFT,TSLA" {
		t.Errorf("unexpected watchlist %v", cfg.Schedule.Watchlist)
	}
	if cfg.Telegram.BotToken != "bot-token" || cfg.Telegram.ChatID != "1001" {
		t.Errorf("unexpected telegram %+v", cfg.Telegram)
	}
	if cfg.Calendar.Kind != "exchange" || cfg.Calendar.MIC != "xlon" {
		t.Errorf("unexpected calendar %+v", cfg.Calendar)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoad_CalendarDefaultsBySource(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"fake", "daily"},
		{"yahoo", "exchange"},
		{"alphavantage", "exchange"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			t.Setenv("STOCKINFO_SOURCE", tt.source)
			t.Setenv("ALPHAVANTAGE_API_KEY", "key")
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if cfg.Calendar.Kind != tt.want {
				t.Errorf("expected calendar %q, got %q", tt.want, cfg.Calendar.Kind)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "server: [unterminated")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"unknown source", func(c *Config) { c.Source.Kind = "bloomberg" }, "source.kind"},
		{"alphavantage without key", func(c *Config) { c.Source.Kind = "alphavantage" }, "api_key"},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = "postgres" }, "postgres_dsn"},
		{"unknown store", func(c *Config) { c.Store.Backend = "mongo" }, "not supported"},
		{"compact above full", func(c *Config) { c.Limits.CompactRecords = 400 }, "exceeds"},
		{"negative period", func(c *Config) { c.Calculations.MomentumPeriod = -1 }, "periods"},
		{"short fake history", func(c *Config) { c.Source.HistoryDays = 100 }, "history_days"},
		{"unknown calendar", func(c *Config) { c.Calendar.Kind = "lunar" }, "calendar.kind"},
		{"daily calendar with yahoo", func(c *Config) { c.Source.Kind = "yahoo" }, "requires source.kind fake"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("expected error containing %q, got %v", tt.errSub, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("expected missing file to be ignored, got %v", err)
	}

	path := writeFile(t, ".env", "STOCKINFO_TEST_DOTENV=loaded\n")
	t.Setenv("STOCKINFO_TEST_DOTENV", "")
	os.Unsetenv("STOCKINFO_TEST_DOTENV")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("STOCKINFO_TEST_DOTENV"); got != "loaded" {
		t.Errorf("expected value from .env, got %q", got)
	}
}
