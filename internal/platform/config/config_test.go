package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ADDR", "DATA_PATH", "DATABASE_URL", "TOKEN_TTL", "LOG_LEVEL", "PAYROLL_RUN_INTERVAL"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Addr != ":8080" || cfg.DataPath != "data/employees.json" || cfg.TokenTTL != 12*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.UsePostgres() {
		t.Fatal("expected JSON store without DATABASE_URL")
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.PayrollRunInterval != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/paydesk")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PAYROLL_RUN_INTERVAL", "1h")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()
	if !cfg.UsePostgres() {
		t.Fatal("expected postgres store")
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.PayrollRunInterval != time.Hour {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Fatalf("expected fallback for bad int, got %d", cfg.RateLimitPerMinute)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Addr: ":8080", DataPath: "data.json", TokenTTL: time.Hour, MaxBodyBytes: 4096, RateLimitPerMinute: 10}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"production without secret", func(c *Config) { c.Environment = "production" }, "JWT_SECRET"},
		{"production without key", func(c *Config) { c.Environment = "production"; c.JWTSecret = "s" }, "DATA_ENCRYPTION_KEY"},
		{"short key", func(c *Config) { c.DataEncryptionKey = "abcd" }, "32 bytes"},
		{"small body", func(c *Config) { c.MaxBodyBytes = 10 }, "MAX_BODY_BYTES"},
		{"rate limit", func(c *Config) { c.RateLimitPerMinute = 0 }, "RATE_LIMIT_PER_MINUTE"},
		{"ttl", func(c *Config) { c.TokenTTL = 0 }, "TOKEN_TTL"},
		{"no data path", func(c *Config) { c.DataPath = "" }, "DATA_PATH"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}

	ok := base
	ok.Environment = "production"
	ok.JWTSecret = "secret"
	ok.DataEncryptionKey = strings.Repeat("ab", 32)
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PAYDESK_TEST_VALUE=from-file\nAPP_ENV=from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("APP_ENV", "already-set")
	t.Setenv("PAYDESK_TEST_VALUE", "")
	os.Unsetenv("PAYDESK_TEST_VALUE")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("PAYDESK_TEST_VALUE"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("APP_ENV"); got != "already-set" {
		t.Fatalf("environment should win, got %q", got)
	}
}

func TestParseRoleTable(t *testing.T) {
	table, err := ParseRoleTable([]byte(`
version: 1
roles:
  - name: Engineer
    hourly_rate: 300
  - name: Senior Engineer
    hourly_rate: 450.5
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if table["Engineer"].HourlyRate != 300 || table["Senior Engineer"].HourlyRate != 450.5 {
		t.Fatalf("unexpected table: %+v", table)
	}
}

func TestParseRoleTableRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"version", "version: 2\nroles:\n  - name: A\n    hourly_rate: 1\n"},
		{"empty", "version: 1\nroles: []\n"},
		{"zero rate", "version: 1\nroles:\n  - name: A\n    hourly_rate: 0\n"},
		{"duplicate", "version: 1\nroles:\n  - name: A\n    hourly_rate: 1\n  - name: A\n    hourly_rate: 2\n"},
		{"unnamed", "version: 1\nroles:\n  - hourly_rate: 1\n"},
		{"not yaml", "version: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseRoleTable([]byte(tc.doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestShippedRolesFile(t *testing.T) {
	table, err := LoadRoleTable(filepath.Join("..", "..", "..", "config", "roles.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(table) == 0 {
		t.Fatal("expected roles")
	}
}
