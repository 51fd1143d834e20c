package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	cryptoutil "paydesk/internal/platform/crypto"
)

type Config struct {
	Addr                string
	Environment         string
	LogLevel            slog.Level
	DataPath            string
	DatabaseURL         string
	MigrationsDir       string
	RolesFile           string
	JWTSecret           string
	TokenTTL            time.Duration
	DataEncryptionKey   string
	PayslipDir          string
	RedisURL            string
	SeedAdminUsername   string
	SeedAdminPassword   string
	SeedAdminTOTPSecret string
	RunMigrations       bool
	MaxBodyBytes        int64
	RateLimitPerMinute  int
	PayrollRunInterval  time.Duration
	MetricsEnabled      bool
}

// LoadDotEnv reads an optional .env file. Variables already set in the
// environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func Load() Config {
	return Config{
		Addr:                getEnv("APP_ADDR", ":8080"),
		Environment:         getEnv("APP_ENV", "development"),
		LogLevel:            getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		DataPath:            getEnv("DATA_PATH", "data/employees.json"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		MigrationsDir:       getEnv("MIGRATIONS_DIR", "migrations"),
		RolesFile:           getEnv("ROLES_FILE", "config/roles.yaml"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		TokenTTL:            getEnvDuration("TOKEN_TTL", 12*time.Hour),
		DataEncryptionKey:   getEnv("DATA_ENCRYPTION_KEY", ""),
		PayslipDir:          getEnv("PAYSLIP_DIR", "data/payslips"),
		RedisURL:            getEnv("REDIS_URL", ""),
		SeedAdminUsername:   getEnv("SEED_ADMIN_USERNAME", "admin"),
		SeedAdminPassword:   getEnv("SEED_ADMIN_PASSWORD", ""),
		SeedAdminTOTPSecret: getEnv("SEED_ADMIN_TOTP_SECRET", ""),
		RunMigrations:       getEnvBool("RUN_MIGRATIONS", true),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		PayrollRunInterval:  getEnvDuration("PAYROLL_RUN_INTERVAL", 0),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", true),
	}
}

// UsePostgres reports whether records live in Postgres rather than the JSON
// data file.
func (c Config) UsePostgres() bool {
	return strings.TrimSpace(c.DatabaseURL) != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return fallback
	}
	return level
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("APP_ADDR is required")
	}
	if !c.UsePostgres() && strings.TrimSpace(c.DataPath) == "" {
		return fmt.Errorf("DATA_PATH is required when DATABASE_URL is not set")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for payslip encryption")
		}
	}
	if c.DataEncryptionKey != "" {
		if _, err := cryptoutil.New(c.DataEncryptionKey); err != nil {
			return err
		}
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.PayrollRunInterval < 0 {
		return fmt.Errorf("PAYROLL_RUN_INTERVAL must not be negative")
	}
	return nil
}
