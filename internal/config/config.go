package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"banking-core/internal/model"
)

// Config holds the application settings.
type Config struct {
	Addr     string // HTTP listen address
	LogLevel string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret   string
	TokenExpiry time.Duration

	CVVEncryptionKey string // 32 raw bytes or 64 hex chars
	HMACSecret       string

	SMTP SMTPConfig

	MetricsSchedule string // cron spec for the metrics summary log
	MetricsCapacity int

	Limits Limits
}

type SMTPConfig struct {
	Enabled            bool
	Host               string
	Port               int
	User               string
	Password           string
	From               string
	InsecureSkipVerify bool
}

// Limits are the business rules of the ledger.
type Limits struct {
	AccountsPerUser   int
	CardsPerAccount   int
	CardValidityYears int
	DefaultCurrency   model.Currency
	DepositMin        decimal.Decimal
	DepositMax        decimal.Decimal
	TransferMin       decimal.Decimal
	TransferMax       decimal.Decimal
}

// DefaultLimits mirrors the production rules.
func DefaultLimits() Limits {
	return Limits{
		AccountsPerUser:   3,
		CardsPerAccount:   3,
		CardValidityYears: 3,
		DefaultCurrency:   model.CurrencyUAH,
		DepositMin:        decimal.RequireFromString("0.01"),
		DepositMax:        decimal.NewFromInt(1_000_000),
		TransferMin:       decimal.RequireFromString("0.1"),
		TransferMax:       decimal.NewFromInt(1_000_000),
	}
}

// fileConfig is the optional YAML overlay.
type fileConfig struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Metrics struct {
		Schedule string `yaml:"schedule"`
		Capacity int    `yaml:"capacity"`
	} `yaml:"metrics"`
	Limits struct {
		AccountsPerUser   int    `yaml:"accounts_per_user"`
		CardsPerAccount   int    `yaml:"cards_per_account"`
		CardValidityYears int    `yaml:"card_validity_years"`
		DefaultCurrency   string `yaml:"default_currency"`

		// Money limits are read as text so they never pass through float64.
		DepositMin  string `yaml:"deposit_min"`
		DepositMax  string `yaml:"deposit_max"`
		TransferMin string `yaml:"transfer_min"`
		TransferMax string `yaml:"transfer_max"`
	} `yaml:"limits"`
}

// LoadConfig reads .env, the process environment and, when CONFIG_FILE is set, a YAML overlay.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warn(".env file not found, using process environment")
	}

	expiry, err := time.ParseDuration(os.Getenv("TOKEN_EXPIRY"))
	if err != nil {
		expiry = 24 * time.Hour
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg := &Config{
		Addr:             getEnv("HTTP_ADDR", ":8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBName:           getEnv("DB_NAME", "banking"),
		DBSSLMode:        getEnv("DB_SSLMODE", "disable"),
		JWTSecret:        getEnv("JWT_SECRET", "default-secret-key"),
		TokenExpiry:      expiry,
		CVVEncryptionKey: os.Getenv("CVV_ENCRYPTION_KEY"),
		HMACSecret:       os.Getenv("HMAC_SECRET"),
		SMTP: SMTPConfig{
			Enabled:            getEnv("EMAIL_SENDER_ENABLED", "false") == "true",
			Host:               os.Getenv("SMTP_HOST"),
			Port:               smtpPort,
			User:               os.Getenv("SMTP_USER"),
			Password:           os.Getenv("SMTP_PASS"),
			From:               getEnv("SMTP_FROM", os.Getenv("SMTP_USER")),
			InsecureSkipVerify: getEnv("INSECURE_SKIP_VERIFY", "false") == "true",
		},
		MetricsSchedule: getEnv("METRICS_SCHEDULE", "@every 5m"),
		MetricsCapacity: 10000,
		Limits:          DefaultLimits(),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// DSN returns the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if fc.Server.Addr != "" {
		c.Addr = fc.Server.Addr
	}
	if fc.Log.Level != "" {
		c.LogLevel = fc.Log.Level
	}
	if fc.Metrics.Schedule != "" {
		c.MetricsSchedule = fc.Metrics.Schedule
	}
	if fc.Metrics.Capacity > 0 {
		c.MetricsCapacity = fc.Metrics.Capacity
	}

	l := &c.Limits
	if fc.Limits.AccountsPerUser > 0 {
		l.AccountsPerUser = fc.Limits.AccountsPerUser
	}
	if fc.Limits.CardsPerAccount > 0 {
		l.CardsPerAccount = fc.Limits.CardsPerAccount
	}
	if fc.Limits.CardValidityYears > 0 {
		l.CardValidityYears = fc.Limits.CardValidityYears
	}
	if fc.Limits.DefaultCurrency != "" {
		cur := model.Currency(fc.Limits.DefaultCurrency)
		if !cur.Valid() {
			return fmt.Errorf("unsupported default currency %q", fc.Limits.DefaultCurrency)
		}
		l.DefaultCurrency = cur
	}
	for _, lim := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"deposit_min", fc.Limits.DepositMin, &l.DepositMin},
		{"deposit_max", fc.Limits.DepositMax, &l.DepositMax},
		{"transfer_min", fc.Limits.TransferMin, &l.TransferMin},
		{"transfer_max", fc.Limits.TransferMax, &l.TransferMax},
	} {
		if err := setDecimal(lim.dst, lim.name, lim.raw); err != nil {
			return err
		}
	}

	if l.DepositMin.GreaterThan(l.DepositMax) || l.TransferMin.GreaterThan(l.TransferMax) {
		return fmt.Errorf("limit minimum exceeds maximum")
	}
	return nil
}

func setDecimal(dst *decimal.Decimal, name, raw string) error {
	if raw == "" {
		return nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	if !v.IsPositive() {
		return fmt.Errorf("%s must be positive, got %s", name, raw)
	}
	if err := model.CheckMoneyScale(v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = v
	return nil
}

// getEnv returns the variable or defaultValue when it is unset or empty.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
