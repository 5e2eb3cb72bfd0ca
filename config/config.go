package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Port   string
	Env    string
	LogDir string

	DB       DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Payments PaymentsConfig
	OTel     OTelConfig
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the PostgreSQL connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig holds cache settings. An empty URL disables caching.
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

// JWTConfig holds bearer token settings
type JWTConfig struct {
	Secret string
}

// PaymentsConfig holds payment gateway settings
type PaymentsConfig struct {
	Gateway         string // razorpay or mock
	RazorpayKey     string
	RazorpaySecret  string
	WebhookSecret   string
	DefaultCurrency string
	IdempotencyTTL  time.Duration
}

// OTelConfig holds tracing settings
type OTelConfig struct {
	Enabled       bool
	ServiceName   string
	CollectorAddr string
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadConfig loads configuration from the environment, with an optional .env file
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:   v.GetString("PORT"),
		Env:    v.GetString("ENV"),
		LogDir: v.GetString("LOG_DIR"),
		DB: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			URL:      v.GetString("REDIS_URL"),
			CacheTTL: v.GetDuration("CACHE_TTL"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		Payments: PaymentsConfig{
			Gateway:         strings.ToLower(v.GetString("PAYMENT_GATEWAY")),
			RazorpayKey:     v.GetString("RAZORPAY_KEY"),
			RazorpaySecret:  v.GetString("RAZORPAY_SECRET"),
			WebhookSecret:   v.GetString("RAZORPAY_WEBHOOK_SECRET"),
			DefaultCurrency: strings.ToUpper(v.GetString("DEFAULT_CURRENCY")),
			IdempotencyTTL:  v.GetDuration("IDEMPOTENCY_TTL"),
		},
		OTel: OTelConfig{
			Enabled:       v.GetBool("OTEL_ENABLED"),
			ServiceName:   v.GetString("OTEL_SERVICE_NAME"),
			CollectorAddr: v.GetString("OTEL_COLLECTOR_ADDR"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_DIR", "logs")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("CACHE_TTL", "300s")
	v.SetDefault("PAYMENT_GATEWAY", "razorpay")
	v.SetDefault("DEFAULT_CURRENCY", "INR")
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("OTEL_SERVICE_NAME", "propertyhub-payments")
	v.SetDefault("OTEL_COLLECTOR_ADDR", "localhost:4317")
}

// Validate checks settings the process cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.Payments.Gateway {
	case "razorpay":
		if c.Payments.RazorpayKey == "" || c.Payments.RazorpaySecret == "" {
			return errors.New("RAZORPAY_KEY and RAZORPAY_SECRET are required for the razorpay gateway")
		}
	case "mock":
	default:
		return fmt.Errorf("unsupported PAYMENT_GATEWAY %q", c.Payments.Gateway)
	}
	if len(c.Payments.DefaultCurrency) != 3 {
		return fmt.Errorf("DEFAULT_CURRENCY must be an ISO 4217 code, got %q", c.Payments.DefaultCurrency)
	}
	return nil
}
