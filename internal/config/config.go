package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
)

type Config struct {
	Port        string
	DatabaseURL string
	DBMaxConns  int32

	RedisAddr      string
	IdempotencyTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	RabbitMQURL   string
	RabbitMQQueue string

	OTLPEndpoint string

	DefaultCurrency currency.Unit
	RequestTimeout  time.Duration
	LogLevel        string
}

// Load reads the configuration from the environment. Only DATABASE_URL is required.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		KafkaBrokers:  splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "order.created"),
		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		RabbitMQQueue: getEnv("RABBITMQ_QUEUE", "order.created"),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	var err error

	if cfg.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	maxConns, err := getInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	cfg.DBMaxConns = int32(maxConns)

	code := getEnv("DEFAULT_CURRENCY", "EGP")
	if cfg.DefaultCurrency, err = currency.ParseISO(code); err != nil {
		return nil, fmt.Errorf("DEFAULT_CURRENCY[%s] is not valid: %w", code, err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s[%s] is not a duration: %w", key, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}

	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s[%s] is not a number: %w", key, value, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}

	return n, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
