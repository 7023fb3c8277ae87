package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		check     func(t *testing.T, cfg *Config)
		wantError string
	}{
		{
			name: "defaults: ok",
			env:  map[string]string{"DATABASE_URL": "postgres://localhost/orders"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "8080", cfg.Port)
				assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
				assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
				assert.Equal(t, int32(10), cfg.DBMaxConns)
				assert.Equal(t, "EGP", cfg.DefaultCurrency.String())
				assert.Equal(t, "order.created", cfg.KafkaTopic)
				assert.Empty(t, cfg.KafkaBrokers)
			},
		},
		{
			name: "overrides: ok",
			env: map[string]string{
				"DATABASE_URL":     "postgres://localhost/orders",
				"PORT":             "9000",
				"KAFKA_BROKERS":    "kafka-1:9092, kafka-2:9092,",
				"DEFAULT_CURRENCY": "USD",
				"IDEMPOTENCY_TTL":  "1h",
				"DB_MAX_CONNS":     "32",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "9000", cfg.Port)
				assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
				assert.Equal(t, "USD", cfg.DefaultCurrency.String())
				assert.Equal(t, time.Hour, cfg.IdempotencyTTL)
				assert.Equal(t, int32(32), cfg.DBMaxConns)
			},
		},
		{
			name:      "missing database url: fail",
			env:       map[string]string{},
			wantError: "DATABASE_URL is required",
		},
		{
			name: "invalid timeout: fail",
			env: map[string]string{
				"DATABASE_URL":    "postgres://localhost/orders",
				"REQUEST_TIMEOUT": "soon",
			},
			wantError: "REQUEST_TIMEOUT[soon] is not a duration",
		},
		{
			name: "invalid currency: fail",
			env: map[string]string{
				"DATABASE_URL":     "postgres://localhost/orders",
				"DEFAULT_CURRENCY": "EURO",
			},
			wantError: "DEFAULT_CURRENCY[EURO] is not valid",
		},
	}

	keys := []string{
		"DATABASE_URL", "PORT", "KAFKA_BROKERS", "DEFAULT_CURRENCY",
		"IDEMPOTENCY_TTL", "REQUEST_TIMEOUT", "DB_MAX_CONNS",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range keys {
				t.Setenv(key, tt.env[key])
			}

			cfg, err := Load()
			if tt.wantError != "" {
				require.ErrorContains(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			tt.check(t, cfg)
		})
	}
}
