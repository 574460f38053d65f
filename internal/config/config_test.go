package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "EVENT_STORE", "EVENT_BUS", "KAFKA_BROKERS", "ACCESS_TOKEN_TTL", "PAYPAL_VND_PER_USD", "RUN_MIGRATIONS"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, EventStorePostgres, cfg.EventStore)
	assert.Equal(t, EventBusKafka, cfg.EventBus)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	assert.True(t, cfg.RunMigrations)
	assert.True(t, decimal.NewFromInt(25000).Equal(cfg.PayPal.VNDPerUnit))
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("EVENT_STORE", "Memory")
	t.Setenv("EVENT_BUS", "rabbitmq")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("PAYPAL_VND_PER_USD", "24500.5")
	t.Setenv("PAYPAL_CLIENT_ID", "id")
	t.Setenv("PAYPAL_CLIENT_SECRET", "secret")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, EventStoreMemory, cfg.EventStore)
	assert.Equal(t, EventBusRabbitMQ, cfg.EventBus)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.False(t, cfg.RunMigrations)
	assert.Equal(t, "24500.5", cfg.PayPal.VNDPerUnit.String())
	assert.True(t, cfg.PayPal.Enabled())
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "a day")
	t.Setenv("RUN_MIGRATIONS", "maybe")
	t.Setenv("PAYPAL_VND_PER_USD", "lots")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, "25000", cfg.PayPal.VNDPerUnit.String())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			JWTSecret:  testSecret,
			EventStore: EventStoreMemory,
			EventBus:   EventBusInProcess,
			PayPal:     PayPal{VNDPerUnit: decimal.NewFromInt(25000)},
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET is required"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "at least 32 characters"},
		{"unknown store", func(c *Config) { c.EventStore = "mongo" }, "EVENT_STORE"},
		{"unknown bus", func(c *Config) { c.EventBus = "nats" }, "EVENT_BUS"},
		{"zero rate", func(c *Config) { c.PayPal.VNDPerUnit = decimal.Zero }, "PAYPAL_VND_PER_USD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
