package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "clinic-ledger", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "clinic_ledger", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, DefaultJWTSecret, cfg.JWT.Secret)
		assert.Equal(t, "clinic.events", cfg.Event.KafkaTopic)
		assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
		assert.Equal(t, "clinic-documents", cfg.Storage.Bucket)
		assert.False(t, cfg.Redis.Enabled)
		assert.False(t, cfg.Scheduler.Enabled)
		assert.Equal(t, 6, cfg.Scheduler.DailyHour)
		assert.Equal(t, 30, cfg.Scheduler.ExpiryWindowDays)
		assert.Equal(t, time.Minute, cfg.Scheduler.CheckInterval)
	})

	t.Run("scheduler can run at midnight", func(t *testing.T) {
		t.Setenv("CLINIC_SCHEDULER_ENABLED", "true")
		t.Setenv("CLINIC_SCHEDULER_DAILY_HOUR", "0")
		t.Setenv("CLINIC_SCHEDULER_EXPIRY_WINDOW_DAYS", "7")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Scheduler.Enabled)
		assert.Equal(t, 0, cfg.Scheduler.DailyHour)
		assert.Equal(t, 7, cfg.Scheduler.ExpiryWindowDays)
	})

	t.Run("scheduler hour out of range", func(t *testing.T) {
		t.Setenv("CLINIC_SCHEDULER_DAILY_HOUR", "24")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheduler.daily_hour")
	})

	t.Run("loads values from environment variables with CLINIC prefix", func(t *testing.T) {
		t.Setenv("CLINIC_APP_NAME", "test-app")
		t.Setenv("CLINIC_APP_PORT", "9000")
		t.Setenv("CLINIC_DATABASE_HOST", "testdb.local")
		t.Setenv("CLINIC_DATABASE_PORT", "5433")
		t.Setenv("CLINIC_DATABASE_PASSWORD", "testpass")
		t.Setenv("CLINIC_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("CLINIC_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("CLINIC_REDIS_ENABLED", "true")
		t.Setenv("CLINIC_IDEMPOTENCY_TTL", "1h")
		t.Setenv("CLINIC_STRIPE_PRICE_ID", "price_123")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, time.Hour, cfg.Idempotency.TTL)
		assert.Equal(t, "price_123", cfg.Stripe.PriceID)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("CLINIC_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("CLINIC_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("kafka requires brokers", func(t *testing.T) {
		t.Setenv("CLINIC_EVENT_KAFKA_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kafka_brokers")
	})

	t.Run("mail requires api key", func(t *testing.T) {
		t.Setenv("CLINIC_MAIL_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mail.api_key")
	})
}

func TestValidateProduction(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{App: AppConfig{Env: "production"}}
		applyDefaults(cfg)
		cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
		cfg.Database.Password = "secret"
		cfg.Database.SSLMode = "require"
		cfg.Stripe.SecretKey = "sk_live_x"
		cfg.Stripe.WebhookSecret = "whsec_x"
		return cfg
	}

	require.NoError(t, valid().validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"default jwt secret", func(c *Config) { c.JWT.Secret = DefaultJWTSecret }, "jwt.secret"},
		{"short jwt secret", func(c *Config) { c.JWT.Secret = "short" }, "at least 32"},
		{"missing db password", func(c *Config) { c.Database.Password = "" }, "database.password"},
		{"ssl disabled", func(c *Config) { c.Database.SSLMode = "disable" }, "sslmode"},
		{"wildcard cors", func(c *Config) { c.HTTP.CORSAllowOrigins = []string{"*"} }, "cors_allow_origins"},
		{"open swagger", func(c *Config) { c.Swagger.Enabled = true }, "swagger"},
		{"missing stripe keys", func(c *Config) { c.Stripe.WebhookSecret = "" }, "stripe"},
		{"full sql logging", func(c *Config) { c.Telemetry.DBLogFullSQL = true }, "db_log_full_sql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "clinic", Password: "p@ss word", DBName: "ledger", SSLMode: "disable"}

	assert.Equal(t, "postgres://clinic:p%40ss%20word@db:5432/ledger?sslmode=disable", d.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
