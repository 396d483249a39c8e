// internal/common/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	cfg := &Config{}
	cfg.Database.Postgres.Database = "rental_pool"
	cfg.Database.Postgres.User = "pool_service"
	applyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validTestConfig()

	assert.Equal(t, "pool-service", cfg.App.Name)
	assert.Equal(t, "localhost", cfg.Database.Postgres.Host)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "1h", cfg.Pool.SweepInterval)
	assert.Equal(t, "15s", cfg.Pool.ShutdownTimeout)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing database name", func(c *Config) { c.Database.Postgres.Database = "" }, "database.postgres.database"},
		{"missing user", func(c *Config) { c.Database.Postgres.User = "" }, "database.postgres.user"},
		{"bad sweep interval", func(c *Config) { c.Pool.SweepInterval = "hourly" }, "sweep_interval"},
		{"bad shutdown timeout", func(c *Config) { c.Pool.ShutdownTimeout = "soon" }, "shutdown_timeout"},
		{"sns enabled without topic", func(c *Config) { c.Notifications.AWS.SNS.Enabled = true }, "topic_arn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPoolConfigDurations(t *testing.T) {
	p := PoolConfig{SweepInterval: "30m", ShutdownTimeout: "5s"}
	assert.Equal(t, 30*time.Minute, p.GetSweepInterval())
	assert.Equal(t, 5*time.Second, p.GetShutdownTimeout())
}

func TestPostgresConfigDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db", Port: 5433, User: "svc", Password: "secret",
		Database: "rental_pool", SSLMode: "require",
	}
	assert.Equal(t, "host=db port=5433 user=svc password=secret dbname=rental_pool sslmode=require", p.GetDSN())
}
