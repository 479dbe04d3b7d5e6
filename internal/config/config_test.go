package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/fleet.db", cfg.Database.Path)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Redis.RateTTL)
	assert.Equal(t, 4, cfg.Rates.RecomputeWorkers)
	assert.Equal(t, "SAR", cfg.Payment.Currency)
	assert.Equal(t, "BANK", cfg.Payment.Journal)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  path: /tmp/fleet-test.db
redis:
  enabled: true
  addr: cache:6379
  rate_ttl: 2m
rates:
  recompute_workers: 8
payment:
  currency: EGP
  partner_name: Drivers
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/fleet-test.db", cfg.Database.Path)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Minute, cfg.Redis.RateTTL)
	assert.Equal(t, 8, cfg.Rates.RecomputeWorkers)
	assert.Equal(t, "EGP", cfg.Payment.Currency)
	assert.Equal(t, "Drivers", cfg.Payment.PartnerName)
	// untouched keys keep their defaults
	assert.Equal(t, "BANK", cfg.Payment.Journal)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "database:\n  path: from-file.db\n")
	t.Setenv("DATABASE_PATH", "from-env.db")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("PAYMENT_CURRENCY", "USD")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env.db", cfg.Database.Path)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, "USD", cfg.Payment.Currency)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "fleet.db"},
			Payment:  PaymentConfig{Currency: "SAR"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"no database path", func(c *Config) { c.Database.Path = "" }, true},
		{"redis without addr", func(c *Config) { c.Redis.Enabled = true }, true},
		{"no currency", func(c *Config) { c.Payment.Currency = "" }, true},
		{"negative workers", func(c *Config) { c.Rates.RecomputeWorkers = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ToContainerConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cc := cfg.ToContainerConfig()
	require.NoError(t, cc.Validate())
	assert.Equal(t, cfg.Database.Path, cc.Database.Path)
	assert.Equal(t, cfg.Redis.RateTTL, cc.Redis.RateTTL)
	assert.Equal(t, cfg.Payment.PartnerName, cc.Payment.PartnerName)
	assert.Equal(t, cfg.Server.MaxUploadBytes, cc.Server.MaxUploadBytes)
	assert.Equal(t, "json", cfg.ToLoggerConfig().Format)
}
