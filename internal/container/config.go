// Package container provides dependency injection and lifecycle management
// for the fleet reimbursement service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Rates    RatesConfig
	Payment  PaymentConfig
	Server   ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// SkipMigrations leaves the schema untouched on start
	SkipMigrations bool
}

// RedisConfig holds rate cache settings. A disabled cache stores nothing.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int

	// RateTTL bounds how long a cached rate table lives
	RateTTL time.Duration
}

// RatesConfig holds pricing settings.
type RatesConfig struct {
	// RecomputeWorkers is the size of the pool re-pricing segments
	RecomputeWorkers int
}

// PaymentConfig holds the defaults of requests and generated payments.
type PaymentConfig struct {
	Currency    string
	PartnerName string
	Journal     string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/fleet.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			RateTTL: 10 * time.Minute,
		},
		Rates: RatesConfig{
			RecomputeWorkers: 4,
		},
		Payment: PaymentConfig{
			Currency:    "SAR",
			PartnerName: "Fleet Expenses",
			Journal:     "BANK",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  10 << 20,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Redis.Enabled && c.Redis.RateTTL <= 0 {
		return fmt.Errorf("redis.rate_ttl must be positive")
	}
	if c.Payment.Currency == "" {
		return fmt.Errorf("payment.currency is required")
	}
	if c.Rates.RecomputeWorkers < 0 {
		return fmt.Errorf("rates.recompute_workers must not be negative")
	}
	return nil
}
