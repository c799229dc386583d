// Package config provides configuration management for the monitoring
// service. It handles loading, validation, and access to configuration
// values from environment variables and an optional YAML file.
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/AImitSK/skamp-monitoring/internal/database"
	"github.com/AImitSK/skamp-monitoring/internal/logger"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxOpenConns int `mapstructure:"max_open_conns"`
	MaxIdleConns int `mapstructure:"max_idle_conns"`
}

// RedisConfig holds the recent-URL cache settings. An empty address
// disables the cache; dedup then always uses the database lookback.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CrawlConfig holds orchestration pass settings.
type CrawlConfig struct {
	Schedule           string        `mapstructure:"schedule"`
	PoolSize           int           `mapstructure:"pool_size"`
	ChannelConcurrency int           `mapstructure:"channel_concurrency"`
	JobTimeout         time.Duration `mapstructure:"job_timeout"`
	DrainTimeout       time.Duration `mapstructure:"drain_timeout"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout"`
	MaxRetries         int           `mapstructure:"max_retries"`
}

// ScoringConfig holds the external scoring and merge service settings.
// Empty endpoints disable the respective integration.
type ScoringConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	MergeEndpoint string `mapstructure:"merge_endpoint"`
	Secret        string `mapstructure:"secret"`
}

// SecurityConfig holds API authentication settings.
type SecurityConfig struct {
	MonitoringSecret string `mapstructure:"monitoring_secret"`
	AdminKey         string `mapstructure:"admin_key"`
	RateLimit        int    `mapstructure:"rate_limit"`
}

// Config represents the application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logger   logger.Config  `mapstructure:"logger"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Security SecurityConfig `mapstructure:"security"`
}

// Load unmarshals the current viper state into a typed Config.
// InitializeViper must have been called first.
func Load() (*Config, error) {
	var cfg Config

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))

	if err := viper.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("%w: database host", ErrMissingField)
	}

	if c.Database.Name == "" {
		return fmt.Errorf("%w: database name", ErrMissingField)
	}

	if c.Security.MonitoringSecret == "" {
		return ErrMissingSecret
	}

	return nil
}

// DatabaseConnConfig converts the database section into the connection
// config the database package expects.
func (c *Config) DatabaseConnConfig() database.Config {
	return database.Config{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		DBName:   c.Database.Name,
		SSLMode:  c.Database.SSLMode,

		MaxOpenConns: c.Database.MaxOpenConns,
		MaxIdleConns: c.Database.MaxIdleConns,
	}
}
