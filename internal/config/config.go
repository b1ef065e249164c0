// Package config provides application configuration management using Viper.
// Configuration is loaded from a .env file, YAML files and environment variables.
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

// Gateway drivers.
const (
	DriverPostgres = "postgres"
	DriverREST     = "rest"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"` // development, staging, production
	Port  int    `mapstructure:"port"`
	Debug bool   `mapstructure:"debug"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Name         string        `mapstructure:"name"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	SSLMode      string        `mapstructure:"ssl_mode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GatewayConfig selects and configures the remote data service.
type GatewayConfig struct {
	Driver string     `mapstructure:"driver"` // postgres, rest, memory
	REST   RESTConfig `mapstructure:"rest"`
}

// RESTConfig holds the settings of the hosted REST data service.
type RESTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retry   RetryConfig   `mapstructure:"retry"`
	CB      CBConfig      `mapstructure:"circuit_breaker"`
}

// RetryConfig holds retry settings.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	WaitTime    time.Duration `mapstructure:"wait_time"`
	MaxWaitTime time.Duration `mapstructure:"max_wait_time"`
}

// CBConfig holds circuit breaker settings.
type CBConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// CatalogConfig holds aggregation settings.
type CatalogConfig struct {
	SourceTimeout time.Duration `mapstructure:"source_timeout"`
	FeaturedLimit int           `mapstructure:"featured_limit"`
}

// SessionsConfig holds browse session settings.
type SessionsConfig struct {
	MaxActive        int           `mapstructure:"max_active"`
	TTL              time.Duration `mapstructure:"ttl"`
	RefreshInterval  time.Duration `mapstructure:"refresh_interval"`
	RefreshOnStartup bool          `mapstructure:"refresh_on_startup"`
	Persist          bool          `mapstructure:"persist"`
}

// UploadConfig holds upload settings.
type UploadConfig struct {
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, file path
}

// SentryConfig holds Sentry error tracking settings.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RedisConfig holds Redis connection settings for upload guards and session state.
type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Addr returns the host:port address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration from file and environment variables.
// Priority: env vars (including .env) > config file > defaults
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Gateway.Driver {
	case DriverPostgres, DriverMemory:
	case DriverREST:
		if c.Gateway.REST.BaseURL == "" {
			return errors.New("config: gateway.rest.base_url is required for the rest driver")
		}
	default:
		return fmt.Errorf("config: unknown gateway driver %q", c.Gateway.Driver)
	}

	if c.Sessions.MaxActive <= 0 {
		return errors.New("config: sessions.max_active must be positive")
	}
	if c.Sessions.Persist && !c.Redis.Enabled {
		return errors.New("config: sessions.persist requires redis.enabled")
	}

	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "cinepulse-catalog")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.debug", true)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "cinepulse")
	v.SetDefault("database.user", "app")
	v.SetDefault("database.password", "secret")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", "5m")

	// Gateway defaults
	v.SetDefault("gateway.driver", DriverPostgres)
	v.SetDefault("gateway.rest.base_url", "")
	v.SetDefault("gateway.rest.api_key", "")
	v.SetDefault("gateway.rest.timeout", "10s")
	v.SetDefault("gateway.rest.retry.max_attempts", 3)
	v.SetDefault("gateway.rest.retry.wait_time", "500ms")
	v.SetDefault("gateway.rest.retry.max_wait_time", "3s")
	v.SetDefault("gateway.rest.circuit_breaker.max_requests", 3)
	v.SetDefault("gateway.rest.circuit_breaker.interval", "60s")
	v.SetDefault("gateway.rest.circuit_breaker.timeout", "30s")
	v.SetDefault("gateway.rest.circuit_breaker.failure_ratio", 0.5)

	// Catalog defaults
	v.SetDefault("catalog.source_timeout", "5s")
	v.SetDefault("catalog.featured_limit", 6)

	// Session defaults
	v.SetDefault("sessions.max_active", 1024)
	v.SetDefault("sessions.ttl", "30m")
	v.SetDefault("sessions.refresh_interval", "0s")
	v.SetDefault("sessions.refresh_on_startup", false)
	v.SetDefault("sessions.persist", false)

	// Upload defaults
	v.SetDefault("upload.lock_ttl", "30s")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	// Sentry defaults
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "cinepulse")
}
