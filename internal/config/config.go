// Package config defines the risk engine configuration and its loader.
// Configuration comes from a YAML file with environment variable
// overrides declared through `env` struct tags.
package config

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	defaultServiceName    = "risk-engine"
	defaultServiceVersion = "1.0.0"
	defaultServicePort    = 8080
	defaultConcurrency    = 4
	defaultBatchSize      = 50
	defaultPollInterval   = 30 * time.Second
	defaultRequestsPerMin = 30
	defaultDBHost         = "localhost"
	defaultDBPort         = 5432
	defaultDBUser         = "postgres"
	defaultDBName         = "risk_engine"
	defaultDBSSLMode      = "disable"
	defaultDBMaxConns     = 25
	defaultDBMaxIdleConns = 5
	defaultDBConnLifetime = 5 * time.Minute
	defaultRedisURL       = "localhost:6379"
	defaultCacheTTL       = 24 * time.Hour
	defaultGeminiTimeout  = 30 * time.Second
	defaultLogLevel       = "info"
)

// Config holds all configuration for the risk engine.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Processor ProcessorConfig `yaml:"processor"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"RISK_ENGINE_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"        yaml:"debug"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string        `env:"POSTGRES_HOST"     yaml:"host"`
	Port            int           `env:"POSTGRES_PORT"     yaml:"port"`
	User            string        `env:"POSTGRES_USER"     yaml:"user"`
	Password        string        `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database        string        `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode         string        `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxIdleConns    int           `yaml:"max_idle_connections"`
	ConnMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig holds Redis cache configuration. The cache is optional:
// with Enabled false the engine classifies every comment from scratch.
type RedisConfig struct {
	Enabled  bool          `env:"REDIS_ENABLED"  yaml:"enabled"`
	URL      string        `env:"REDIS_URL"      yaml:"url"`
	Password string        `env:"REDIS_PASSWORD" yaml:"password"`
	Database int           `yaml:"database"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// GeminiConfig holds generation model configuration. With UseModel
// false (or no API key) all assessment runs on the keyword classifier.
type GeminiConfig struct {
	APIKey   string        `env:"GEMINI_API_KEY"   yaml:"api_key"`
	Model    string        `env:"GEMINI_MODEL"     yaml:"model"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	UseModel bool          `env:"GEMINI_USE_MODEL" yaml:"use_model"`
}

// ProcessorConfig holds background processor configuration.
type ProcessorConfig struct {
	Concurrency    int           `env:"PROCESSOR_CONCURRENCY" yaml:"concurrency"`
	BatchSize      int           `yaml:"batch_size"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	RequestsPerMin int           `yaml:"requests_per_minute"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level       string `env:"LOG_LEVEL" yaml:"level"`
	Development bool   `yaml:"development"`
}

// SetDefaults applies default values to unset fields.
func (c *Config) SetDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = defaultServiceName
	}
	if c.Service.Version == "" {
		c.Service.Version = defaultServiceVersion
	}
	if c.Service.Port == 0 {
		c.Service.Port = defaultServicePort
	}
	if c.Database.Host == "" {
		c.Database.Host = defaultDBHost
	}
	if c.Database.Port == 0 {
		c.Database.Port = defaultDBPort
	}
	if c.Database.User == "" {
		c.Database.User = defaultDBUser
	}
	if c.Database.Database == "" {
		c.Database.Database = defaultDBName
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = defaultDBSSLMode
	}
	if c.Database.MaxConnections == 0 {
		c.Database.MaxConnections = defaultDBMaxConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaultDBMaxIdleConns
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = defaultDBConnLifetime
	}
	if c.Redis.URL == "" {
		c.Redis.URL = defaultRedisURL
	}
	if c.Redis.CacheTTL == 0 {
		c.Redis.CacheTTL = defaultCacheTTL
	}
	if c.Gemini.Timeout == 0 {
		c.Gemini.Timeout = defaultGeminiTimeout
	}
	if c.Processor.Concurrency == 0 {
		c.Processor.Concurrency = defaultConcurrency
	}
	if c.Processor.BatchSize == 0 {
		c.Processor.BatchSize = defaultBatchSize
	}
	if c.Processor.PollInterval == 0 {
		c.Processor.PollInterval = defaultPollInterval
	}
	if c.Processor.RequestsPerMin == 0 {
		c.Processor.RequestsPerMin = defaultRequestsPerMin
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// Validate checks config invariants that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Service.Port <= 0 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid service port: %d", c.Service.Port)
	}
	if c.Gemini.UseModel && c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.use_model is set but no API key is configured")
	}
	if c.Processor.Concurrency < 1 {
		return fmt.Errorf("processor concurrency must be at least 1, got %d", c.Processor.Concurrency)
	}
	return nil
}
