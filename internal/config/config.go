// Package config loads equilibrium's runtime configuration from an optional
// YAML file, a .env file and EQUILIBRIUM_* environment variables.
package config

import (
	"time"

	"github.com/abhisek/equilibrium/internal/llm"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// StoreDriver selects the session log backend.
type StoreDriver string

const (
	DriverSQLite StoreDriver = "sqlite"
	DriverMongo  StoreDriver = "mongo"
)

// IsValid reports whether d is a supported driver.
func (d StoreDriver) IsValid() bool {
	return d == DriverSQLite || d == DriverMongo
}

// Config is the root configuration.
type Config struct {
	LogLevel LogLevel      `yaml:"log_level"`
	Store    StoreConfig   `yaml:"store"`
	Cache    CacheConfig   `yaml:"cache"`
	Server   ServerConfig  `yaml:"server"`
	Checkin  CheckinConfig `yaml:"checkin"`
	Breaker  BreakerConfig `yaml:"breaker"`
	LLM      llm.Config    `yaml:"llm"`
}

// StoreConfig selects and locates the session log store. The SQLite
// database also holds the LLM audit events whatever Driver is.
type StoreConfig struct {
	Driver        StoreDriver `yaml:"driver"`
	Path          string      `yaml:"path"`
	MongoURI      string      `yaml:"mongo_uri"`
	MongoDatabase string      `yaml:"mongo_database"`
}

// CacheConfig enables the Redis read cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// Enabled reports whether a Redis address is configured.
func (c CacheConfig) Enabled() bool { return c.RedisAddr != "" }

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CheckinConfig tunes the caller-side retry around interview steps.
type CheckinConfig struct {
	StepAttempts int           `yaml:"step_attempts"`
	StepBackoff  time.Duration `yaml:"step_backoff"`
}

// BreakerConfig configures the circuit breaker in front of the LLM provider.
// MaxFailures of zero disables the breaker.
type BreakerConfig struct {
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
	HalfOpenMax  int           `yaml:"half_open_max"`
}

// Default returns the configuration used when nothing is set. The LLM
// provider is left empty so Load can discover one from vendor API keys.
func Default() Config {
	lc := llm.DefaultConfig()
	lc.Provider = ""
	return Config{
		LogLevel: LogInfo,
		Store:    StoreConfig{Driver: DriverSQLite, MongoDatabase: "equilibrium"},
		Cache:    CacheConfig{TTL: 24 * time.Hour},
		Server: ServerConfig{
			Addr:            ":8080",
			CORSOrigins:     []string{"*"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Checkin: CheckinConfig{StepAttempts: 3, StepBackoff: 500 * time.Millisecond},
		Breaker: BreakerConfig{MaxFailures: 5, ResetTimeout: 30 * time.Second, HalfOpenMax: 1},
		LLM:     lc,
	}
}
