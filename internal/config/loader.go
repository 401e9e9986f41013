package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/equilibrium/internal/llm"
)

// DefaultPath returns the config file looked up when no path is given:
// $EQUILIBRIUM_CONFIG, else $XDG_CONFIG_HOME/equilibrium/config.yaml.
func DefaultPath() string {
	if p := os.Getenv("EQUILIBRIUM_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "equilibrium", "config.yaml")
}

// Load builds the configuration. It loads .env from the working directory
// when present, starts from Default, decodes the YAML file at path, overlays
// the environment and validates the result. An empty path falls back to
// DefaultPath, which may be missing.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			if err := decode(f, &cfg); err != nil {
				return nil, fmt.Errorf("config: parse %q: %w", path, err)
			}
		case explicit || !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	resolveLLM(&cfg.LLM)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromReader decodes YAML from r over Default and validates it. The
// environment is not consulted.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("EQUILIBRIUM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = LogLevel(v)
	}
	if v := os.Getenv("EQUILIBRIUM_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = StoreDriver(v)
	}
	setString(&cfg.Store.Path, "EQUILIBRIUM_DB")
	setString(&cfg.Store.MongoURI, "EQUILIBRIUM_MONGO_URI")
	setString(&cfg.Store.MongoDatabase, "EQUILIBRIUM_MONGO_DATABASE")
	setString(&cfg.Cache.RedisAddr, "EQUILIBRIUM_REDIS_ADDR")
	setString(&cfg.Cache.RedisPassword, "EQUILIBRIUM_REDIS_PASSWORD")
	setString(&cfg.Server.Addr, "EQUILIBRIUM_HTTP_ADDR")

	if v := os.Getenv("EQUILIBRIUM_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: EQUILIBRIUM_REDIS_DB: %w", err)
		}
		cfg.Cache.RedisDB = n
	}

	cfg.LLM.ApplyEnv()
	return nil
}

// resolveLLM picks a provider from the vendors' own API key variables when
// none was configured.
func resolveLLM(c *llm.Config) {
	if c.Provider != "" {
		return
	}
	found, ok := llm.DiscoverConfig()
	if !ok {
		return
	}
	c.Provider = found.Provider
	switch found.Provider {
	case "gemini":
		c.Gemini.APIKey = found.Gemini.APIKey
	case "openai":
		c.OpenAI.APIKey = found.OpenAI.APIKey
	case "anthropic":
		c.Anthropic.APIKey = found.Anthropic.APIKey
	case "openrouter":
		c.OpenRouter.APIKey = found.OpenRouter.APIKey
	}
}

// Validate checks cfg for coherence and returns every problem found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if !cfg.Store.Driver.IsValid() {
		errs = append(errs, fmt.Errorf("store.driver %q is invalid; valid values: sqlite, mongo", cfg.Store.Driver))
	}
	if cfg.Store.Driver == DriverMongo {
		if cfg.Store.MongoURI == "" {
			errs = append(errs, errors.New("store.mongo_uri is required for the mongo driver"))
		}
		if cfg.Store.MongoDatabase == "" {
			errs = append(errs, errors.New("store.mongo_database is required for the mongo driver"))
		}
	}
	if cfg.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	if cfg.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if cfg.Checkin.StepAttempts < 1 {
		errs = append(errs, fmt.Errorf("checkin.step_attempts must be at least 1, got %d", cfg.Checkin.StepAttempts))
	}
	if cfg.Checkin.StepBackoff < 0 {
		errs = append(errs, errors.New("checkin.step_backoff must not be negative"))
	}
	if cfg.Breaker.MaxFailures < 0 || cfg.Breaker.HalfOpenMax < 0 || cfg.Breaker.ResetTimeout < 0 {
		errs = append(errs, errors.New("breaker values must not be negative"))
	}
	if cfg.Breaker.MaxFailures > 0 && cfg.Breaker.ResetTimeout == 0 {
		errs = append(errs, errors.New("breaker.reset_timeout is required when the breaker is enabled"))
	}

	return errors.Join(errs...)
}
