package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/equilibrium/internal/config"
)

// isolate runs the test in an empty directory with no provider keys and no
// default config file in reach.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, k := range []string{
		"EQUILIBRIUM_CONFIG", "EQUILIBRIUM_LLM_PROVIDER", "EQUILIBRIUM_LOG_LEVEL", "EQUILIBRIUM_DB",
		"EQUILIBRIUM_STORE_DRIVER", "EQUILIBRIUM_MONGO_URI", "EQUILIBRIUM_REDIS_ADDR", "EQUILIBRIUM_REDIS_DB",
		"EQUILIBRIUM_ANTHROPIC_API_KEY", "EQUILIBRIUM_OPENAI_API_KEY", "EQUILIBRIUM_GEMINI_API_KEY",
		"EQUILIBRIUM_OPENROUTER_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"OPENROUTER_API_KEY", "EQUILIBRIUM_HTTP_ADDR",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != config.LogInfo || cfg.Store.Driver != config.DriverSQLite {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Checkin.StepAttempts != 3 || cfg.Server.Addr != ":8080" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.LLM.Provider != "" {
		t.Errorf("provider = %q, want empty without keys", cfg.LLM.Provider)
	}
	if cfg.Cache.Enabled() {
		t.Error("cache should be disabled by default")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "equilibrium.yaml")
	yaml := `
log_level: debug
store:
  path: /tmp/x.db
checkin:
  step_attempts: 5
  step_backoff: 2s
llm:
  provider: openai
  openai:
    model: gpt-4o
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EQUILIBRIUM_OPENAI_API_KEY", "sk-test")
	t.Setenv("EQUILIBRIUM_DB", "/tmp/env.db")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != config.LogDebug {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.Store.Path != "/tmp/env.db" {
		t.Errorf("env should override file, path = %q", cfg.Store.Path)
	}
	if cfg.Checkin.StepAttempts != 5 || cfg.Checkin.StepBackoff != 2*time.Second {
		t.Errorf("checkin = %+v", cfg.Checkin)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.OpenAI.APIKey != "sk-test" || cfg.LLM.OpenAI.Model != "gpt-4o" {
		t.Errorf("llm = %+v", cfg.LLM.OpenAI)
	}
	if cfg.LLM.Retry.MaxAttempts != 3 {
		t.Errorf("retry defaults lost: %+v", cfg.LLM.Retry)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	// t.Setenv("X", "") leaves X set, and godotenv never overrides set
	// variables, so drop the key before loading.
	os.Unsetenv("GEMINI_API_KEY")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("GEMINI_API_KEY") })

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != "gemini" || cfg.LLM.Gemini.APIKey != "from-dotenv" {
		t.Errorf("llm = %s %+v", cfg.LLM.Provider, cfg.LLM.Gemini)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	if _, err := config.Load(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("log_levle: debug\n"))
	if err == nil || !strings.Contains(err.Error(), "log_levle") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestLoadFromReader_Empty(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "loud"
	cfg.Store.Driver = config.DriverMongo
	cfg.Checkin.StepAttempts = 0

	err := config.Validate(&cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"log_level", "mongo_uri", "step_attempts"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestValidate_BreakerNeedsTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Breaker.ResetTimeout = 0
	if err := config.Validate(&cfg); err == nil || !strings.Contains(err.Error(), "reset_timeout") {
		t.Fatalf("expected reset_timeout error, got %v", err)
	}
	cfg.Breaker.MaxFailures = 0
	if err := config.Validate(&cfg); err != nil {
		t.Fatalf("disabled breaker should validate: %v", err)
	}
}
