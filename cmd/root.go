package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/equilibrium/internal/app"
	"github.com/abhisek/equilibrium/internal/config"
	"github.com/abhisek/equilibrium/internal/observe"
	"github.com/abhisek/equilibrium/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "equilibrium",
	Short: "Adaptive burnout check-in",
	Long: "Equilibrium runs a short adaptive burnout check-in, scores it on a " +
		"seven-area rubric and keeps a log of your results.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheckin(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides EQUILIBRIUM_DB env var)")
	pf.String("config", "", "Path to YAML config file (overrides EQUILIBRIUM_CONFIG env var)")
	pf.String("log-level", "", "Log level: debug, info, warn or error")

	// The bare command runs a check-in, so it takes the check-in flags too.
	addCheckinFlags(rootCmd)

	rootCmd.AddCommand(checkinCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the config file and environment, then applies the
// persistent flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.Path = p
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = config.LogLevel(strings.ToLower(lvl))
		if !cfg.LogLevel.IsValid() {
			return nil, fmt.Errorf("invalid --log-level %q", lvl)
		}
	}
	return cfg, nil
}

type setupOptions struct {
	app.Options

	// logTo overrides stderr, e.g. to keep log lines off a full-screen TUI.
	logTo io.Writer
}

// setup loads configuration and wires the application. The caller must
// Close the returned App.
func setup(cmd *cobra.Command, opts setupOptions) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	level, err := observe.ParseLevel(string(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	w := opts.logTo
	if w == nil {
		w = os.Stderr
	}
	opts.Logger = observe.NewLogger(w, level)

	a, err := app.Build(cmd.Context(), cfg, opts.Options)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// closeApp is deferred by commands; close errors only get logged.
func closeApp(a *app.App) {
	if err := a.Close(context.Background()); err != nil {
		a.Logger.Warn("close", "error", err)
	}
}

// resolveSession returns the session id in priority order: the --session
// flag, EQUILIBRIUM_SESSION, then an id generated once and kept next to the
// config file so trends carry across runs.
func resolveSession(cmd *cobra.Command) (string, error) {
	if s, _ := cmd.Flags().GetString("session"); s != "" {
		return s, nil
	}
	if s := os.Getenv("EQUILIBRIUM_SESSION"); s != "" {
		return s, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	path := filepath.Join(dir, "equilibrium", "session")
	if b, err := os.ReadFile(path); err == nil {
		if id := strings.TrimSpace(string(b)); id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read session id: %w", err)
	}

	id := uuid.NewString()
	if err := store.EnsureDir(path); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("save session id: %w", err)
	}
	return id, nil
}

func addSessionFlag(c *cobra.Command) {
	c.Flags().StringP("session", "s", "", "Session id (default: this machine's saved session)")
}
