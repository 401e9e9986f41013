// Package app assembles equilibrium's components from a Config: stores,
// cache, the guarded LLM provider chain and the check-in service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/equilibrium/internal/cache"
	"github.com/abhisek/equilibrium/internal/checkin"
	"github.com/abhisek/equilibrium/internal/coach"
	"github.com/abhisek/equilibrium/internal/config"
	"github.com/abhisek/equilibrium/internal/interview"
	"github.com/abhisek/equilibrium/internal/llm"
	"github.com/abhisek/equilibrium/internal/observe"
	"github.com/abhisek/equilibrium/internal/oracle"
	"github.com/abhisek/equilibrium/internal/resilience"
	"github.com/abhisek/equilibrium/internal/sessionlog"
	"github.com/abhisek/equilibrium/internal/store"
	"github.com/abhisek/equilibrium/internal/store/mongostore"
	"github.com/abhisek/equilibrium/internal/transport/rest"
)

// ErrNoProvider is reported by steps when no LLM provider is configured
// and the app was not built offline.
var ErrNoProvider = errors.New("no LLM provider configured")

// Options adjust what Build wires.
type Options struct {
	// Offline replaces the LLM oracle with the canonical seven-question
	// oracle and disables the coach flows.
	Offline bool

	Logger  *slog.Logger
	Metrics *observe.Metrics
}

// App holds the assembled components. Close releases them.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observe.Metrics

	// Store is the SQLite database. It always holds the LLM audit events
	// and holds the session logs when the driver is sqlite.
	Store *store.Store

	// Logs is the session log backend the service reads and writes.
	Logs sessionlog.Store

	// Provider serves the coach flows and retries transient failures.
	// OracleProvider serves interview steps with one vendor call per step.
	// Both are nil when offline or unconfigured and share one breaker.
	Provider       llm.Provider
	OracleProvider llm.Provider
	Breaker        *resilience.CircuitBreaker

	Service  *checkin.Service
	Checkers []rest.Checker

	closers []func(context.Context) error
}

// Build wires an App. On error everything opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: opts.Metrics}

	if err := a.openStores(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if !opts.Offline && cfg.LLM.Provider != "" {
		if err := a.openProvider(ctx); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}

	var orc interview.Oracle
	switch {
	case opts.Offline:
		orc = oracle.Canonical{}
	case a.Provider != nil:
		orc = oracle.NewLLM(a.OracleProvider, oracle.DefaultConfig())
	default:
		orc = interview.OracleFunc(func(context.Context, interview.Request) (interview.Result, error) {
			return nil, fmt.Errorf("%w: %w", interview.ErrOracleUnavailable, ErrNoProvider)
		})
	}

	deps := checkin.Deps{
		Engine: interview.NewEngine(orc,
			interview.WithLogger(logger),
			interview.WithMetrics(a.Metrics)),
		Writer: sessionlog.NewWriter(a.Logs,
			sessionlog.WithLogger(logger),
			sessionlog.WithMetrics(a.Metrics)),
		Reader: sessionlog.NewReader(a.Logs),
		Logger: logger,
	}
	if a.Provider != nil {
		deps.Recommender = coach.NewRecommender(a.Provider, coach.DefaultConfig())
		deps.Planner = coach.NewPlanner(a.Provider, coach.DefaultConfig())
		deps.Explainer = coach.NewExplainer(a.Provider, coach.DefaultConfig())
	}
	a.Service = checkin.New(deps, checkin.Config{
		StepAttempts: cfg.Checkin.StepAttempts,
		StepBackoff:  cfg.Checkin.StepBackoff,
	})
	return a, nil
}

func (a *App) openStores(ctx context.Context) error {
	cfg := a.Config

	path := cfg.Store.Path
	if path == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		path = p
	} else if err := store.EnsureDir(path); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.Store = st
	a.closers = append(a.closers, func(context.Context) error { return st.Close() })
	a.Checkers = append(a.Checkers, rest.Checker{Name: "sqlite", Check: st.Ping})

	switch cfg.Store.Driver {
	case config.DriverMongo:
		ms, disconnect, err := mongostore.Connect(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return fmt.Errorf("open mongo log store: %w", err)
		}
		a.closers = append(a.closers, disconnect)
		a.Checkers = append(a.Checkers, rest.Checker{Name: "mongo", Check: ms.Ping})
		a.Logs = ms
	default:
		a.Logs = st.Logs()
	}

	if cfg.Cache.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		lc := cache.NewLogCache(a.Logs, client, cfg.Cache.TTL, a.Logger)
		a.Checkers = append(a.Checkers, rest.Checker{Name: "redis", Check: lc.Ping})
		a.Logs = lc
	}
	return nil
}

// openProvider builds two chains over one vendor client:
// caller -> breaker -> timeout -> retry -> logging -> base for the coach and
// caller -> breaker -> timeout -> logging -> base for the oracle.
func (a *App) openProvider(ctx context.Context) error {
	cfg := a.Config
	base, err := llm.NewBaseProvider(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}
	logOpts := []llm.LoggingOption{
		llm.WithRecorder(a.Store.EventRepo()),
		llm.WithLogger(a.Logger),
		llm.WithMetrics(a.Metrics),
	}
	coachP := llm.Chain(base, cfg.LLM, logOpts...)
	oracleP := llm.SingleShot(base, cfg.LLM, logOpts...)

	if cfg.Breaker.MaxFailures > 0 {
		a.Breaker = resilience.NewCircuitBreaker(resilience.Config{
			Name:         "llm:" + cfg.LLM.Provider,
			MaxFailures:  cfg.Breaker.MaxFailures,
			ResetTimeout: cfg.Breaker.ResetTimeout,
			HalfOpenMax:  cfg.Breaker.HalfOpenMax,
			IsFailure:    resilience.ProviderFailure,
			Logger:       a.Logger,
		})
		coachP = resilience.Guard(coachP, a.Breaker)
		oracleP = resilience.Guard(oracleP, a.Breaker)
	}
	a.Provider = coachP
	a.OracleProvider = oracleP
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}
