package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/equilibrium/internal/app"
	"github.com/abhisek/equilibrium/internal/observe"
	"github.com/abhisek/equilibrium/internal/transport/rest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the check-in HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		offline, _ := cmd.Flags().GetBool("offline")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer shutdownTelemetry(context.Background())

		a, err := setup(cmd, setupOptions{Options: app.Options{
			Offline: offline,
			Metrics: observe.DefaultMetrics(),
		}})
		if err != nil {
			return err
		}
		defer closeApp(a)

		cfg := a.Config.Server
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		if a.Provider == nil && !offline {
			a.Logger.Warn("no LLM provider configured, check-in steps will report unavailable")
		}

		srv := &http.Server{
			Addr: cfg.Addr,
			Handler: rest.NewRouter(rest.Container{
				Service:     a.Service,
				Metrics:     a.Metrics,
				Logger:      a.Logger,
				CORSOrigins: cfg.CORSOrigins,
				Checkers:    a.Checkers,
			}),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			a.Logger.Info("server starting", "addr", cfg.Addr, "store", a.Config.Store.Driver, "cache", a.Config.Cache.Enabled())
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		a.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		a.Logger.Info("server exited")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().Bool("offline", false, "Use the seven standard questions instead of an LLM")
}
