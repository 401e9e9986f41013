// Package rest exposes the check-in service over HTTP with JSON bodies.
package rest

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhisek/equilibrium/internal/checkin"
	"github.com/abhisek/equilibrium/internal/observe"
)

// Container holds the router's dependencies.
type Container struct {
	Service *checkin.Service
	Metrics *observe.Metrics
	Logger  *slog.Logger

	// CORSOrigins lists allowed origins. "*" allows any.
	CORSOrigins []string

	// Checkers back /readyz.
	Checkers []Checker

	// MetricsHandler serves /metrics. Defaults to promhttp.Handler().
	MetricsHandler http.Handler
}

// NewRouter creates the API router.
func NewRouter(c Container) http.Handler {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.MetricsHandler == nil {
		c.MetricsHandler = promhttp.Handler()
	}

	r := mux.NewRouter()
	r.Use(corsMiddleware(c.CORSOrigins))

	health := NewHealth(c.Checkers...)
	r.HandleFunc("/healthz", health.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", health.Readyz).Methods(http.MethodGet)
	r.Handle("/metrics", c.MetricsHandler).Methods(http.MethodGet)

	h := &handler{svc: c.Service, logger: c.Logger}

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(observe.Middleware(c.Metrics, c.Logger, routeTemplate))

	v1.HandleFunc("/checkins/step", h.step).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/checkins/commit", h.commit).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/logs/{id}", h.getLog).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/logs/{id}/recommendations", h.recommendations).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/sessions/{sessionId}/logs", h.sessionLogs).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/sessions/{sessionId}/trend", h.trend).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/sessions/{sessionId}/plan", h.plan).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/explain", h.explain).Methods(http.MethodPost, http.MethodOptions)

	return r
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return ""
}

func corsMiddleware(origins []string) mux.MiddlewareFunc {
	allowAll := len(origins) == 0 || slices.Contains(origins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(origins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", "))
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
