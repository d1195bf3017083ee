package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-admin/internal/auth"
	"github.com/gokatarajesh/quiz-admin/internal/config"
	"github.com/gokatarajesh/quiz-admin/internal/logging"
	"github.com/gokatarajesh/quiz-admin/internal/metrics"
	"github.com/gokatarajesh/quiz-admin/internal/proxy"
)

// Deps are the collaborators mounted by NewHTTPServer. Pool and Redis may be
// nil when the audit journal or the cache is disabled; Verifier may be nil
// for presence-only bearer checks.
type Deps struct {
	Proxy    *proxy.Handler
	Verifier auth.Verifier
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Pool     *pgxpool.Pool
	Redis    *redis.Client
}

// NewHTTPServer wires health, metrics and the authenticated proxy routes.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, deps Deps) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: NewRouter(cfg, logger, deps),
	}
}

// NewRouter builds the full handler chain without binding an address.
func NewRouter(cfg *config.App, logger zerolog.Logger, deps Deps) http.Handler {
	r := mux.NewRouter()
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), deps.Pool, deps.Redis); err != nil {
			logger := logging.FromContext(r.Context())
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	}).Methods(http.MethodGet)

	if deps.Proxy != nil {
		api := r.NewRoute().Subrouter()
		api.Use(auth.RequireBearer(deps.Verifier, logger))
		deps.Proxy.Register(api)
	}

	var h http.Handler = r
	h = proxy.WithRequestID(logger)(h)
	h = proxy.CORS(cfg.CORS)(h)
	return h
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redis *redis.Client) error {
	if pool != nil {
		if err := pool.Ping(ctx); err != nil {
			return err
		}
	}
	if redis != nil {
		if err := redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}
