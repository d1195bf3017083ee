package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-admin/internal/audit"
	"github.com/gokatarajesh/quiz-admin/internal/auth"
	"github.com/gokatarajesh/quiz-admin/internal/auth/jwt"
	"github.com/gokatarajesh/quiz-admin/internal/config"
	"github.com/gokatarajesh/quiz-admin/internal/db/repository"
	"github.com/gokatarajesh/quiz-admin/internal/logging"
	"github.com/gokatarajesh/quiz-admin/internal/metrics"
	"github.com/gokatarajesh/quiz-admin/internal/proxy"
	"github.com/gokatarajesh/quiz-admin/internal/server"
	"github.com/gokatarajesh/quiz-admin/internal/subtopic"
	"github.com/gokatarajesh/quiz-admin/internal/upstream"
)

// Application aggregates shared infrastructure (upstream client, optional
// cache and audit store, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	journal   *audit.Journal
	retention *audit.RetentionWorker
	bgCancels []context.CancelFunc
	bgDone    []chan struct{}
}

// New bootstraps logger, metrics, optional Postgres and Redis, and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client := upstream.NewClient(upstream.Options{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
		Observe: m.ObserveUpstream,
	}, logger)

	a := &Application{cfg: cfg, logger: logger}

	cache := subtopic.Cache(subtopic.NopCache{})
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		cache = subtopic.NewRedisCache(a.redis, cfg.Redis.SubtopicTTL)
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; subtopic cache disabled")
	}

	var recorder audit.Recorder = audit.Nop{}
	if cfg.Postgres.Enabled() {
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pool = pool
		repo := repository.NewAuditRepository(pool)
		a.journal = audit.NewJournal(repo, audit.JournalOptions{
			QueueSize:    cfg.Audit.QueueSize,
			WriteTimeout: cfg.Audit.WriteTimeout,
		}, logger)
		a.retention = audit.NewRetentionWorker(repo, cfg.Audit.Retention, cfg.Audit.PruneInterval, logger)
		recorder = a.journal
	} else {
		logger.Warn().Msg("PG_HOST not set; audit journal disabled")
	}

	var verifier auth.Verifier
	if cfg.Security.JWTSecret != "" {
		verifier = jwt.NewManager(jwt.TokenConfig{
			Secret: []byte(cfg.Security.JWTSecret),
			Issuer: cfg.Security.JWTIssuer,
		})
	} else {
		logger.Warn().Msg("JWT_SECRET not set; bearer tokens are forwarded unverified")
	}

	handler := proxy.NewHandler(client, proxy.Options{
		Subtopics: subtopic.NewService(cache, logger),
		Audit:     recorder,
	}, logger)

	a.http = server.NewHTTPServer(cfg, logger, server.Deps{
		Proxy:    handler,
		Verifier: verifier,
		Metrics:  m,
		Gatherer: reg,
		Pool:     a.pool,
		Redis:    a.redis,
	})
	return a, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}
	for _, done := range a.bgDone {
		select {
		case <-done:
		case <-shutdownCtx.Done():
		}
	}

	a.close()
	a.logger.Info().Msg("shutdown complete")
	return runErr
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.journal != nil {
		a.goWorker(ctx, "audit journal", a.journal.Run)
	}
	if a.retention != nil {
		a.goWorker(ctx, "audit retention worker", a.retention.Run)
	}
}

func (a *Application) goWorker(ctx context.Context, name string, run func(context.Context) error) {
	bgCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.bgCancels = append(a.bgCancels, cancel)
	a.bgDone = append(a.bgDone, done)
	go func() {
		defer close(done)
		if err := run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn().Err(err).Msg(name + " stopped")
		}
	}()
}

func (a *Application) close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}
}
