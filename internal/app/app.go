package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/riskibarqy/fantasy-prediction/internal/config"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/user"
	"github.com/riskibarqy/fantasy-prediction/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/fantasy-prediction/internal/infrastructure/account/firebaseauth"
	"github.com/riskibarqy/fantasy-prediction/internal/infrastructure/inflight"
	"github.com/riskibarqy/fantasy-prediction/internal/interfaces/httpapi"
	"github.com/riskibarqy/fantasy-prediction/internal/observability"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/logging"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/workerpool"
	"github.com/riskibarqy/fantasy-prediction/internal/usecase"
)

// App owns the HTTP server and every resource that must be released after it
// stops.
type App struct {
	Server  *http.Server
	closers []func(context.Context) error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (_ *App, err error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	repos, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, repos.close)

	workers, err := workerpool.New(cfg.WorkerPoolSize)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error {
		workers.Release()
		return nil
	})

	guard, closeGuard, err := newSubmitGuard(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeGuard)

	verifier, err := newTokenVerifier(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	matchSvc := usecase.NewMatchService(repos.matches, repos.players, nil)
	predictionSvc := usecase.NewPredictionService(repos.matches, repos.players, repos.predictions, guard, workers, logger)
	adminSvc := usecase.NewAdminPlayerService(repos.matches, repos.players, repos.predictions, nil, workers, logger)
	dashboardSvc := usecase.NewDashboardService(repos.matches, repos.players, repos.predictions)

	opts := httpapi.RouterOptions{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if cfg.MetricsEnabled {
		metrics := observability.NewMetrics(prometheus.NewRegistry())
		predictionSvc.SetSubmitRecorder(metrics)
		opts.Observer = metrics
		opts.MetricsHandler = metrics.Handler()
	}

	handler := httpapi.NewHandler(matchSvc, predictionSvc, adminSvc, dashboardSvc, logger)
	a.Server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, verifier, logger, opts),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	logger.Info("application wired",
		"storage", cfg.StorageDriver,
		"auth", cfg.AuthProvider,
		"cache", cfg.CacheEnabled,
		"redis_guard", cfg.RedisURL != "",
		"metrics", cfg.MetricsEnabled,
	)
	return a, nil
}

// Close releases resources in reverse acquisition order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// newSubmitGuard shares the in-flight marker through redis when REDIS_URL is
// set, so replicas refuse each other's concurrent submits.
func newSubmitGuard(ctx context.Context, cfg config.Config, logger *logging.Logger) (usecase.SubmitGuard, func(context.Context) error, error) {
	if cfg.RedisURL == "" {
		return inflight.NewMemoryGuard(), func(context.Context) error { return nil }, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	return inflight.NewRedisGuard(client, cfg.SubmitGuardTTL, logger), func(context.Context) error { return client.Close() }, nil
}

func newTokenVerifier(ctx context.Context, cfg config.Config, logger *logging.Logger) (httpapi.TokenVerifier, error) {
	admins := user.NewAdminEmails(cfg.AdminEmails)

	switch cfg.AuthProvider {
	case config.AuthFirebase:
		verifier, err := firebaseauth.NewFromCredentials(ctx, cfg.FirestoreProjectID, cfg.FirebaseCredentialsJSON, admins, logger)
		if err != nil {
			return nil, fmt.Errorf("create firebase verifier: %w", err)
		}
		return verifier, nil
	default:
		return anubis.NewClient(
			&http.Client{Timeout: cfg.AnubisTimeout},
			anubis.Config{
				BaseURL:        cfg.AnubisBaseURL,
				IntrospectPath: cfg.AnubisIntrospectURL,
				AdminKey:       cfg.AnubisAdminKey,
				CacheTTL:       cfg.AnubisCacheTTL,
				CircuitBreaker: resilience.CircuitBreakerConfig{
					Enabled:          cfg.AnubisCircuitEnabled,
					FailureThreshold: cfg.AnubisCircuitFailureCount,
					OpenTimeout:      cfg.AnubisCircuitOpenTimeout,
					HalfOpenMaxReq:   cfg.AnubisCircuitHalfOpenMaxReq,
				},
			},
			admins,
			logger,
		), nil
	}
}
