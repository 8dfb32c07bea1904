package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tiergate/internal/config"
	dbMongo "github.com/kailas-cloud/tiergate/internal/db/mongo"
	dbRedis "github.com/kailas-cloud/tiergate/internal/db/redis"
	"github.com/kailas-cloud/tiergate/internal/health"
	logpkg "github.com/kailas-cloud/tiergate/internal/logger"
	"github.com/kailas-cloud/tiergate/internal/metrics"
	"github.com/kailas-cloud/tiergate/internal/recommender"
	cacherepo "github.com/kailas-cloud/tiergate/internal/repository/cache"
	catalogrepo "github.com/kailas-cloud/tiergate/internal/repository/catalog"
	trendrepo "github.com/kailas-cloud/tiergate/internal/repository/trend"
	chiTransport "github.com/kailas-cloud/tiergate/internal/transport/chi"
	gatewayuc "github.com/kailas-cloud/tiergate/internal/usecase/gateway"
	healthuc "github.com/kailas-cloud/tiergate/internal/usecase/health"
	ratelimituc "github.com/kailas-cloud/tiergate/internal/usecase/ratelimit"
	seeduc "github.com/kailas-cloud/tiergate/internal/usecase/seed"
	"github.com/kailas-cloud/tiergate/internal/usecase/synth"
	"github.com/kailas-cloud/tiergate/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tiergate gateway",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
		zap.String("primary_db", cfg.Primary.Database),
	)

	ctx := context.Background()

	cacheStore, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:     cfg.Cache.Addrs,
		Username:  cfg.Cache.Username,
		Password:  cfg.Cache.Password,
		DB:        cfg.Cache.DB,
		OpTimeout: time.Duration(cfg.Cache.OpTimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer cacheStore.Close()

	primaryStore, err := dbMongo.NewStore(ctx, dbMongo.Config{
		URI:        cfg.Primary.URI,
		Database:   cfg.Primary.Database,
		Collection: cfg.Primary.Collection,
		OpTimeout:  time.Duration(cfg.Primary.OpTimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create primary store", zap.Error(err))
	}
	defer func() { _ = primaryStore.Close(ctx) }()

	// Startup connectivity probe. Neither tier is required to be up:
	// the gateway degrades instead of refusing to start.
	tracker := health.NewTracker()
	tracker.MarkCache(cacheStore.Ping(ctx) == nil)
	tracker.MarkPrimary(primaryStore.Ping(ctx) == nil)
	cacheUp, primaryUp := tracker.Snapshot()
	logger.Info("Tier connectivity",
		zap.Bool("cache", cacheUp),
		zap.Bool("primary", primaryUp),
	)

	metrics.RegisterResponseMetrics()

	// Repositories
	cacheRepo := cacherepo.New(cacheStore, tracker, logger)
	trendRepo := trendrepo.New(cacheStore, tracker, logger)
	catalogRepo := catalogrepo.New(primaryStore, tracker)

	// Similarity model (optional)
	rec := recommender.New(recommender.Config{
		ArtifactPath: cfg.Recommender.ArtifactPath,
		APIKey:       cfg.Recommender.APIKey,
		BaseURL:      cfg.Recommender.BaseURL,
		Model:        cfg.Recommender.Model,
	}, logger)

	// Use case services
	gatewaySvc := gatewayuc.New(cacheRepo, catalogRepo, trendRepo, rec, synth.New(), logger)
	healthSvc := healthuc.New(cacheStore, primaryStore, tracker)
	limiter := ratelimituc.New(cacheRepo, cfg.RateLimit.PerMinute, logger)
	seeder := seeduc.New(catalogRepo, seeduc.Config{
		Enabled:   cfg.Seed.Enabled,
		Target:    cfg.Seed.Target,
		BatchSize: cfg.Seed.BatchSize,
	}, logger)

	// Seed in the background once the primary tier is known reachable.
	// Seeding failures leave the gateway queryable, never fatal.
	if primaryUp {
		go seeder.Run(ctx)
	}

	server := chiTransport.NewServer(gatewaySvc, healthSvc, limiter)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
