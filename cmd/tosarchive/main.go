package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tosarchive/internal/config"
	"github.com/kailas-cloud/tosarchive/internal/corpus"
	"github.com/kailas-cloud/tosarchive/internal/dataset"
	"github.com/kailas-cloud/tosarchive/internal/db"
	dbRedis "github.com/kailas-cloud/tosarchive/internal/db/redis"
	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
	logpkg "github.com/kailas-cloud/tosarchive/internal/logger"
	"github.com/kailas-cloud/tosarchive/internal/metrics"
	"github.com/kailas-cloud/tosarchive/internal/repository/scancache"
	chiTransport "github.com/kailas-cloud/tosarchive/internal/transport/chi"
	"github.com/kailas-cloud/tosarchive/internal/transport/doctypes"
	cataloguc "github.com/kailas-cloud/tosarchive/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/tosarchive/internal/usecase/health"
	resolveruc "github.com/kailas-cloud/tosarchive/internal/usecase/resolver"
	scanneruc "github.com/kailas-cloud/tosarchive/internal/usecase/scanner"
	statsuc "github.com/kailas-cloud/tosarchive/internal/usecase/stats"
	"github.com/kailas-cloud/tosarchive/internal/version"
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

	logger.Info("Starting tosarchive API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("base_path", cfg.HTTP.BasePath),
		zap.String("corpus_root", cfg.Corpus.Root),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Corpus
	layout, err := snapshot.NewLayout(cfg.Corpus.TimestampLayout)
	if err != nil {
		logger.Fatal("Invalid timestamp layout", zap.Error(err))
	}
	ix, err := corpus.Open(corpus.Config{
		Root:           cfg.Corpus.Root,
		Layout:         layout,
		ReadmeFilename: cfg.Corpus.ReadmeFilename,
	})
	if err != nil {
		logger.Fatal("Corpus not available", zap.Error(err))
	}

	// Dataset release marker, reloaded when the download process rewrites it
	marker := dataset.NewMarker(cfg.Dataset.MarkerPath, logger)
	if err := marker.Load(); err != nil {
		logger.Warn("Failed to read dataset marker", zap.String("path", marker.Path()), zap.Error(err))
	}
	logger.Info("Dataset version", zap.String("url", marker.URL()))
	go func() {
		if err := marker.Watch(ctx, dataset.DefaultDebounce); err != nil {
			logger.Error("Dataset marker watcher stopped", zap.Error(err))
		}
	}()

	// Register scan and dependency metrics explicitly
	metrics.RegisterScanMetrics()

	// Optional result cache
	store, err := buildStore(ctx, cfg.Cache, logger)
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	// Use case services
	resolverSvc := resolveruc.New(ix)
	if cfg.Corpus.IndexCache {
		resolverSvc = resolverSvc.WithIndexCache(ix)
	}

	scannerSvc := scanneruc.New(ix, scanneruc.Config{
		Workers:        cfg.Scanner.Workers,
		MaxLineBytes:   cfg.Scanner.MaxLineBytes,
		SkipUnreadable: cfg.Scanner.OnUnreadable == config.OnUnreadableSkip,
	}, logger).WithRecorder(metrics.ScanRecorder{})
	if store != nil {
		ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
		scannerSvc = scannerSvc.WithCache(scancache.New(store, marker, ttl, metrics.ScanCacheTotal, logger))
	}

	taxonomy := doctypes.NewClient(&doctypes.Config{
		URL:           cfg.Dataset.DoctypeURL,
		Logger:        logger,
		RequestsTotal: metrics.UpstreamRequestsTotal,
	})
	catalogSvc := cataloguc.New(ix, taxonomy, marker)
	statsSvc := statsuc.New(ix)

	// Pass nil interface (not typed nil pointer!) when the cache is disabled.
	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(ix, cachePinger)

	// Create chi server
	server := chiTransport.NewServer(resolverSvc, scannerSvc, statsSvc, catalogSvc, healthSvc, logger).
		WithBasePath(cfg.HTTP.BasePath)

	var limiters *chiTransport.LimiterRegistry
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiters = chiTransport.NewLimiterRegistry(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		go limiters.Run(ctx, 10*time.Minute)
	}

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware(cfg.HTTP.CORSOrigins))
	r.Use(chiTransport.RateLimitMiddleware(limiters, metrics.RateLimitedTotal))
	r.Use(metrics.Middleware())
	server.Register(r)

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildStore connects the cache backend. Returns nil when caching is disabled.
func buildStore(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (db.Store, error) {
	if cfg.Driver != config.CacheRedis {
		return nil, nil
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("cache not ready: %w", err)
	}
	logger.Info("Connected to cache", zap.Strings("addrs", cfg.Addrs))
	return store, nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
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
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", chi.RouteContext(r.Context()).RoutePattern()),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
