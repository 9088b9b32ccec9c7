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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchdeck/internal/cache"
	"github.com/kailas-cloud/searchdeck/internal/config"
	"github.com/kailas-cloud/searchdeck/internal/db"
	dbRedis "github.com/kailas-cloud/searchdeck/internal/db/redis"
	"github.com/kailas-cloud/searchdeck/internal/domain/persona"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/filter"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/mode"
	logpkg "github.com/kailas-cloud/searchdeck/internal/logger"
	"github.com/kailas-cloud/searchdeck/internal/metrics"
	"github.com/kailas-cloud/searchdeck/internal/transport/backend"
	chiTransport "github.com/kailas-cloud/searchdeck/internal/transport/chi"
	"github.com/kailas-cloud/searchdeck/internal/version"
	healthuc "github.com/kailas-cloud/searchdeck/internal/usecase/health"
	resourceuc "github.com/kailas-cloud/searchdeck/internal/usecase/resource"
	searchuc "github.com/kailas-cloud/searchdeck/internal/usecase/search"
)

const sessionSweepInterval = time.Minute

func main() {
	// Secrets such as BACKEND_API_KEY may come from a local .env file
	_ = godotenv.Load()

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

	logger.Info("Starting searchdeck server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Snapshot store is optional: the memory driver keeps resources in-process only
	var store db.Store
	switch cfg.Cache.Driver {
	case "redis", "valkey":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Cache.Addrs,
			Username:   cfg.Cache.Username,
			Password:   cfg.Cache.Password,
			DB:         cfg.Cache.DB,
			Standalone: cfg.Cache.Standalone,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Register backend metrics explicitly (no init())
	metrics.RegisterBackendMetrics()

	// Streams stay open for the whole answer, so only the wait for headers is bounded
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = time.Duration(cfg.Backend.TimeoutSec) * time.Second
	client, err := backend.NewClient(backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		APIKey:     cfg.Backend.APIKey,
		HTTPClient: &http.Client{Transport: transport},
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("Failed to create backend client", zap.Error(err))
	}

	cacheCfg := cache.Config{
		SnapshotTTL: time.Duration(cfg.Cache.SnapshotTTLSec) * time.Second,
		Lookups:     metrics.CacheTotal,
		Fetches:     metrics.CacheFetchesTotal,
		Logger:      logger,
	}
	// Pass nil interface (not typed nil pointer) when no store is configured.
	var healthStore healthuc.StorePinger
	if store != nil {
		cacheCfg.Snapshots = store
		healthStore = store
	}
	resources := cache.New(cacheCfg)

	hooks := resourceuc.NewHooks(resources, client, resourceuc.Config{
		Enterprise:            cfg.Features.EnterpriseEnabled,
		IndexingStatusRefresh: time.Duration(cfg.Cache.IndexingStatusRefreshSec) * time.Second,
	})
	hooks.IndexingStatus().StartPolling(ctx)

	personas, docSets := buildCatalog(cfg.Search)
	newSection := func() *searchuc.Section {
		return searchuc.New(client, searchuc.Config{
			Personas:          personas,
			DocumentSets:      docSets,
			Sources:           cfg.Search.Sources,
			DefaultSearchType: mode.SearchType(cfg.Search.DefaultSearchType),
			Logger:            logger,
			Outcomes:          metrics.SearchesTotal,
		})
	}

	healthSvc := healthuc.New(client, healthStore)

	server := chiTransport.NewServer(
		newSection, hooks, healthSvc,
		time.Duration(cfg.Sessions.IdleTTLSec)*time.Second, logger,
	)
	go server.RunSessionSweeper(ctx, sessionSweepInterval)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildCatalog resolves the configured personas and document sets.
// Persona document sets are referenced by name; Validate guarantees they exist.
func buildCatalog(sc config.SearchConfig) ([]persona.Persona, []filter.DocumentSet) {
	docSets := make([]filter.DocumentSet, 0, len(sc.DocumentSets))
	byName := make(map[string]filter.DocumentSet, len(sc.DocumentSets))
	for _, ds := range sc.DocumentSets {
		set := filter.DocumentSet{ID: ds.ID, Name: ds.Name, Sources: ds.Sources}
		docSets = append(docSets, set)
		byName[ds.Name] = set
	}

	personas := make([]persona.Persona, 0, len(sc.Personas))
	for _, p := range sc.Personas {
		pp := persona.Persona{ID: p.ID, Name: p.Name, Description: p.Description}
		for _, name := range p.DocumentSets {
			pp.DocumentSets = append(pp.DocumentSets, byName[name])
		}
		personas = append(personas, pp)
	}
	return personas, docSets
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("session_id", r.Header.Get("X-Session-ID")),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
