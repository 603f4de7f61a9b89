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

	"github.com/campusply/ragcore/internal/config"
	"github.com/campusply/ragcore/internal/db"
	dbRedis "github.com/campusply/ragcore/internal/db/redis"
	logpkg "github.com/campusply/ragcore/internal/logger"
	"github.com/campusply/ragcore/internal/metrics"
	blobrepo "github.com/campusply/ragcore/internal/repository/blob"
	documentrepo "github.com/campusply/ragcore/internal/repository/document"
	"github.com/campusply/ragcore/internal/repository/embcache"
	fragmentrepo "github.com/campusply/ragcore/internal/repository/fragment"
	settingsrepo "github.com/campusply/ragcore/internal/repository/settings"
	chiTransport "github.com/campusply/ragcore/internal/transport/chi"
	openaiProvider "github.com/campusply/ragcore/internal/transport/openai"
	"github.com/campusply/ragcore/internal/usecase/classify"
	"github.com/campusply/ragcore/internal/usecase/embedding"
	"github.com/campusply/ragcore/internal/usecase/extract"
	"github.com/campusply/ragcore/internal/usecase/ingest"
	"github.com/campusply/ragcore/internal/usecase/retrieval"
	"github.com/campusply/ragcore/internal/usecase/rewrite"
	"github.com/campusply/ragcore/internal/usecase/settingscache"
	"github.com/campusply/ragcore/internal/usecase/tables"
	"github.com/campusply/ragcore/internal/version"
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

	logger.Info("Starting ragcore API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterChatMetrics()
	metrics.RegisterPipelineMetrics()

	if err := ensureIndexes(ctx, store, cfg); err != nil {
		logger.Fatal("Failed to create search indexes", zap.Error(err))
	}

	// Providers
	baseEmbedder := openaiProvider.NewEmbedder(&openaiProvider.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})
	embedder := embcache.New(baseEmbedder, store, metrics.EmbeddingCacheTotal, logger)
	chat := openaiProvider.NewChatClient(&openaiProvider.ChatConfig{
		APIKey:  cfg.Chat.APIKey,
		BaseURL: cfg.Chat.BaseURL,
		Model:   cfg.Chat.Model,
		Logger:  logger,
	})
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("chat_model", cfg.Chat.Model),
	)

	// Repositories
	fragRepo := fragmentrepo.New(store)
	docRepo := documentrepo.New(store)
	settingsRepo := settingsrepo.New(store)
	blobRepo := blobrepo.New(store)

	// Ingestion pipeline
	extractor := extract.New(chat, logger)
	classifier := classify.New(chat, logger)
	tableSvc := tables.New(chat, logger)
	batcher := embedding.NewBatcher(embedder, logger)
	orchestrator := ingest.NewOrchestrator(
		docRepo, fragRepo, blobRepo,
		extractor, classifier, tableSvc, batcher,
		"ko", logger,
	)

	// Retrieval engine
	settingsCache := settingscache.New(settingsRepo, logger)
	rewriter := rewrite.New(chat, logger)
	engine := retrieval.NewEngine(settingsCache, rewriter, embedder, fragRepo, fragRepo, logger)

	// HTTP server
	server := chiTransport.NewServer(
		docRepo, fragRepo, blobRepo,
		orchestrator, engine,
		settingsRepo, settingsCache,
		store, logger,
	)

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

// ensureIndexes creates the fragment and document search indexes if they
// do not exist yet.
func ensureIndexes(ctx context.Context, store db.Store, cfg config.Config) error {
	fragIdx, err := fragmentrepo.BuildIndex(cfg.Embedding.Dimensions, fragmentrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	if err != nil {
		return fmt.Errorf("build fragment index: %w", err)
	}

	for _, def := range []*db.IndexDefinition{fragIdx, documentrepo.BuildIndex()} {
		if err := store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("create index %s: %w", def.Name, err)
		}
	}
	return nil
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
