package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/curriculum-api/api/swagger"
	"github.com/noah-isme/curriculum-api/internal/handler"
	"github.com/noah-isme/curriculum-api/internal/middleware"
	"github.com/noah-isme/curriculum-api/internal/repository"
	"github.com/noah-isme/curriculum-api/internal/service"
	"github.com/noah-isme/curriculum-api/pkg/cache"
	"github.com/noah-isme/curriculum-api/pkg/config"
	"github.com/noah-isme/curriculum-api/pkg/database"
	"github.com/noah-isme/curriculum-api/pkg/jobs"
	"github.com/noah-isme/curriculum-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/curriculum-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/curriculum-api/pkg/middleware/requestid"
	"github.com/noah-isme/curriculum-api/pkg/search"
	"github.com/noah-isme/curriculum-api/pkg/storage"
	"github.com/noah-isme/curriculum-api/pkg/tracing"
	"github.com/noah-isme/curriculum-api/pkg/watcher"
)

// @title Curriculum API
// @version 0.1.0
// @description Generates week-by-week curricula, optionally grounded in uploaded documents.
// @BasePath /api/v1
// @schemes http

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	shutdownTracing, err := tracing.Init(ctx, cfg, logr)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logr.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	metrics := service.NewMetricsService()
	validate := validator.New()
	checks := map[string]handler.ReadinessCheck{}

	var db *sqlx.DB
	if cfg.Database.Enabled {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		checks["database"] = db.PingContext
	}

	documentStore, closeStore, err := openDocumentStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := service.NewDocumentRegistry(documentStore, logr)
	if err := registry.Load(ctx); err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	index, err := search.NewIndex()
	if err != nil {
		return fmt.Errorf("create search index: %w", err)
	}
	defer index.Close() //nolint:errcheck
	checks["search_index"] = func(context.Context) error {
		_, err := index.Count()
		return err
	}

	documentFiles, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		return fmt.Errorf("document storage: %w", err)
	}
	documents := service.NewDocumentService(registry, documentFiles, index, metrics, validate, logr, service.DocumentServiceConfig{
		MaxFileSize:  cfg.Documents.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Documents.AllowedMIMEs,
		ContentLimit: cfg.Documents.ContentLimit,
	})
	defer documents.Close()

	var generationCache *service.GenerationCache
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		cacheRepo := repository.NewCacheRepository(client, logr)
		defer cacheRepo.Close() //nolint:errcheck
		generationCache = service.NewGenerationCache(cacheRepo, metrics, cfg.Cache.TTL, logr)
		checks["redis"] = cacheRepo.Ping
		unsubscribe := registry.Subscribe(generationCache.PurgeOnDocumentRemoval(ctx))
		defer unsubscribe()
	}

	var curriculumStore service.CurriculumStore
	if db != nil {
		curriculumStore = repository.NewCurriculumRepository(db)
	}
	curricula := service.NewCurriculumService(curriculumStore, documents, newResourceProvider(cfg, logr), generationCache, metrics, validate, logr, service.CurriculumServiceConfig{
		MaxWeeks:     cfg.Generation.MaxWeeks,
		ProviderName: cfg.Generation.ResourceProvider,
	})

	exportFiles, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return fmt.Errorf("export storage: %w", err)
	}
	exports := service.NewExportService(exportFiles, storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL), metrics, validate, logr, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	})

	exportJobs := repository.NewExportJobRepository(cfg.Exports.SignedURLTTL)
	worker := service.NewBulkExportWorker(exportJobs, curricula, exports, metrics, cfg.Exports.WorkerRetries, 0, logr)
	queue := jobs.NewQueue("bulk-export", worker.Handle, jobs.QueueConfig{
		Workers:       cfg.Exports.WorkerConcurrency,
		MaxRetries:    cfg.Exports.WorkerRetries,
		RetryDelay:    2 * time.Second,
		MaxRetryDelay: time.Minute,
		JobTimeout:    cfg.Exports.JobTimeout,
		Logger:        logr,
	})
	queue.Start(ctx)
	defer func() {
		queue.Stop()
		stats := queue.Stats()
		logr.Info("bulk export queue closed",
			zap.Int64("succeeded", stats.Succeeded),
			zap.Int64("failed", stats.Failed),
			zap.Int64("retried", stats.Retried),
			zap.Int("abandoned", stats.Pending))
	}()
	bulk := service.NewBulkExportService(exportJobs, queue, metrics, validate, logr)
	if n := bulk.RecoverPending(ctx); n > 0 {
		logr.Info("requeued pending export jobs", zap.Int("count", n))
	}

	go runJanitor(ctx, cfg.Exports.CleanupInterval, exports, exportJobs, logr)

	if cfg.Documents.InboxDir != "" {
		inbox := watcher.NewInbox(cfg.Documents.InboxDir, cfg.Documents.InboxDebounce, func(ctx context.Context, path string) {
			doc, err := documents.IngestFile(ctx, path)
			if err != nil {
				logr.Warn("inbox ingestion failed", zap.String("path", path), zap.Error(err))
				return
			}
			logr.Info("inbox document registered", zap.String("document_id", doc.ID), zap.String("name", doc.Name))
		}, logr)
		if err := inbox.Start(ctx); err != nil {
			return fmt.Errorf("start inbox watcher: %w", err)
		}
		defer inbox.Wait()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = cfg.Documents.MaxFileSizeBytes
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health", "/ready"))
	r.Use(middleware.WithResponseMeta())

	registerRoutes(r, cfg, routeHandlers{
		curricula: handler.NewCurriculumHandler(curricula),
		documents: handler.NewDocumentHandler(documents),
		exports:   handler.NewExportHandler(exports, curricula, bulk),
		metrics:   handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openDocumentStore selects the registry persistence driver. A nil store keeps documents in memory only.
func openDocumentStore(ctx context.Context, cfg *config.Config, db *sqlx.DB) (service.DocumentStore, func(), error) {
	noop := func() {}
	switch cfg.DocumentStore.Driver {
	case "", config.DocumentStoreMemory:
		return nil, noop, nil
	case config.DocumentStorePostgres:
		if db == nil {
			return nil, noop, errors.New("document store driver postgres requires DB_ENABLED=true")
		}
		return repository.NewDocumentRepository(db), noop, nil
	case config.DocumentStoreSQLite:
		sqliteDB, err := database.NewSQLite(cfg.DocumentStore.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		if err := database.EnsureSchema(ctx, sqliteDB); err != nil {
			_ = sqliteDB.Close()
			return nil, noop, fmt.Errorf("ensure sqlite schema: %w", err)
		}
		return repository.NewDocumentRepository(sqliteDB), func() { _ = sqliteDB.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown document store driver %q", cfg.DocumentStore.Driver)
	}
}

func newResourceProvider(cfg *config.Config, logr *zap.Logger) service.ResourceProvider {
	if cfg.Generation.ResourceProvider != config.ResourceProviderWeb {
		return service.NewStaticResourceProvider()
	}
	return service.NewWebSearchResourceProvider(nil, service.WebSearchConfig{
		BaseURL:    cfg.Generation.WebSearchURL,
		Selector:   cfg.Generation.WebSearchSelector,
		Timeout:    cfg.Generation.WebSearchTimeout,
		Retries:    cfg.Generation.WebSearchRetries,
		RetryDelay: cfg.Generation.WebSearchRetryDelay,
	}, logr)
}

// runJanitor removes expired export files and finished jobs until ctx is done.
func runJanitor(ctx context.Context, interval time.Duration, exports *service.ExportService, exportJobs *repository.ExportJobRepository, logr *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := exports.Cleanup(0); err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
			}
			if n := exportJobs.Prune(ctx); n > 0 {
				logr.Debug("pruned export jobs", zap.Int("count", n))
			}
		}
	}
}
