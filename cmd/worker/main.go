package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/application/export"
	"github.com/erp/revrec/internal/application/recognition"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/infrastructure/cache"
	"github.com/erp/revrec/internal/infrastructure/config"
	"github.com/erp/revrec/internal/infrastructure/event"
	"github.com/erp/revrec/internal/infrastructure/logger"
	"github.com/erp/revrec/internal/infrastructure/persistence"
	"github.com/erp/revrec/internal/infrastructure/scheduler"
	"github.com/erp/revrec/internal/infrastructure/storage"
	"github.com/erp/revrec/internal/infrastructure/telemetry"
	"github.com/erp/revrec/internal/interfaces/http/handler"
	"github.com/erp/revrec/internal/interfaces/http/middleware"
	"github.com/erp/revrec/internal/interfaces/http/router"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	if lp := providers.LoggerProvider(); lp != nil {
		log = telemetry.BridgeLogger(log, lp, cfg.Telemetry.ServiceName, zapcore.InfoLevel)
	}

	log.Info("Starting revenue recognition worker",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	sqlDB, err := db.SQLDB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}
	meter := providers.Meter("github.com/erp/revrec")
	if _, err := telemetry.RegisterDBPoolMetrics(meter, sqlDB); err != nil {
		log.Warn("Failed to register database pool metrics", zap.Error(err))
	}

	// production workers must share markers; elsewhere a local store will do
	markers, err := cache.NewMarkerStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create processed marker store", zap.Error(err))
	}
	defer func() {
		_ = markers.Close()
	}()

	dedup := shared.DefaultIdempotencyConfig()
	dedup.TTL = cfg.Jobs.MarkerTTL
	bus := event.NewBus(log)
	bus.Subscribe(event.NewDedupHandler(event.NewJournal(db.DB, event.NewCodec()), markers, dedup, log))

	jobMetrics, err := telemetry.NewJobMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create job metrics", zap.Error(err))
	}
	runner := batch.NewRunner(batch.RunnerConfig{
		Workers:         cfg.Jobs.Workers,
		ExitOnError:     cfg.Jobs.ExitOnError,
		MarkerTTL:       cfg.Jobs.MarkerTTL,
		ConflictRetries: cfg.Jobs.ConflictRetries,
	}, markers, log, batch.WithMetrics(jobMetrics))

	deps := recognition.Dependencies{
		Repos:     persistence.NewRepositories(db.DB),
		Scope:     persistence.NewGormTransactionScope(db.DB),
		Publisher: bus,
		Logger:    log,
	}

	catalog := batch.NewCatalog()
	recognition.Register(catalog, runner, deps, recognition.Settings{
		BilledStatus:        cfg.Jobs.BilledStatus,
		CumulativeEventType: cfg.Jobs.CumulativeEventType,
		OverstatedSearch:    cfg.Jobs.OverstatedSearch,
	})

	searches, err := persistence.NewSqlxSearchRunner(db.DB)
	if err != nil {
		log.Fatal("Failed to create search runner", zap.Error(err))
	}
	export.Register(catalog, searches, newFileStore(ctx, cfg, log), export.Settings{
		Folder:    cfg.Jobs.CSVFolder,
		SearchIDs: cfg.Jobs.CSVSearchIDs,
	})

	sched := scheduler.NewScheduler(scheduler.Config{
		Workers:       cfg.Scheduler.MaxConcurrentJobs,
		QueueSize:     cfg.Scheduler.QueueSize,
		TaskTimeout:   cfg.Scheduler.JobTimeout,
		RetryAttempts: cfg.Jobs.RetryCount,
		RetryDelay:    cfg.Scheduler.RetryDelay,
		Retention:     24 * time.Hour,
	}, catalog, log)
	if err := sched.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	var trigger *scheduler.IntervalTrigger
	if cfg.Scheduler.Enabled {
		trigger = scheduler.NewIntervalTrigger(scheduler.IntervalTriggerConfig{
			Schedules:     cfg.Jobs.Schedules,
			CheckInterval: cfg.Scheduler.CheckInterval,
		}, sched, log)
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start interval trigger", zap.Error(err))
		}
	}

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Warn("Failed to create HTTP metrics", zap.Error(err))
	}
	engine := router.NewEngine(router.EngineConfig{
		Release:        cfg.App.Env == "production",
		TrustedProxies: cfg.HTTP.TrustedProxies,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Metrics: httpMetrics,
	}, router.Handlers{
		System: handler.NewSystemHandler(cfg.App.Name, version, db),
		Jobs:   handler.NewJobHandler(catalog, sched, sched),
		Hooks:  handler.NewHookHandler(recognition.NewHooks(deps, sched)),
	}, log)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if trigger != nil {
		if err := trigger.Stop(shutdownCtx); err != nil {
			log.Error("Interval trigger stop failed", zap.Error(err))
		}
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler stop failed", zap.Error(err))
	}

	log.Info("Worker exited gracefully")
}

// newFileStore returns the S3 store when a bucket is configured and the
// in-memory store otherwise
func newFileStore(ctx context.Context, cfg *config.Config, log *zap.Logger) export.FileStore {
	if cfg.Storage.Bucket == "" {
		log.Warn("Storage bucket not configured, CSV files are kept in memory")
		return storage.NewMemoryFileStore()
	}
	store, err := storage.NewS3FileStore(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create S3 file store", zap.Error(err))
	}
	if cfg.Storage.CreateBucket {
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
	}
	return store
}
