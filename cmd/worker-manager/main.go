// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"clinic-workers/internal/activitylog"
	"clinic-workers/internal/api"
	commonaws "clinic-workers/internal/common/aws"
	"clinic-workers/internal/common/camunda"
	"clinic-workers/internal/common/clinicapi"
	"clinic-workers/internal/common/config"
	"clinic-workers/internal/common/database"
	"clinic-workers/internal/common/logger"
	"clinic-workers/internal/common/observability"
	"clinic-workers/internal/membership"

	em "clinic-workers/internal/workers/membership/evaluate-membership"
	nm "clinic-workers/internal/workers/membership/notify-membership"
	sml "clinic-workers/internal/workers/membership/search-membership-logs"
	umc "clinic-workers/internal/workers/membership/upsert-membership-catalog"
	vm "clinic-workers/internal/workers/membership/validate-membership"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting membership worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Redis ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- PostgreSQL (membership catalog, optional) ---
	var pg *database.PostgresClient
	if cfg.Database.Postgres.Enabled() {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Database.Postgres.MigrateOnStart {
			if err := pg.Migrate(); err != nil {
				zapLog.Fatal("catalog migrations failed", zap.Error(err))
			}
		}
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Elasticsearch (log mirror and search, optional) ---
	logIndex := cfg.Membership.LogIndex
	if logIndex == "" {
		logIndex = activitylog.DefaultIndex
	}
	var es *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.GetURL() != "" {
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		if err := activitylog.EnsureIndex(ctx, es.Client, logIndex); err != nil {
			zapLog.Fatal("log index setup failed", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", logIndex))
	}

	// --- Membership lifecycle ---
	loc, err := cfg.Membership.Location()
	if err != nil {
		zapLog.Fatal("invalid membership timezone", zap.Error(err))
	}

	clinic := clinicapi.NewClient(cfg.ClinicAPI)

	var recorder membership.Recorder = activitylog.NewAPIRecorder(clinic)
	if cfg.Membership.SearchMirrorEnabled && es != nil {
		recorder = activitylog.NewFanout(recorder, log, activitylog.NewSearchRecorder(es.Client, logIndex))
	}

	service := membership.NewService(membership.ServiceOptions{
		Store:         clinic,
		Recorder:      recorder,
		Cache:         membership.NewCache(redis.Client, config.GetDuration(cfg.Membership.CacheTTL), log),
		Evaluator:     membership.NewEvaluator(loc),
		Logger:        log,
		Observability: obs,
	})

	// --- Workers ---
	zbc := zeebe.GetClient()
	var workers []*camunda.Worker
	evaluate, err := em.NewHandler(em.HandlerOptions{AppConfig: cfg, Lifecycle: service, Logger: log})
	if err != nil {
		zapLog.Fatal("evaluate worker setup failed", zap.Error(err))
	}
	workers = append(workers, camunda.StartWorker(zbc, em.TaskType, config.GetWorkerConfig(cfg, em.WorkerName), evaluate.Handle, obs, log))

	validate, err := vm.NewHandler(vm.HandlerOptions{AppConfig: cfg, Reader: service, Logger: log})
	if err != nil {
		zapLog.Fatal("validate worker setup failed", zap.Error(err))
	}
	workers = append(workers, camunda.StartWorker(zbc, vm.TaskType, config.GetWorkerConfig(cfg, vm.WorkerName), validate.Handle, obs, log))

	if pg != nil {
		catalog, err := umc.NewHandler(umc.HandlerOptions{AppConfig: cfg, DB: pg, Logger: log})
		if err != nil {
			zapLog.Fatal("catalog worker setup failed", zap.Error(err))
		}
		workers = append(workers, camunda.StartWorker(zbc, umc.TaskType, config.GetWorkerConfig(cfg, umc.WorkerName), catalog.Handle, obs, log))
	} else {
		zapLog.Info("postgres not configured, catalog worker not started")
	}

	if es != nil {
		search, err := sml.NewHandler(sml.HandlerOptions{AppConfig: cfg, Client: es.Client, Logger: log})
		if err != nil {
			zapLog.Fatal("log search worker setup failed", zap.Error(err))
		}
		workers = append(workers, camunda.StartWorker(zbc, sml.TaskType, config.GetWorkerConfig(cfg, sml.WorkerName), search.Handle, obs, log))
	} else {
		zapLog.Info("elasticsearch not configured, log search worker not started")
	}

	if notify := newNotifyHandler(ctx, cfg, clinic, log, zapLog); notify != nil {
		workers = append(workers, camunda.StartWorker(zbc, nm.TaskType, config.GetWorkerConfig(cfg, nm.WorkerName), notify.Handle, obs, log))
	}

	// --- HTTP: health, readiness, metrics and the membership API ---
	checks := map[string]api.ReadinessCheck{
		"redis":      redis.Ping,
		"zeebe":      zeebe.HealthCheck,
		"clinic_api": clinic.Ping,
	}
	if pg != nil {
		checks["postgres"] = pg.Ping
	}
	if es != nil {
		checks["elasticsearch"] = es.Ping
	}

	server := &http.Server{
		Addr: cfg.HTTP.Address,
		Handler: api.NewRouter(api.NewHandler(service, checks, log), api.RouterOptions{
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			RequestTimeout: config.GetDuration(cfg.HTTP.RequestTimeout),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// newNotifyHandler builds the receipt worker from whichever channels are enabled,
// or returns nil when none are.
func newNotifyHandler(ctx context.Context, cfg *config.Config, customers nm.CustomerLookup, log logger.Logger, zapLog *zap.Logger) *nm.Handler {
	if !cfg.Notifications.Email.Enabled && !cfg.Notifications.SMS.Enabled {
		zapLog.Info("notifications disabled, notify worker not started")
		return nil
	}

	awsCfg, err := commonaws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws config load failed", zap.Error(err))
	}

	opts := nm.HandlerOptions{AppConfig: cfg, Customers: customers, Logger: log}
	if cfg.Notifications.Email.Enabled {
		opts.Email = commonaws.NewSESClient(awsCfg, cfg.Notifications.Email.FromEmail)
	}
	if cfg.Notifications.SMS.Enabled {
		opts.SMS = commonaws.NewSNSClient(awsCfg, cfg.Notifications.SMS.SenderID)
	}

	h, err := nm.NewHandler(opts)
	if err != nil {
		zapLog.Fatal("notify worker setup failed", zap.Error(err))
	}
	return h
}
