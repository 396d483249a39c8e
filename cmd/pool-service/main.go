// cmd/pool-service/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rental-pool/internal/analytics"
	"rental-pool/internal/common/aws"
	"rental-pool/internal/common/config"
	"rental-pool/internal/common/database"
	"rental-pool/internal/common/logger"
	"rental-pool/internal/common/observability"
	"rental-pool/internal/notify"
	"rental-pool/internal/pool"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")

	zapLog.Info("Starting pool service...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Re-create the logger with the configured level and format.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("pool-service")
	defer obs.Shutdown()

	tracing := observability.NewTracing("pool-service", cfg.Metrics.JaegerEndpoint)
	defer tracing.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
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
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry (optional) ---
	var cache pool.Cache = pool.NewNopCache()
	if cfg.Database.Redis.Enabled {
		var rds *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rds, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rds.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			defer rds.Close()
			cache = pool.NewRedisCache(rds.Client, log)
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Init Elasticsearch with retry (optional) ---
	var sink pool.AnalyticsSink = pool.NewNopAnalyticsSink()
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 10, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Warn("elasticsearch unavailable, running without analytics sink", zap.Error(err))
		} else {
			sink = analytics.NewIndexer(esClient, log)
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Init SNS (optional) ---
	var notifier notify.MatchNotifier = notify.NewNopNotifier()
	if cfg.Notifications.AWS.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		notifier = notify.NewSNSNotifier(snsClient, cfg.Notifications.AWS.SNS.TopicARN, log)
		zapLog.Info("SNS notifier initialized", zap.String("topic", cfg.Notifications.AWS.SNS.TopicARN))
	}

	svc := pool.NewService(pool.ServiceDeps{
		Repo:      pool.NewPostgresRepository(pg.DB),
		Cache:     cache,
		Analytics: sink,
		Notifier:  notifier,
		Tracing:   tracing,
		Obs:       obs,
		Logger:    log,
	})

	// --- Expiration sweep ---
	// Runs once at startup, then on every tick. SIGHUP forces an immediate run.
	sweepNow := make(chan os.Signal, 1)
	signal.Notify(sweepNow, syscall.SIGHUP)

	sweepDone := make(chan struct{})
	sweepStop := make(chan struct{})
	go func() {
		defer close(sweepDone)

		runSweep := func() {
			removed, err := svc.CleanupExpiredRequests(ctx)
			if err != nil {
				zapLog.Error("expiration sweep failed", zap.Error(err))
				return
			}
			if removed > 0 {
				zapLog.Info("expiration sweep removed requests", zap.Int("removed", removed))
			}
		}

		runSweep()
		ticker := time.NewTicker(cfg.Pool.GetSweepInterval())
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runSweep()
			case <-sweepNow:
				zapLog.Info("SIGHUP received, running expiration sweep")
				runSweep()
			case <-sweepStop:
				return
			}
		}
	}()

	zapLog.Info("Pool service started",
		zap.String("environment", cfg.App.Environment),
		zap.Duration("sweepInterval", cfg.Pool.GetSweepInterval()),
	)

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pg.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.Int("port", cfg.Metrics.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping pool service...")
	close(sweepStop)
	<-sweepDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Pool.GetShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down metrics server", zap.Error(err))
	}

	zapLog.Info("Pool service stopped gracefully")
}
