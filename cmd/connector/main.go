// cmd/connector/main.go
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

	"bmw-vin-connector/internal/common/aws"
	"bmw-vin-connector/internal/common/camunda"
	"bmw-vin-connector/internal/common/config"
	"bmw-vin-connector/internal/common/database"
	"bmw-vin-connector/internal/common/logger"
	"bmw-vin-connector/internal/common/nhtsa"
	"bmw-vin-connector/internal/common/observability"
	"bmw-vin-connector/internal/notify"
	"bmw-vin-connector/internal/pipeline"
	"bmw-vin-connector/internal/sink"
	"bmw-vin-connector/internal/state"
	vinsync "bmw-vin-connector/internal/workers/sync/vin-sync"
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
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting BMW VIN connector...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("connector")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer camundaClient.Close()
	zapLog.Info("Zeebe client connected successfully")

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

	// --- Init Redis with retry ---
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

	// --- Build the sync pipeline ---
	fetcher := nhtsa.NewClient(cfg.NHTSA.BaseURL, config.GetDuration(cfg.NHTSA.Timeout))

	warehouseSink := sink.NewPostgresSink(
		pg.DB,
		cfg.Connector.VehiclesTable,
		cfg.Connector.RecallsTable,
		log,
	)

	stateStore := state.NewRedisStore(redis.Client, cfg.Connector.StateKey)

	syncPipeline := pipeline.New(fetcher, warehouseSink, stateStore, pipeline.Options{
		RequireBMW: cfg.Connector.RequireBMW,
	}, log)

	// --- Optional Elasticsearch recall index ---
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")

		syncPipeline.WithIndexer(sink.NewRecallIndexer(
			esClient.Client,
			cfg.Database.Elasticsearch.RecallsIdx,
			log,
		))
	}

	// --- Optional recall alerts over SNS/SES ---
	if cfg.Notifications.Enabled {
		var publisher notify.Publisher
		var emailer notify.Emailer

		if cfg.Notifications.SMS.Enabled {
			snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("sns client failed", zap.Error(err))
			}
			publisher = snsClient
		}

		if cfg.Notifications.Email.Enabled {
			sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("ses client failed", zap.Error(err))
			}
			emailer = sesClient
		}

		syncPipeline.WithNotifier(notify.NewRecallNotifier(publisher, emailer, notify.Config{
			TopicARN:  cfg.Notifications.SMS.TopicARN,
			FromEmail: cfg.Notifications.Email.FromEmail,
			ToEmails:  cfg.Notifications.Email.ToEmails,
		}, log))

		zapLog.Info("Recall notifications enabled")
	}

	// --- Register the sync worker ---
	handler, err := vinsync.NewHandler(vinsync.HandlerOptions{
		AppConfig: cfg,
		Camunda:   camundaClient,
		Runner:    syncPipeline,
		Logger:    log,
	})
	if err != nil {
		zapLog.Fatal("failed to create vin-sync handler", zap.Error(err))
	}

	if err := handler.Register(); err != nil {
		zapLog.Fatal("failed to register vin-sync worker", zap.Error(err))
	}
	defer handler.Close()
	zapLog.Info("VIN sync worker registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := handler.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping worker...")
	zapLog.Info("Connector stopped gracefully")
}
