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

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wallet-workers/internal/common/config"
	"wallet-workers/internal/common/database"
	"wallet-workers/internal/common/logger"
	"wallet-workers/internal/common/observability"

	qn "wallet-workers/internal/workers/data-access/query-notifications"
	sn "wallet-workers/internal/workers/data-access/search-notifications"
	cn "wallet-workers/internal/workers/notification/create-notification"
	dn "wallet-workers/internal/workers/notification/dispatch-notification"
	en "wallet-workers/internal/workers/notification/expire-notifications"
	ts "wallet-workers/internal/workers/notification/transition-status"
	pte "wallet-workers/internal/workers/wallet/process-transaction-event"
)

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
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

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

	cacheTTL := time.Duration(cfg.Notifications.CacheTTL) * time.Second

	if cfg.Workers[cn.TaskType].Enabled {
		handler := cn.NewHandler(
			&cn.Config{
				Timeout:        config.GetDuration(cfg.Workers[cn.TaskType].Timeout),
				SearchIndex:    cfg.Database.Elasticsearch.Index,
				CacheKeyPrefix: "notifications:user:",
			},
			pg.DB, redis.Client, esClient, log,
		)
		startWorker(zeebeClient, cn.TaskType, cfg.Workers[cn.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ts.TaskType].Enabled {
		handler := ts.NewHandler(
			&ts.Config{
				Timeout:        config.GetDuration(cfg.Workers[ts.TaskType].Timeout),
				CacheKeyPrefix: "notifications:user:",
			},
			pg.DB, redis.Client, log,
		)
		startWorker(zeebeClient, ts.TaskType, cfg.Workers[ts.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[en.TaskType].Enabled {
		handler := en.NewHandler(
			&en.Config{
				Timeout:        config.GetDuration(cfg.Workers[en.TaskType].Timeout),
				BatchSize:      cfg.Notifications.ExpiryBatchSize,
				CacheKeyPrefix: "notifications:user:",
			},
			pg.DB, redis.Client, log,
		)
		startWorker(zeebeClient, en.TaskType, cfg.Workers[en.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[dn.TaskType].Enabled {
		handler, err := dn.NewHandler(
			&dn.Config{
				Timeout:              config.GetDuration(cfg.Workers[dn.TaskType].Timeout),
				AWSRegion:            cfg.Notifications.AWS.Region,
				EmailEnabled:         cfg.Notifications.Email.Enabled,
				FromEmail:            cfg.Notifications.Email.FromEmail,
				SMSEnabled:           cfg.Notifications.SMS.Enabled,
				SMSPriorityThreshold: cfg.Notifications.SMS.PriorityThreshold,
				PushEnabled:          cfg.Notifications.Push.Enabled,
				PushWebhookURL:       cfg.Notifications.Push.WebhookURL,
				PushTimeout:          config.GetDuration(cfg.Notifications.Push.Timeout),
				RegistryPath:         cfg.Registry.Path,
			},
			pg.DB, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create dispatch-notification handler", zap.Error(err))
		}
		startWorker(zeebeClient, dn.TaskType, cfg.Workers[dn.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[qn.TaskType].Enabled {
		handler := qn.NewHandler(
			&qn.Config{
				Timeout:        config.GetDuration(cfg.Workers[qn.TaskType].Timeout),
				CacheTTL:       cacheTTL,
				CacheKeyPrefix: "notifications:user:",
			},
			pg.DB, redis.Client, log,
		)
		startWorker(zeebeClient, qn.TaskType, cfg.Workers[qn.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[sn.TaskType].Enabled {
		handler := sn.NewHandler(
			&sn.Config{
				Timeout:    config.GetDuration(cfg.Workers[sn.TaskType].Timeout),
				Index:      cfg.Database.Elasticsearch.Index,
				MaxResults: 25,
			},
			pg.DB, esClient, log,
		)
		startWorker(zeebeClient, sn.TaskType, cfg.Workers[sn.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[pte.TaskType].Enabled {
		handler := pte.NewHandler(
			&pte.Config{
				Timeout:        config.GetDuration(cfg.Workers[pte.TaskType].Timeout),
				CacheTTL:       time.Minute,
				CacheKeyPrefix: "wallets:",
			},
			pg.DB, redis.Client, log,
		)
		startWorker(zeebeClient, pte.TaskType, cfg.Workers[pte.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All workers registered successfully")

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
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
