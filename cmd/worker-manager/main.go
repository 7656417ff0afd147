// cmd/worker-manager/main.go
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agri-credit-workers/internal/common/aws"
	"agri-credit-workers/internal/common/camunda"
	"agri-credit-workers/internal/common/config"
	"agri-credit-workers/internal/common/database"
	"agri-credit-workers/internal/common/logger"
	"agri-credit-workers/internal/common/observability"
	"agri-credit-workers/internal/common/validation"
	"agri-credit-workers/internal/credit"
	"agri-credit-workers/internal/events"
	"agri-credit-workers/internal/repository"
	"agri-credit-workers/internal/search"
	"agri-credit-workers/pkg/registry"

	acr "agri-credit-workers/internal/workers/credit/assess-credit-risk"
	ce "agri-credit-workers/internal/workers/credit/check-eligibility"
	nld "agri-credit-workers/internal/workers/credit/notify-loan-decision"
	rld "agri-credit-workers/internal/workers/credit/record-loan-decision"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func fatal(log logger.Logger, msg string, err error) {
	log.Error(msg, map[string]interface{}{"error": err})
	os.Exit(1)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("Starting worker manager...", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	profiles := credit.DefaultProfiles().WithCeiling(cfg.Scoring.PlatformCeiling)
	if err := profiles.Validate(); err != nil {
		fatal(log, "scoring profiles are invalid", err)
	}

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		fatal(log, "observability init failed", err)
	}

	ctx := context.Background()

	// --- Activity registry (job input schemas) ---
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		log.Warn("activity registry unavailable, job input schemas disabled", map[string]interface{}{
			"path":  cfg.Registry.Path,
			"error": err,
		})
		reg = &registry.ActivityRegistry{}
	}
	schemaFor := func(taskType string) *validation.Schema {
		if _, ok := reg.Find(taskType); !ok {
			return nil
		}
		schema, err := reg.InputSchema(taskType)
		if err != nil {
			fatal(log, "invalid input schema", err)
		}
		return schema
	}

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(cfg.Camunda)
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		fatal(log, "zeebe client failed after retries", err)
	}
	log.Info("Zeebe client connected successfully", nil)

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		fatal(log, "postgres failed after retries", err)
	}
	defer pg.Close()
	log.Info("PostgreSQL connected successfully", nil)

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		fatal(log, "redis failed after retries", err)
	}
	defer rdb.Close()
	log.Info("Redis connected successfully", nil)

	// --- Init Elasticsearch (assessment index) ---
	var indexer search.Indexer
	if cfg.Scoring.IndexingEnabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			return es.EnsureIndex(ctx, cfg.Scoring.AssessmentIndex, search.AssessmentMapping)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			fatal(log, "elasticsearch failed after retries", err)
		}
		indexer = search.NewAssessmentIndexer(es.Client, cfg.Scoring.AssessmentIndex)
		log.Info("Elasticsearch connected successfully", nil)
	}

	// --- Init Kafka decision publisher ---
	publisher := events.NewDecisionPublisher(events.NewWriter(cfg.Kafka), cfg.Kafka.DecisionTopic, log)
	defer publisher.Close()

	// --- Init AWS notification clients ---
	var (
		emailSender nld.EmailSender
		smsSender   nld.SMSSender
	)
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			fatal(log, "aws config failed", err)
		}
		if cfg.Notifications.Email.Enabled {
			emailSender = aws.NewSESClient(awsCfg, cfg.Notifications.Email.FromEmail)
		}
		if cfg.Notifications.SMS.Enabled {
			smsSender = aws.NewSNSClient(awsCfg, cfg.Notifications.SMS.SenderID)
		}
	}

	repo := repository.NewCachedLoanRepository(
		repository.NewPostgresLoanRepository(pg.DB),
		rdb.Client,
		time.Duration(cfg.Scoring.ContactCacheTTL)*time.Second,
		log,
	)

	// --- Register workers ---
	var workers []*camunda.CamundaWorker
	start := func(taskType string, handler camunda.JobHandler) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
			return
		}
		workers = append(workers, camunda.NewWorker(
			zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, log, obs,
		))
	}

	start(ce.TaskType, ce.NewHandler(
		ce.LoadConfig(config.GetWorkerConfig(cfg, ce.TaskType)),
		profiles.SelfAssessment,
		schemaFor(ce.TaskType),
		log,
	))
	start(acr.TaskType, acr.NewHandler(
		acr.LoadConfig(config.GetWorkerConfig(cfg, acr.TaskType), cfg.Scoring),
		repo,
		indexer,
		profiles.Underwriting,
		schemaFor(acr.TaskType),
		log,
	))
	start(rld.TaskType, rld.NewHandler(
		rld.LoadConfig(config.GetWorkerConfig(cfg, rld.TaskType), cfg.Kafka),
		repo,
		publisher,
		schemaFor(rld.TaskType),
		log,
	))
	start(nld.TaskType, nld.NewHandler(
		nld.LoadConfig(config.GetWorkerConfig(cfg, nld.TaskType), cfg.Notifications),
		repo,
		emailSender,
		smsSender,
		schemaFor(nld.TaskType),
		log,
	))
	log.Info("Workers registered", map[string]interface{}{"count": len(workers)})

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		status := http.StatusOK
		for name, check := range map[string]func(context.Context) error{
			"zeebe":    zeebe.HealthCheck,
			"postgres": pg.Ping,
			"redis":    rdb.Ping,
		} {
			if err := check(checkCtx); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		label := "ready"
		if status != http.StatusOK {
			label = "not_ready"
		}
		writeStatus(w, status, label, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping workers...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping health server", map[string]interface{}{"error": err})
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping observability", map[string]interface{}{"error": err})
	}
	if err := zeebe.Close(); err != nil {
		log.Error("Error closing Zeebe client", map[string]interface{}{"error": err})
	}

	log.Info("Worker manager stopped gracefully", nil)
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
