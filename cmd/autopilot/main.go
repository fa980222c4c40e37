// cmd/autopilot/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	"ticket-autopilot/internal/api"
	commonaws "ticket-autopilot/internal/common/aws"
	"ticket-autopilot/internal/common/config"
	"ticket-autopilot/internal/common/database"
	"ticket-autopilot/internal/common/logger"
	"ticket-autopilot/internal/common/observability"
	"ticket-autopilot/internal/draftstore"
	"ticket-autopilot/internal/ledger"
	"ticket-autopilot/internal/mail"
	"ticket-autopilot/internal/notify"
	"ticket-autopilot/internal/policy"
	"ticket-autopilot/internal/retrieval"
	"ticket-autopilot/internal/synthesis"
	"ticket-autopilot/internal/ticketlog"
	"ticket-autopilot/internal/workflow"
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
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting ticket autopilot...",
		zap.String("environment", cfg.App.Environment),
		zap.String("retrieval_backend", cfg.Retrieval.Backend),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

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

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry (only for the elasticsearch backend) ---
	var esClient *database.ElasticsearchClient
	if cfg.Retrieval.Backend == "elasticsearch" {
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
	}

	// --- Init AWS Clients ---
	sesClient, err := commonaws.NewSESClient(ctx, cfg.Mail.AWS.Region)
	if err != nil {
		zapLog.Fatal("ses client failed", zap.Error(err))
	}

	var snsClient *commonaws.SNSClient
	if cfg.Notifications.Escalation.Enabled {
		snsClient, err = commonaws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
	}
	zapLog.Info("AWS clients initialized")

	// --- Storage Schemas ---
	drafts := draftstore.New(pg, log)
	decisions := ledger.New(pg, log)
	auditLog := ticketlog.New(pg, cfg.TicketLog.JSONLPath, log)

	for name, ensure := range map[string]func(context.Context) error{
		"ticket_drafts":   drafts.EnsureSchema,
		"decision_ledger": decisions.EnsureSchema,
		"ticket_logs":     auditLog.EnsureSchema,
	} {
		if err := ensure(ctx); err != nil {
			zapLog.Fatal("schema setup failed", zap.String("store", name), zap.Error(err))
		}
	}
	zapLog.Info("Storage schemas ready")

	// --- Retrieval Engine ---
	var esRaw *elasticsearch.Client
	if esClient != nil {
		esRaw = esClient.Client
	}
	engine, err := retrieval.New(cfg.Retrieval, esRaw)
	if err != nil {
		zapLog.Fatal("retrieval engine setup failed", zap.Error(err))
	}

	if cfg.Retrieval.CorpusDir != "" {
		count, err := retrieval.IngestFolder(ctx, engine, cfg.Retrieval.CorpusDir, log)
		if err != nil {
			zapLog.Fatal("knowledge base ingestion failed", zap.Error(err))
		}
		zapLog.Info("Knowledge base ingested", zap.Int("chunks", count))
	}

	synthesizer := synthesis.New(
		engine,
		cfg.Retrieval.TopK,
		cfg.Retrieval.SnippetMaxChars,
		time.Duration(cfg.Retrieval.Timeout)*time.Millisecond,
		log,
	)

	// --- Workflow ---
	outbox := mail.NewSESOutbox(rdb.Client, sesClient, cfg.Mail, log)
	notifier := notify.New(snsClient, cfg.Notifications, log)
	thresholds := policy.Thresholds{
		Approve: cfg.Policy.ApproveThreshold,
		Draft:   cfg.Policy.DraftThreshold,
	}

	orchestrator := workflow.New(synthesizer, thresholds, drafts, decisions, auditLog, outbox, notifier, log).
		WithObservability(obs)
	zapLog.Info("Workflow orchestrator ready")

	// --- HTTP Server ---
	checks := map[string]api.HealthChecker{
		"postgres": pg.Ping,
		"redis":    rdb.Ping,
	}
	if esClient != nil {
		checks["elasticsearch"] = func(context.Context) error { return esClient.Ping() }
	}

	router := api.NewRouter(orchestrator, checks, log)
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error during server shutdown", zap.Error(err))
	}

	zapLog.Info("Ticket autopilot stopped gracefully")
}
