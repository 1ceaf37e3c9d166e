package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/starcrunch/starcrunch-api/internal/config"
	"github.com/starcrunch/starcrunch-api/internal/database"
	"github.com/starcrunch/starcrunch-api/internal/logger"
	"github.com/starcrunch/starcrunch-api/internal/queue"
	"github.com/starcrunch/starcrunch-api/internal/scheduling"
	"github.com/starcrunch/starcrunch-api/internal/services/ai"
	"github.com/starcrunch/starcrunch-api/internal/workers"
)

const (
	// reprocessorInterval is how often the twice-daily reprocessing passes
	// are scheduled. Each run enqueues the next morning and evening pass,
	// so a daily cadence covers both without duplicates.
	reprocessorInterval = 24 * time.Hour

	// DLQ purge cadence and retention
	dlqGCInterval  = 1 * time.Hour
	dlqGCRetention = 24 * time.Hour
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.String("ai_fallback_model", cfg.AIFallbackModel),
		zap.Bool("ai_enabled", cfg.AIEnabled()),
	)

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_database")

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	taskRepo := database.NewTaskRepository(db)
	activityRepo := database.NewUserActivityRepository(db)
	categoryStatsRepo := database.NewCategoryStatisticsRepository(db)

	// Redis fronts preference reads. Losing it degrades every read to
	// Postgres, so an unreachable Redis is a warning, not a fatal.
	var redisClient *redis.Client
	if opts, err := redis.ParseURL(cfg.RedisURL); err != nil {
		zapLogger.Warn("invalid_redis_url_preferences_cache_disabled", zap.Error(err))
	} else {
		client := redis.NewClient(opts)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			zapLogger.Warn("redis_unreachable_preferences_cache_disabled", zap.Error(err))
			_ = client.Close()
		} else {
			redisClient = client
			defer func() {
				if err := redisClient.Close(); err != nil {
					zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
				}
			}()
			zapLogger.Info("connected_to_redis")
		}
		pingCancel()
	}
	prefsCache := database.NewPreferencesCache(userRepo, redisClient, database.DefaultPreferencesTTL)

	// Initialize RabbitMQ queue
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_rabbitmq",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// Create AI provider. Enrichment jobs are skipped while it is missing;
	// the rule-based results from the request path stand.
	aiProvider, err := createAIProvider(cfg, zapLogger, debugMode)
	if err != nil {
		zapLogger.Warn("failed_to_create_ai_provider_enrichment_disabled", zap.Error(err))
		aiProvider = nil
	}

	enhancer := scheduling.NewEnhancer(aiProvider, cfg.AIModel, cfg.AIFallbackModel, zapLogger)

	// Create workers
	enricher := workers.NewEnricher(enhancer, taskRepo, prefsCache, activityRepo, jobQueue, zapLogger)
	reprocessor := workers.NewReprocessor(jobQueue, taskRepo, activityRepo, zapLogger)
	statsAnalyzer := workers.NewStatsAnalyzer(categoryStatsRepo, zapLogger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Schedule the twice-daily reprocessing passes, once now and then on
	// the daily tick. Housekeeping rides the same call.
	go func() {
		if err := reprocessor.ScheduleReprocessingJobs(ctx); err != nil {
			zapLogger.Error("failed_to_schedule_reprocessing_jobs", zap.Error(err))
		}

		ticker := time.NewTicker(reprocessorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := reprocessor.ScheduleReprocessingJobs(ctx); err != nil {
					zapLogger.Error("failed_to_schedule_reprocessing_jobs", zap.Error(err))
				}
			}
		}
	}()

	// Start DLQ garbage collection
	dlqGC := queue.NewGarbageCollector(jobQueue, dlqGCInterval, dlqGCRetention, zapLogger)
	go func() {
		if err := dlqGC.Start(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
		}
	}()
	zapLogger.Info("started_dlq_garbage_collector",
		zap.Duration("interval", dlqGCInterval),
		zap.Duration("retention", dlqGCRetention),
	)

	// Start consuming messages
	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming_messages", zap.Error(err))
	}

	zapLogger.Info("worker_started_consuming_messages")

	// Process messages. Stats rollups go to the analyzer; everything else
	// (enrich_tasks, reprocess_user) goes to the enricher.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}

				job := msg.GetJob()
				var procErr error
				switch job.Type {
				case queue.JobTypeStatsRollup:
					procErr = statsAnalyzer.ProcessJob(ctx, msg)
				default:
					procErr = enricher.ProcessJob(ctx, msg)
				}

				if procErr != nil {
					zapLogger.Error("failed_to_process_job",
						zap.Error(procErr),
						zap.String("job_id", job.ID.String()),
						zap.String("job_type", string(job.Type)),
					)
				}
			}
		}
	}()

	// Handle errors
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	zapLogger.Info("shutdown_signal_received_stopping_worker")

	// Cancel context to stop processing
	cancel()

	zapLogger.Info("worker_stopped")
}

// createAIProvider creates a completion provider based on configuration
func createAIProvider(cfg *config.Config, logger *zap.Logger, debugMode bool) (ai.CompletionProvider, error) {
	if cfg.GroqAPIKey == "" {
		return nil, fmt.Errorf("Groq API key not configured")
	}

	providerType := cfg.AIProvider
	if providerType == "" {
		providerType = "groq"
	}

	if providerType == "groq" {
		return ai.NewGroqProviderWithLogger(
			cfg.GroqAPIKey,
			cfg.AIBaseURL,
			cfg.AIModel,
			logger,
			debugMode,
		), nil
	}

	registry := ai.NewProviderRegistry()
	ai.RegisterGroq(registry)

	providerConfig := map[string]string{
		"api_key":  cfg.GroqAPIKey,
		"model":    cfg.AIModel,
		"base_url": cfg.AIBaseURL,
	}

	return registry.GetProvider(providerType, providerConfig)
}
