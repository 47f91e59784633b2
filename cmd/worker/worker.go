package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"cyber-news-digest/internal/ai"
	"cyber-news-digest/internal/config"
	"cyber-news-digest/internal/logger"
	"cyber-news-digest/internal/queue"
	"cyber-news-digest/internal/store"
	"cyber-news-digest/internal/telemetry"
	"cyber-news-digest/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	docStore := store.WithRetry(
		store.NewMongoStore(mongoClient.Database(cfg.DBName)),
		cfg.StoreRetryAttempts,
		time.Duration(cfg.StoreRetryDelayMS)*time.Millisecond,
	)

	// Verify the broker is reachable before asynq starts polling it.
	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	redisClient.Close()

	shutdownTracer, err := telemetry.InitTracer("cyber-news-worker")
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}

	// Initialize Gemini client
	geminiClient, err := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiTier)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

	generator := services.NewGeminiGenerator(geminiClient, time.Duration(cfg.GenerationTimeout)*time.Second)
	upserter := services.NewUpsertCoordinator(docStore, cfg.Collections)
	processor := queue.NewTaskProcessor(docStore, cfg.Collections, generator, upserter)

	// Redis options for Asynq
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 5, // generation is rate limited upstream anyway
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	processor.Register(mux)

	logger.Info("starting worker", "redis", redisOpt.Addr)
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
