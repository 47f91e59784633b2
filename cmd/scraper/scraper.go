package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cyber-news-digest/internal/ai"
	"cyber-news-digest/internal/config"
	"cyber-news-digest/internal/logger"
	"cyber-news-digest/internal/queue"
	"cyber-news-digest/internal/scraper"
	"cyber-news-digest/internal/store"
	"cyber-news-digest/internal/telemetry"
	"cyber-news-digest/models"
	"cyber-news-digest/services"
)

func main() {
	schedule := flag.Bool("schedule", false, "keep running and scrape on the configured cron")
	useQueue := flag.Bool("queue", false, "enqueue generation tasks instead of generating inline")
	flag.Parse()

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
	upserter := services.NewUpsertCoordinator(docStore, cfg.Collections)

	// Inline generation unless tasks go through the queue.
	var generator services.Generator
	var queueClient *queue.Client
	if *useQueue {
		queueClient = queue.NewClient(cfg)
		defer queueClient.Close()
	} else {
		shutdownTracer, err := telemetry.InitTracer("cyber-news-scraper")
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
		} else {
			defer shutdownTracer()
		}

		geminiClient, err := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiTier)
		if err != nil {
			log.Fatal("Failed to initialize Gemini client:", err)
		}
		defer geminiClient.Close()
		generator = services.NewGeminiGenerator(geminiClient, time.Duration(cfg.GenerationTimeout)*time.Second)
	}

	ingest := services.NewIngestService(upserter, generator)

	run := func() error {
		return runScrape(cfg, ingest, queueClient)
	}

	if !*schedule {
		if err := run(); err != nil {
			log.Fatal("Scrape run failed:", err)
		}
		return
	}

	sched := scraper.NewScheduler()
	if err := sched.ScheduleJob("scrape", cfg.ScrapeCron, run); err != nil {
		log.Fatal("Failed to schedule scrape job:", err)
	}
	sched.Start()
	logger.Info("scrape scheduler started", "cron", cfg.ScrapeCron)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sched.Stop()
	logger.Info("scrape scheduler stopped")
}

// runScrape walks every configured site, ingests the articles, and queues
// generation tasks when a queue client is present.
func runScrape(cfg *config.Config, ingest *services.IngestService, queueClient *queue.Client) error {
	scrapeCfg := scraper.Config{
		MaxPages:      cfg.ScrapeMaxPages,
		Timeout:       time.Duration(cfg.ScrapeTimeout) * time.Second,
		RenderJS:      cfg.ScrapeRenderJS,
		RenderTimeout: 45 * time.Second,
	}
	profiles := []scraper.SiteProfile{
		scraper.HackerNewsProfile(cfg.HackerNewsURL),
		scraper.CyberNewsProfile(cfg.CyberNewsURL),
	}

	ctx := context.Background()
	var all []models.Article
	for _, profile := range profiles {
		articles, err := scraper.New(profile, scrapeCfg).Scrape()
		if err != nil {
			// One dead site must not sink the other.
			logger.Error("scrape failed", "source", profile.SourceType, "error", err)
			continue
		}
		all = append(all, articles...)
	}

	report, err := ingest.Run(ctx, all)
	if err != nil {
		return err
	}

	if queueClient != nil {
		enqueued := 0
		for _, articleID := range report.ProcessedIDs {
			if err := queueClient.EnqueueGeneration(articleID); err != nil {
				logger.Warn("failed to enqueue generation", "article_id", articleID, "error", err)
				continue
			}
			enqueued++
		}
		logger.Info("generation tasks enqueued", "run_id", report.RunID, "count", enqueued)
	}
	return nil
}
