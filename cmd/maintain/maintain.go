package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"cyber-news-digest/internal/config"
	"cyber-news-digest/internal/logger"
	"cyber-news-digest/internal/store"
	"cyber-news-digest/services"
)

const usage = `Usage: maintain <command>

Commands:
  audit     scan the collections and print anomalies
  repair    run an audit and fix every correctable anomaly
  migrate   fold the legacy per-source collections into the news collection
  export    write the markdown digest and coverage workbook
`

func main() {
	flag.Parse()
	command := flag.Arg(0)
	if command == "" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

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
	ctx := context.Background()

	switch command {
	case "audit":
		runAudit(ctx, docStore, cfg)
	case "repair":
		runRepair(ctx, docStore, cfg)
	case "migrate":
		runMigrate(ctx, docStore, cfg)
	case "export":
		runExport(ctx, docStore, cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}
}

func runAudit(ctx context.Context, docStore store.Store, cfg *config.Config) {
	auditor := services.NewAuditor(docStore, cfg.Collections)
	anomalies, err := auditor.Audit(ctx)
	if err != nil {
		log.Fatal("Audit failed:", err)
	}

	out, _ := json.MarshalIndent(anomalies, "", "  ")
	fmt.Println(string(out))
	logger.Info("audit finished", "anomalies", len(anomalies))
}

func runRepair(ctx context.Context, docStore store.Store, cfg *config.Config) {
	auditor := services.NewAuditor(docStore, cfg.Collections)
	anomalies, err := auditor.Audit(ctx)
	if err != nil {
		log.Fatal("Audit failed:", err)
	}

	engine := services.NewRepairEngine(docStore, cfg.Collections)
	repaired, err := engine.Repair(ctx, anomalies)
	if err != nil {
		log.Fatal("Repair failed:", err)
	}
	logger.Info("repair finished", "found", len(anomalies), "repaired", repaired)
}

func runMigrate(ctx context.Context, docStore store.Store, cfg *config.Config) {
	upserter := services.NewUpsertCoordinator(docStore, cfg.Collections)
	migrator := services.NewMigrator(docStore, cfg.Collections, upserter)

	report, err := migrator.Migrate(ctx)
	if err != nil {
		log.Fatal("Migration failed:", err)
	}
	logger.Info("migration finished",
		"scanned", report.Scanned, "migrated", report.Migrated, "skipped", report.Skipped)
}

func runExport(ctx context.Context, docStore store.Store, cfg *config.Config) {
	query := services.NewQueryService(docStore, cfg.Collections)
	exporter := services.NewExportService(query, cfg.ExportDir)

	markdownPath, err := exporter.ExportMarkdown(ctx)
	if err != nil {
		log.Fatal("Markdown export failed:", err)
	}
	workbookPath, err := exporter.ExportCoverageWorkbook(ctx)
	if err != nil {
		log.Fatal("Workbook export failed:", err)
	}

	fmt.Println(markdownPath)
	fmt.Println(workbookPath)
}
