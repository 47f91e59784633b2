package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"cyber-news-digest/internal/logger"
	"cyber-news-digest/models"
)

// IngestReport summarizes one ingestion run. A run never succeeds or fails
// as a whole; it reports counts.
type IngestReport struct {
	RunID      string   `json:"run_id"`
	Processed  int      `json:"processed"`
	Skipped    int      `json:"skipped"` // articles whose generation was skipped
	Failed     int      `json:"failed"`  // articles that could not be stored
	SkippedIDs []string `json:"skipped_ids,omitempty"`
	// Derived ids of every stored article, in ingest order.
	ProcessedIDs []string `json:"processed_ids,omitempty"`
}

// IngestService drives the write path: article in, derived id, upsert, then
// generation of the derived artifacts. With a nil generator the run stores
// articles only (generation is handled by the queue worker instead).
type IngestService struct {
	upserter  *UpsertCoordinator
	generator Generator
}

func NewIngestService(upserter *UpsertCoordinator, generator Generator) *IngestService {
	return &IngestService{upserter: upserter, generator: generator}
}

// Run ingests a batch of scraped articles sequentially. Storage failures
// count the article as failed; generation failures skip the article's
// derived documents and continue the batch.
func (s *IngestService) Run(ctx context.Context, articles []models.Article) (*IngestReport, error) {
	report := &IngestReport{RunID: uuid.NewString()}

	for _, article := range articles {
		articleID, err := s.upserter.UpsertArticle(ctx, article)
		if err != nil {
			report.Failed++
			logger.Error("article upsert failed", "run_id", report.RunID, "url", article.URL, "error", err)
			continue
		}
		article.ID = articleID
		report.ProcessedIDs = append(report.ProcessedIDs, articleID)

		if s.generator != nil && !s.generate(ctx, report, article) {
			report.Skipped++
			report.SkippedIDs = append(report.SkippedIDs, articleID)
		}
		report.Processed++
	}

	logger.Info("ingestion run finished",
		"run_id", report.RunID,
		"processed", report.Processed,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

// generate produces and stores both derived documents for one article,
// returning false when either side was skipped.
func (s *IngestService) generate(ctx context.Context, report *IngestReport, article models.Article) bool {
	ok := true

	summary, err := s.generator.GenerateSummary(ctx, article)
	if err != nil {
		failure := &GenerationFailure{ArticleID: article.ID, Stage: "summary", Err: err}
		logger.Warn("summary generation skipped", "run_id", report.RunID, "error", failure)
		ok = false
	} else if err := s.upserter.UpsertSummary(ctx, article.ID, summary); err != nil {
		logger.Error("summary upsert failed", "run_id", report.RunID, "article_id", article.ID, "error", err)
		ok = false
	}

	tips, err := s.generator.GenerateTips(ctx, article)
	if err != nil {
		failure := &GenerationFailure{ArticleID: article.ID, Stage: "tips", Err: err}
		logger.Warn("tips generation skipped", "run_id", report.RunID, "error", failure)
		ok = false
	} else if err := s.upserter.UpsertTips(ctx, article.ID, tips); err != nil {
		var validation *ValidationError
		if errors.As(err, &validation) {
			logger.Error("generated tips rejected", "run_id", report.RunID, "article_id", article.ID, "error", err)
		} else {
			logger.Error("tips upsert failed", "run_id", report.RunID, "article_id", article.ID, "error", err)
		}
		ok = false
	}

	return ok
}
