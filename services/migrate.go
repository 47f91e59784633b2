package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"cyber-news-digest/internal/config"
	"cyber-news-digest/internal/logger"
	"cyber-news-digest/internal/store"
	"cyber-news-digest/models"
)

// MigrationReport counts the outcome of folding legacy per-source
// collections into the unified news collection.
type MigrationReport struct {
	Scanned  int `json:"scanned"`
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
}

// Migrator folds the old per-source collections (one per scraper) into the
// unified news collection. Documents are re-keyed by their derived id, so
// running it again over the same legacy data changes nothing.
type Migrator struct {
	store    store.Store
	cols     config.Collections
	upserter *UpsertCoordinator
}

func NewMigrator(s store.Store, cols config.Collections, upserter *UpsertCoordinator) *Migrator {
	return &Migrator{store: s, cols: cols, upserter: upserter}
}

// Migrate walks each configured legacy collection and upserts its articles
// into the news collection. Legacy collections are left in place.
func (m *Migrator) Migrate(ctx context.Context) (*MigrationReport, error) {
	report := &MigrationReport{}

	for _, legacy := range m.cols.LegacySources {
		if err := m.migrateCollection(ctx, legacy, report); err != nil {
			return report, fmt.Errorf("migration of %q failed: %w", legacy, err)
		}
	}

	logger.Info("legacy migration finished",
		"scanned", report.Scanned,
		"migrated", report.Migrated,
		"skipped", report.Skipped,
	)
	return report, nil
}

func (m *Migrator) migrateCollection(ctx context.Context, legacy string, report *MigrationReport) error {
	return m.store.Each(ctx, legacy, func(doc bson.M) error {
		report.Scanned++

		var article models.Article
		if err := decodeInto(doc, &article); err != nil {
			report.Skipped++
			logger.Warn("skipping undecodable legacy document",
				"collection", legacy, "doc_id", models.GetString(doc, "_id"), "error", err)
			return nil
		}
		if article.URL == "" && article.Title == "" {
			report.Skipped++
			logger.Warn("skipping legacy document without url or title",
				"collection", legacy, "doc_id", models.GetString(doc, "_id"))
			return nil
		}

		if article.SourceType == "" {
			// Legacy collections were named after their scraper.
			article.SourceType = legacy
		}
		// Legacy ids were assigned by the database; re-key by content.
		article.ID = ""

		if _, err := m.upserter.UpsertArticle(ctx, article); err != nil {
			return err
		}
		report.Migrated++
		return nil
	})
}
