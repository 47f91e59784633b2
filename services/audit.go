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

// Auditor scans the summaries and tips collections and classifies every
// document by shape, reporting structural drift as anomalies. It never
// mutates the store; each collection is streamed exactly once and article
// ids are loaded into a set up front, so a full audit stays linear in the
// number of documents.
type Auditor struct {
	store store.Store
	cols  config.Collections
}

func NewAuditor(s store.Store, cols config.Collections) *Auditor {
	return &Auditor{store: s, cols: cols}
}

func (a *Auditor) Audit(ctx context.Context) ([]models.Anomaly, error) {
	articles := make(map[string]string) // article id -> title
	err := a.store.Each(ctx, a.cols.News, func(doc bson.M) error {
		articles[models.GetString(doc, "_id")] = models.GetString(doc, "title")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("audit: loading article ids: %w", err)
	}

	var anomalies []models.Anomaly

	// Coverage is tracked by shape, wherever the document was found: a
	// misplaced tips document still means the tips exist for that article.
	hasSummary := make(map[string]bool)
	hasTips := make(map[string]bool)

	classify := func(collection string) func(doc bson.M) error {
		return func(doc bson.M) error {
			docID := models.GetString(doc, "_id")
			articleID := models.GetString(doc, "article_id")
			kind := models.ClassifyDocument(doc)

			switch kind {
			case models.KindSummary:
				hasSummary[articleID] = true
				if collection == a.cols.Tips {
					anomalies = append(anomalies, models.Anomaly{
						Kind:       models.AnomalyMisplacedSummary,
						Collection: collection,
						DocID:      docID,
						ArticleID:  articleID,
						Detail:     "summary-shaped document stored in the tips collection",
						Raw:        doc,
					})
				}
			case models.KindTips:
				hasTips[articleID] = true
				if collection == a.cols.Summaries {
					anomalies = append(anomalies, models.Anomaly{
						Kind:       models.AnomalyMisplacedTips,
						Collection: collection,
						DocID:      docID,
						ArticleID:  articleID,
						Detail:     "tips-shaped document stored in the summaries collection",
						Raw:        doc,
					})
				}
			case models.KindMalformedTips:
				hasTips[articleID] = true
				if collection == a.cols.Summaries {
					// Tips material in the wrong collection; the move will
					// normalize its shape as well.
					anomalies = append(anomalies, models.Anomaly{
						Kind:       models.AnomalyMisplacedTips,
						Collection: collection,
						DocID:      docID,
						ArticleID:  articleID,
						Detail:     "tips fields stored in the summaries collection",
						Raw:        doc,
					})
				} else {
					anomalies = append(anomalies, models.Anomaly{
						Kind:       models.AnomalyMalformedTips,
						Collection: collection,
						DocID:      docID,
						ArticleID:  articleID,
						Detail:     "tips document without a complete nested tips object",
						Raw:        doc,
					})
				}
			default:
				logger.Warn("unclassifiable document", "collection", collection, "doc_id", docID)
			}

			if articleID == "" {
				anomalies = append(anomalies, models.Anomaly{
					Kind:       models.AnomalyOrphanReference,
					Collection: collection,
					DocID:      docID,
					Detail:     "document has no article_id",
					Raw:        doc,
				})
			} else if _, known := articles[articleID]; !known {
				anomalies = append(anomalies, models.Anomaly{
					Kind:       models.AnomalyOrphanReference,
					Collection: collection,
					DocID:      docID,
					ArticleID:  articleID,
					Detail:     "article_id resolves to no stored article",
					Raw:        doc,
				})
			}
			return nil
		}
	}

	if err := a.store.Each(ctx, a.cols.Summaries, classify(a.cols.Summaries)); err != nil {
		return nil, fmt.Errorf("audit: scanning %s: %w", a.cols.Summaries, err)
	}
	if err := a.store.Each(ctx, a.cols.Tips, classify(a.cols.Tips)); err != nil {
		return nil, fmt.Errorf("audit: scanning %s: %w", a.cols.Tips, err)
	}

	for articleID, title := range articles {
		missing := ""
		switch {
		case !hasSummary[articleID] && !hasTips[articleID]:
			missing = "summary and tips"
		case !hasSummary[articleID]:
			missing = "summary"
		case !hasTips[articleID]:
			missing = "tips"
		}
		if missing != "" {
			anomalies = append(anomalies, models.Anomaly{
				Kind:       models.AnomalyMissingCoverage,
				Collection: a.cols.News,
				DocID:      articleID,
				ArticleID:  articleID,
				Detail:     fmt.Sprintf("article %q has no %s", title, missing),
			})
		}
	}

	return anomalies, nil
}
