package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"cyber-news-digest/internal/config"
	"cyber-news-digest/internal/logger"
	"cyber-news-digest/internal/store"
	"cyber-news-digest/models"
)

// RepairEngine applies corrective migrations for the anomalies an audit
// found: misplaced documents move to their proper collection, malformed tips
// are rewrapped in place. Orphan references and missing coverage are never
// auto-fixed, since synthesizing or deleting data would mask upstream
// failures. Re-running repair over a fresh audit is a no-op.
//
// Must not run concurrently with an audit over the same collections; the
// caller owns that exclusion.
type RepairEngine struct {
	store store.Store
	cols  config.Collections
}

func NewRepairEngine(s store.Store, cols config.Collections) *RepairEngine {
	return &RepairEngine{store: s, cols: cols}
}

// Repair processes the given anomalies and returns how many documents it
// changed.
func (r *RepairEngine) Repair(ctx context.Context, anomalies []models.Anomaly) (int, error) {
	changed := 0
	for _, anomaly := range anomalies {
		var (
			n   int
			err error
		)
		switch anomaly.Kind {
		case models.AnomalyMisplacedSummary:
			n, err = r.moveSummary(ctx, anomaly)
		case models.AnomalyMisplacedTips:
			n, err = r.moveTips(ctx, anomaly)
		case models.AnomalyMalformedTips:
			n, err = r.rewrapInPlace(ctx, anomaly)
		case models.AnomalyOrphanReference, models.AnomalyMissingCoverage:
			// Report-only kinds.
			continue
		}
		if err != nil {
			return changed, err
		}
		changed += n
	}
	return changed, nil
}

// moveSummary relocates a summary-shaped document out of the tips collection.
// An already-present summary for the same article is kept (it is the
// authoritative copy); the misplaced document is deleted either way.
func (r *RepairEngine) moveSummary(ctx context.Context, anomaly models.Anomaly) (int, error) {
	raw, err := r.store.Get(ctx, anomaly.Collection, anomaly.DocID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil // already repaired
		}
		return 0, err
	}

	articleID := models.GetString(raw, "article_id")
	if articleID == "" {
		// Nothing to key the moved document on; left for the orphan report.
		return 0, nil
	}
	targetID := models.SummaryDocID(articleID)

	changed := 0
	_, err = r.store.Get(ctx, r.cols.Summaries, targetID)
	if errors.Is(err, store.ErrNotFound) {
		doc := models.Summary{
			ID:          targetID,
			ArticleID:   articleID,
			Title:       models.GetString(raw, "title"),
			Summary:     models.GetString(raw, "summary"),
			Source:      models.GetString(raw, "source"),
			Date:        models.GetString(raw, "date"),
			GeneratedAt: generatedAt(raw),
		}
		if err := r.store.Put(ctx, r.cols.Summaries, targetID, doc); err != nil {
			return 0, err
		}
		changed++
	} else if err != nil {
		return 0, err
	}

	if err := r.deleteIfPresent(ctx, anomaly.Collection, anomaly.DocID); err != nil {
		return changed, err
	}
	logger.Info("moved misplaced summary", "article_id", articleID, "from", anomaly.Collection)
	return changed + 1, nil
}

// moveTips relocates tips material out of the summaries collection,
// normalizing the nested shape on the way.
func (r *RepairEngine) moveTips(ctx context.Context, anomaly models.Anomaly) (int, error) {
	raw, err := r.store.Get(ctx, anomaly.Collection, anomaly.DocID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	articleID := models.GetString(raw, "article_id")
	if articleID == "" {
		return 0, nil
	}
	targetID := models.TipsDocID(articleID)

	changed := 0
	_, err = r.store.Get(ctx, r.cols.Tips, targetID)
	if errors.Is(err, store.ErrNotFound) {
		doc := models.Tips{
			ID:          targetID,
			ArticleID:   articleID,
			Title:       models.GetString(raw, "title"),
			Tips:        rewrapTips(raw),
			Source:      models.GetString(raw, "source"),
			Date:        models.GetString(raw, "date"),
			GeneratedAt: generatedAt(raw),
		}
		if err := r.store.Put(ctx, r.cols.Tips, targetID, doc); err != nil {
			return 0, err
		}
		changed++
	} else if err != nil {
		return 0, err
	}

	if err := r.deleteIfPresent(ctx, anomaly.Collection, anomaly.DocID); err != nil {
		return changed, err
	}
	logger.Info("moved misplaced tips", "article_id", articleID, "from", anomaly.Collection)
	return changed + 1, nil
}

// rewrapInPlace rebuilds the nested tips object of a malformed tips document
// and overwrites it under the same id.
func (r *RepairEngine) rewrapInPlace(ctx context.Context, anomaly models.Anomaly) (int, error) {
	raw, err := r.store.Get(ctx, anomaly.Collection, anomaly.DocID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if models.ClassifyDocument(raw) == models.KindTips {
		return 0, nil // repaired since the audit
	}

	articleID := models.GetString(raw, "article_id")
	doc := models.Tips{
		ID:          anomaly.DocID,
		ArticleID:   articleID,
		Title:       models.GetString(raw, "title"),
		Tips:        rewrapTips(raw),
		Source:      models.GetString(raw, "source"),
		Date:        models.GetString(raw, "date"),
		GeneratedAt: generatedAt(raw),
	}
	if err := r.store.Put(ctx, anomaly.Collection, anomaly.DocID, doc); err != nil {
		return 0, err
	}
	logger.Info("rewrapped malformed tips", "doc_id", anomaly.DocID, "article_id", articleID)
	return 1, nil
}

// rewrapTips builds a well-formed nested payload from whatever shape the
// document carries: a partial nested object, or legacy fields hoisted to the
// top level. Missing lists default to empty, never nil.
func rewrapTips(raw bson.M) models.TipsPayload {
	payload := models.TipsPayload{Dos: []string{}, Donts: []string{}}

	if nested, ok := models.AsMap(raw["tips"]); ok {
		if s, ok := nested["summary"].(string); ok {
			payload.Summary = s
		}
		if dos := models.AsStringSlice(nested["dos"]); dos != nil {
			payload.Dos = dos
		}
		if donts := models.AsStringSlice(nested["donts"]); donts != nil {
			payload.Donts = donts
		}
	}

	// Legacy flat fields fill whatever the nested object did not provide.
	if payload.Summary == "" {
		payload.Summary = models.GetString(raw, "summary")
	}
	if len(payload.Dos) == 0 {
		if dos := models.AsStringSlice(raw["dos"]); dos != nil {
			payload.Dos = dos
		}
	}
	if len(payload.Donts) == 0 {
		if donts := models.AsStringSlice(raw["donts"]); donts != nil {
			payload.Donts = donts
		}
	}
	return payload
}

func generatedAt(raw bson.M) string {
	if g := models.GetString(raw, "generated_at"); g != "" {
		return g
	}
	return time.Now().Format("2006-01-02")
}

func (r *RepairEngine) deleteIfPresent(ctx context.Context, collection, id string) error {
	err := r.store.Delete(ctx, collection, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
