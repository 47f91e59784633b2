package services

import (
	"context"
	"errors"
	"time"

	"cyber-news-digest/internal/config"
	"cyber-news-digest/internal/identity"
	"cyber-news-digest/internal/logger"
	"cyber-news-digest/internal/store"
	"cyber-news-digest/models"
)

// UpsertCoordinator routes articles, summaries and tips into their proper
// collections. Every write is a whole-document put keyed by a derived id, so
// repeating a call with identical input leaves the store unchanged.
type UpsertCoordinator struct {
	store store.Store
	cols  config.Collections
}

func NewUpsertCoordinator(s store.Store, cols config.Collections) *UpsertCoordinator {
	return &UpsertCoordinator{store: s, cols: cols}
}

// UpsertArticle writes the article under its derived id and returns that id.
// An already-stored article keeps its original fields; only previously unseen
// tags are appended.
func (u *UpsertCoordinator) UpsertArticle(ctx context.Context, article models.Article) (string, error) {
	id := article.ID
	if id == "" {
		derived, err := identity.DeriveID(article.URL, article.Title, article.Source)
		if err != nil {
			return "", err
		}
		id = derived
	}
	article.ID = id

	existing, err := u.store.Get(ctx, u.cols.News, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	if existing != nil {
		merged := mergeTags(models.AsStringSlice(existing["tags"]), article.Tags)
		if len(merged) == len(models.AsStringSlice(existing["tags"])) {
			return id, nil // nothing new
		}
		existing["tags"] = merged
		if err := u.store.Put(ctx, u.cols.News, id, existing); err != nil {
			return "", err
		}
		return id, nil
	}

	if article.ScrapedAt.IsZero() {
		article.ScrapedAt = time.Now().UTC()
	}
	if err := u.store.Put(ctx, u.cols.News, id, article); err != nil {
		return "", err
	}
	logger.Debug("article stored", "id", id, "source", article.Source)
	return id, nil
}

// UpsertSummary writes (or overwrites) the summary for an article. Title,
// source and date are copied from the article when it exists; a summary for
// an unknown article is still written and left for the auditor to flag.
func (u *UpsertCoordinator) UpsertSummary(ctx context.Context, articleID, summaryText string) error {
	if articleID == "" {
		return &ValidationError{Reason: "summary requires an article id"}
	}

	doc := models.Summary{
		ID:          models.SummaryDocID(articleID),
		ArticleID:   articleID,
		Summary:     summaryText,
		GeneratedAt: time.Now().Format("2006-01-02"),
	}
	u.fillArticleMeta(ctx, articleID, &doc.Title, &doc.Source, &doc.Date)

	return u.store.Put(ctx, u.cols.Summaries, doc.ID, doc)
}

// UpsertTips validates the nested payload shape and writes (or overwrites)
// the tips document for an article.
func (u *UpsertCoordinator) UpsertTips(ctx context.Context, articleID string, payload models.TipsPayload) error {
	if articleID == "" {
		return &ValidationError{Reason: "tips require an article id"}
	}
	if err := ValidateTipsPayload(payload); err != nil {
		return err
	}

	doc := models.Tips{
		ID:          models.TipsDocID(articleID),
		ArticleID:   articleID,
		Tips:        payload,
		GeneratedAt: time.Now().Format("2006-01-02"),
	}
	u.fillArticleMeta(ctx, articleID, &doc.Title, &doc.Source, &doc.Date)

	return u.store.Put(ctx, u.cols.Tips, doc.ID, doc)
}

// ValidateTipsPayload rejects payloads that would store a malformed tips
// shape: the nested object needs its summary plus both lists present (empty
// lists are fine, absent ones are not).
func ValidateTipsPayload(p models.TipsPayload) error {
	if p.Summary == "" {
		return &ValidationError{Reason: "tips payload missing summary"}
	}
	if p.Dos == nil {
		return &ValidationError{Reason: "tips payload missing dos list"}
	}
	if p.Donts == nil {
		return &ValidationError{Reason: "tips payload missing donts list"}
	}
	return nil
}

func (u *UpsertCoordinator) fillArticleMeta(ctx context.Context, articleID string, title, source, date *string) {
	article, err := u.store.Get(ctx, u.cols.News, articleID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("article lookup failed while filling metadata", "article_id", articleID, "error", err)
		}
		return
	}
	*title = models.GetString(article, "title")
	*source = models.GetString(article, "source")
	*date = models.GetString(article, "date")
}

func mergeTags(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, t := range existing {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	for _, t := range incoming {
		if t != "" && !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	return merged
}
