package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"cyber-news-digest/internal/config"
	"cyber-news-digest/internal/store"
	"cyber-news-digest/models"
)

// QueryService is the read-side contract the dashboard consumes. It only
// composes store reads; a missing summary or tips never fails the whole call.
type QueryService struct {
	store store.Store
	cols  config.Collections
}

func NewQueryService(s store.Store, cols config.Collections) *QueryService {
	return &QueryService{store: s, cols: cols}
}

// EnrichedArticle bundles an article with whatever derived documents exist
// for it.
type EnrichedArticle struct {
	Article models.Article  `json:"article"`
	Summary *models.Summary `json:"summary,omitempty"`
	Tips    *models.Tips    `json:"tips,omitempty"`
}

// Coverage reports how much of the article corpus has derived artifacts.
type Coverage struct {
	TotalArticles int `json:"total_articles"`
	WithSummary   int `json:"with_summary"`
	WithTips      int `json:"with_tips"`
}

// GetEnriched returns the article plus its summary and tips when present.
// Only a missing article is an error; absent derived documents yield nil.
func (q *QueryService) GetEnriched(ctx context.Context, articleID string) (*EnrichedArticle, error) {
	raw, err := q.store.Get(ctx, q.cols.News, articleID)
	if err != nil {
		return nil, err
	}

	enriched := &EnrichedArticle{}
	if err := decodeInto(raw, &enriched.Article); err != nil {
		return nil, err
	}

	if rawSummary, err := q.store.Get(ctx, q.cols.Summaries, models.SummaryDocID(articleID)); err == nil {
		var summary models.Summary
		if err := decodeInto(rawSummary, &summary); err == nil {
			enriched.Summary = &summary
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if rawTips, err := q.store.Get(ctx, q.cols.Tips, models.TipsDocID(articleID)); err == nil {
		var tips models.Tips
		if err := decodeInto(rawTips, &tips); err == nil {
			enriched.Tips = &tips
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	return enriched, nil
}

// ListArticles returns every stored article.
func (q *QueryService) ListArticles(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	err := q.store.Each(ctx, q.cols.News, func(doc bson.M) error {
		var article models.Article
		if err := decodeInto(doc, &article); err != nil {
			return err
		}
		articles = append(articles, article)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// ListCoverage counts articles and how many of them have a summary and tips
// document. Coverage goes by document shape wherever the document sits, the
// same rule the auditor applies, so the numbers agree with an audit even on
// a drifted store.
func (q *QueryService) ListCoverage(ctx context.Context) (Coverage, error) {
	articleIDs := make(map[string]bool)
	err := q.store.Each(ctx, q.cols.News, func(doc bson.M) error {
		articleIDs[models.GetString(doc, "_id")] = true
		return nil
	})
	if err != nil {
		return Coverage{}, err
	}

	hasSummary := make(map[string]bool)
	hasTips := make(map[string]bool)
	for _, collection := range []string{q.cols.Summaries, q.cols.Tips} {
		err = q.store.Each(ctx, collection, func(doc bson.M) error {
			articleID := models.GetString(doc, "article_id")
			if !articleIDs[articleID] {
				return nil
			}
			switch models.ClassifyDocument(doc) {
			case models.KindSummary:
				hasSummary[articleID] = true
			case models.KindTips, models.KindMalformedTips:
				hasTips[articleID] = true
			}
			return nil
		})
		if err != nil {
			return Coverage{}, err
		}
	}

	return Coverage{
		TotalArticles: len(articleIDs),
		WithSummary:   len(hasSummary),
		WithTips:      len(hasTips),
	}, nil
}

func decodeInto(raw bson.M, v interface{}) error {
	data, err := bson.Marshal(raw)
	if err != nil {
		return err
	}
	return bson.Unmarshal(data, v)
}
