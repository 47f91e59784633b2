package services

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"cyber-news-digest/internal/store"
	"cyber-news-digest/models"
)

func TestGetEnriched(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	upserter := NewUpsertCoordinator(mem, testCollections())
	query := NewQueryService(mem, testCollections())

	id, err := upserter.UpsertArticle(ctx, models.Article{
		Title:   "Supply Chain Compromise",
		URL:     "https://example.com/supply",
		Content: "c",
	})
	if err != nil {
		t.Fatalf("article upsert failed: %v", err)
	}
	if err := upserter.UpsertSummary(ctx, id, "in brief"); err != nil {
		t.Fatalf("summary upsert failed: %v", err)
	}

	enriched, err := query.GetEnriched(ctx, id)
	if err != nil {
		t.Fatalf("GetEnriched failed: %v", err)
	}
	if enriched.Article.Title != "Supply Chain Compromise" {
		t.Fatalf("wrong article: %+v", enriched.Article)
	}
	if enriched.Summary == nil || enriched.Summary.Summary != "in brief" {
		t.Fatalf("summary not attached: %+v", enriched.Summary)
	}
	// No tips were generated; the result degrades instead of erroring.
	if enriched.Tips != nil {
		t.Fatalf("unexpected tips: %+v", enriched.Tips)
	}
}

func TestGetEnrichedMissingArticle(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	query := NewQueryService(mem, testCollections())

	_, err := query.GetEnriched(ctx, "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListCoverage(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	upserter := NewUpsertCoordinator(mem, testCollections())
	query := NewQueryService(mem, testCollections())

	var ids []string
	for _, u := range []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"} {
		id, err := upserter.UpsertArticle(ctx, models.Article{Title: "t", URL: u, Content: "c"})
		if err != nil {
			t.Fatalf("article upsert failed: %v", err)
		}
		ids = append(ids, id)
	}

	// Two summaries, one tips document.
	for _, id := range ids[:2] {
		if err := upserter.UpsertSummary(ctx, id, "s"); err != nil {
			t.Fatalf("summary upsert failed: %v", err)
		}
	}
	payload := models.TipsPayload{Summary: "s", Dos: []string{}, Donts: []string{}}
	if err := upserter.UpsertTips(ctx, ids[0], payload); err != nil {
		t.Fatalf("tips upsert failed: %v", err)
	}

	// An orphan summary must not inflate the counts.
	if err := mem.Put(ctx, "summaries", "summary_gone", bson.M{
		"article_id": "gone",
		"summary":    "orphan",
	}); err != nil {
		t.Fatal(err)
	}

	coverage, err := query.ListCoverage(ctx)
	if err != nil {
		t.Fatalf("ListCoverage failed: %v", err)
	}
	if coverage.TotalArticles != 3 {
		t.Errorf("TotalArticles = %d, want 3", coverage.TotalArticles)
	}
	if coverage.WithSummary != 2 {
		t.Errorf("WithSummary = %d, want 2", coverage.WithSummary)
	}
	if coverage.WithTips != 1 {
		t.Errorf("WithTips = %d, want 1", coverage.WithTips)
	}
}

// Coverage must match what an audit of the same store would report: a
// misplaced or malformed tips document still means the tips exist.
func TestListCoverageCountsMisplacedDocuments(t *testing.T) {
	ctx := context.Background()
	mem := seedDriftedStore(t)
	query := NewQueryService(mem, testCollections())

	coverage, err := query.ListCoverage(ctx)
	if err != nil {
		t.Fatalf("ListCoverage failed: %v", err)
	}
	if coverage.TotalArticles != 3 {
		t.Errorf("TotalArticles = %d, want 3", coverage.TotalArticles)
	}
	// a1's summary sits in the tips collection; it still counts.
	if coverage.WithSummary != 1 {
		t.Errorf("WithSummary = %d, want 1", coverage.WithSummary)
	}
	// a1's tips are in the summaries collection and a2's are flat; both count.
	if coverage.WithTips != 2 {
		t.Errorf("WithTips = %d, want 2", coverage.WithTips)
	}
}

func TestListArticles(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	upserter := NewUpsertCoordinator(mem, testCollections())
	query := NewQueryService(mem, testCollections())

	for _, u := range []string{"https://example.com/1", "https://example.com/2"} {
		if _, err := upserter.UpsertArticle(ctx, models.Article{Title: "t", URL: u, Content: "c"}); err != nil {
			t.Fatalf("article upsert failed: %v", err)
		}
	}

	articles, err := query.ListArticles(ctx)
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}
	for _, a := range articles {
		if a.ID == "" || a.URL == "" {
			t.Fatalf("article missing identity fields: %+v", a)
		}
	}
}
