package services

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"cyber-news-digest/internal/store"
	"cyber-news-digest/models"
)

// seedDriftedStore builds a corpus with every anomaly class the auditor
// knows: a summary stranded in the tips collection, tips stranded in the
// summaries collection, a malformed tips document, an orphan summary, and
// an article with no derived documents at all.
func seedDriftedStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemoryStore()

	articles := []models.Article{
		{ID: "a1", Title: "Botnet Takedown", URL: "https://example.com/1", Content: "c"},
		{ID: "a2", Title: "New Stealer Campaign", URL: "https://example.com/2", Content: "c"},
		{ID: "a3", Title: "Uncovered Leak", URL: "https://example.com/3", Content: "c"},
	}
	for _, a := range articles {
		if err := mem.Put(ctx, "news", a.ID, a); err != nil {
			t.Fatalf("seeding article: %v", err)
		}
	}

	// Summary for a1 written into the tips collection.
	if err := mem.Put(ctx, "tips", "summary_a1", bson.M{
		"article_id":   "a1",
		"title":        "Botnet Takedown",
		"summary":      "the takedown in brief",
		"generated_at": "2026-08-10",
	}); err != nil {
		t.Fatal(err)
	}

	// Tips for a1 written into the summaries collection.
	if err := mem.Put(ctx, "summaries", "tips_a1", bson.M{
		"article_id": "a1",
		"title":      "Botnet Takedown",
		"tips": bson.M{
			"summary": "key issue",
			"dos":     []string{"block the C2 domains"},
			"donts":   []string{"ignore beaconing alerts"},
		},
	}); err != nil {
		t.Fatal(err)
	}

	// Malformed tips for a2: legacy flat fields instead of the nested object.
	if err := mem.Put(ctx, "tips", "tips_a2", bson.M{
		"article_id": "a2",
		"title":      "New Stealer Campaign",
		"summary":    "stealer hits browsers",
		"dos":        []string{"rotate saved credentials"},
		"donts":      []string{"store passwords in the browser"},
	}); err != nil {
		t.Fatal(err)
	}

	// Orphan summary: its article was deleted.
	if err := mem.Put(ctx, "summaries", "summary_gone", bson.M{
		"article_id": "gone",
		"summary":    "references a deleted article",
	}); err != nil {
		t.Fatal(err)
	}

	return mem
}

func countByKind(anomalies []models.Anomaly) map[models.AnomalyKind]int {
	counts := make(map[models.AnomalyKind]int)
	for _, a := range anomalies {
		counts[a.Kind]++
	}
	return counts
}

func TestAuditFindsEveryAnomalyClass(t *testing.T) {
	ctx := context.Background()
	mem := seedDriftedStore(t)
	auditor := NewAuditor(mem, testCollections())

	anomalies, err := auditor.Audit(ctx)
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	counts := countByKind(anomalies)

	if counts[models.AnomalyMisplacedSummary] != 1 {
		t.Errorf("misplaced summaries = %d, want 1", counts[models.AnomalyMisplacedSummary])
	}
	if counts[models.AnomalyMisplacedTips] != 1 {
		t.Errorf("misplaced tips = %d, want 1", counts[models.AnomalyMisplacedTips])
	}
	if counts[models.AnomalyMalformedTips] != 1 {
		t.Errorf("malformed tips = %d, want 1", counts[models.AnomalyMalformedTips])
	}
	if counts[models.AnomalyOrphanReference] != 1 {
		t.Errorf("orphan references = %d, want 1", counts[models.AnomalyOrphanReference])
	}
	// a2 has tips but no summary, a3 has nothing.
	if counts[models.AnomalyMissingCoverage] != 2 {
		t.Errorf("missing coverage = %d, want 2", counts[models.AnomalyMissingCoverage])
	}
}

func TestAuditCoverageCountsMisplacedDocuments(t *testing.T) {
	ctx := context.Background()
	mem := seedDriftedStore(t)
	auditor := NewAuditor(mem, testCollections())

	anomalies, err := auditor.Audit(ctx)
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}

	// a1 has a summary and tips, just in the wrong places; it must not be
	// reported as missing coverage.
	for _, a := range anomalies {
		if a.Kind == models.AnomalyMissingCoverage && a.ArticleID == "a1" {
			t.Fatalf("a1 flagged as missing coverage despite misplaced documents: %+v", a)
		}
	}
}

func TestRepairMovesAndRewraps(t *testing.T) {
	ctx := context.Background()
	mem := seedDriftedStore(t)
	auditor := NewAuditor(mem, testCollections())
	engine := NewRepairEngine(mem, testCollections())

	anomalies, err := auditor.Audit(ctx)
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if _, err := engine.Repair(ctx, anomalies); err != nil {
		t.Fatalf("repair failed: %v", err)
	}

	// Summary moved home.
	summary, err := mem.Get(ctx, "summaries", "summary_a1")
	if err != nil {
		t.Fatalf("moved summary not found: %v", err)
	}
	if models.GetString(summary, "summary") != "the takedown in brief" {
		t.Fatalf("summary text lost in move: %v", summary["summary"])
	}
	if _, err := mem.Get(ctx, "tips", "summary_a1"); err != store.ErrNotFound {
		t.Fatalf("misplaced copy still in tips collection (err=%v)", err)
	}

	// Tips moved home.
	tips, err := mem.Get(ctx, "tips", "tips_a1")
	if err != nil {
		t.Fatalf("moved tips not found: %v", err)
	}
	if models.ClassifyDocument(tips) != models.KindTips {
		t.Fatalf("moved tips are not well formed: %v", tips)
	}
	if _, err := mem.Get(ctx, "summaries", "tips_a1"); err != store.ErrNotFound {
		t.Fatalf("misplaced copy still in summaries collection (err=%v)", err)
	}

	// Malformed tips rewrapped in place with lists preserved.
	rewrapped, err := mem.Get(ctx, "tips", "tips_a2")
	if err != nil {
		t.Fatalf("rewrapped tips not found: %v", err)
	}
	if models.ClassifyDocument(rewrapped) != models.KindTips {
		t.Fatalf("rewrap did not produce well-formed tips: %v", rewrapped)
	}
	nested, _ := models.AsMap(rewrapped["tips"])
	dos := models.AsStringSlice(nested["dos"])
	if len(dos) != 1 || dos[0] != "rotate saved credentials" {
		t.Fatalf("dos list not preserved through rewrap: %v", dos)
	}
	if s, _ := nested["summary"].(string); s != "stealer hits browsers" {
		t.Fatalf("summary not folded into nested payload: %v", nested["summary"])
	}

	// Orphan is reported, never deleted.
	if _, err := mem.Get(ctx, "summaries", "summary_gone"); err != nil {
		t.Fatalf("orphan summary was touched by repair: %v", err)
	}
}

func TestRepairConvergesInOnePass(t *testing.T) {
	ctx := context.Background()
	mem := seedDriftedStore(t)
	auditor := NewAuditor(mem, testCollections())
	engine := NewRepairEngine(mem, testCollections())

	anomalies, err := auditor.Audit(ctx)
	if err != nil {
		t.Fatalf("first audit failed: %v", err)
	}
	if _, err := engine.Repair(ctx, anomalies); err != nil {
		t.Fatalf("first repair failed: %v", err)
	}

	again, err := auditor.Audit(ctx)
	if err != nil {
		t.Fatalf("second audit failed: %v", err)
	}
	for _, a := range again {
		switch a.Kind {
		case models.AnomalyOrphanReference, models.AnomalyMissingCoverage:
			// Report-only findings may legitimately persist.
		default:
			t.Fatalf("corrective anomaly survived a repair pass: %+v", a)
		}
	}

	changed, err := engine.Repair(ctx, again)
	if err != nil {
		t.Fatalf("second repair failed: %v", err)
	}
	if changed != 0 {
		t.Fatalf("second repair changed %d documents, want 0", changed)
	}
}
