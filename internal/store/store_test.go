package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestMemoryStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Get(ctx, "news", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	doc := bson.M{"title": "CVE drop", "url": "https://example.com/a"}
	if err := s.Put(ctx, "news", "abc", doc); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := s.Get(ctx, "news", "abc")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got["title"] != "CVE drop" {
		t.Fatalf("unexpected doc: %v", got)
	}
	if got["_id"] != "abc" {
		t.Fatalf("put should stamp _id, got %v", got["_id"])
	}

	// Overwrite, not duplicate.
	if err := s.Put(ctx, "news", "abc", bson.M{"title": "updated"}); err != nil {
		t.Fatalf("second put failed: %v", err)
	}
	n, err := s.Count(ctx, "news")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 document after overwrite, got %d", n)
	}

	if err := s.Delete(ctx, "news", "abc"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := s.Delete(ctx, "news", "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestMemoryStoreEachIsRestartable(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Put(ctx, "news", id, bson.M{"n": id}); err != nil {
			t.Fatalf("put failed: %v", err)
		}
	}

	for pass := 0; pass < 2; pass++ {
		seen := 0
		err := s.Each(ctx, "news", func(doc bson.M) error {
			seen++
			return nil
		})
		if err != nil {
			t.Fatalf("each failed on pass %d: %v", pass, err)
		}
		if seen != 3 {
			t.Fatalf("pass %d saw %d docs, want 3", pass, seen)
		}
	}
}

// flakyStore fails its first n calls with a ConnectionError.
type flakyStore struct {
	*MemoryStore
	failures int
}

func (f *flakyStore) Get(ctx context.Context, collection, id string) (bson.M, error) {
	if f.failures > 0 {
		f.failures--
		return nil, &ConnectionError{Op: "get", Err: errors.New("connection reset")}
	}
	return f.MemoryStore.Get(ctx, collection, id)
}

func TestRetryingStoreRecoversFromTransientFailure(t *testing.T) {
	ctx := context.Background()
	inner := &flakyStore{MemoryStore: NewMemoryStore(), failures: 2}
	if err := inner.Put(ctx, "news", "abc", bson.M{"title": "t"}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	retrying := WithRetry(inner, 3, time.Millisecond)
	doc, err := retrying.Get(ctx, "news", "abc")
	if err != nil {
		t.Fatalf("expected retries to absorb transient failures, got %v", err)
	}
	if doc["title"] != "t" {
		t.Fatalf("unexpected doc after retry: %v", doc)
	}
}

func TestRetryingStoreGivesUpAfterBoundedAttempts(t *testing.T) {
	ctx := context.Background()
	inner := &flakyStore{MemoryStore: NewMemoryStore(), failures: 10}

	retrying := WithRetry(inner, 3, time.Millisecond)
	_, err := retrying.Get(ctx, "news", "abc")
	if !IsRetryable(err) {
		t.Fatalf("expected the final ConnectionError to surface, got %v", err)
	}
}

func TestRetryingStorePassesNotFoundThrough(t *testing.T) {
	ctx := context.Background()
	retrying := WithRetry(NewMemoryStore(), 3, time.Millisecond)
	if _, err := retrying.Get(ctx, "news", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound unretried, got %v", err)
	}
}
