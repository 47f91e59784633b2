package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Store is the capability interface over a document database. Put is
// create-or-overwrite at the granularity of one whole document
// (last-write-wins); Each streams every document in a collection, re-issuing
// the query on every call so callers can restart scans.
type Store interface {
	Get(ctx context.Context, collection, id string) (bson.M, error)
	Put(ctx context.Context, collection, id string, doc interface{}) error
	Delete(ctx context.Context, collection, id string) error
	Each(ctx context.Context, collection string, fn func(doc bson.M) error) error
	Count(ctx context.Context, collection string) (int64, error)
}

// RetryingStore wraps a Store and retries transient connection failures a
// bounded number of times with doubling backoff. Permission failures and
// ErrNotFound pass through untouched.
type RetryingStore struct {
	inner     Store
	attempts  int
	baseDelay time.Duration
}

func WithRetry(inner Store, attempts int, baseDelay time.Duration) *RetryingStore {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingStore{inner: inner, attempts: attempts, baseDelay: baseDelay}
}

func (r *RetryingStore) retry(ctx context.Context, op func() error) error {
	var err error
	delay := r.baseDelay
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
		if err = op(); err == nil || !IsRetryable(err) {
			return err
		}
	}
	return err
}

func (r *RetryingStore) Get(ctx context.Context, collection, id string) (bson.M, error) {
	var doc bson.M
	err := r.retry(ctx, func() error {
		var opErr error
		doc, opErr = r.inner.Get(ctx, collection, id)
		return opErr
	})
	return doc, err
}

func (r *RetryingStore) Put(ctx context.Context, collection, id string, doc interface{}) error {
	return r.retry(ctx, func() error {
		return r.inner.Put(ctx, collection, id, doc)
	})
}

func (r *RetryingStore) Delete(ctx context.Context, collection, id string) error {
	return r.retry(ctx, func() error {
		return r.inner.Delete(ctx, collection, id)
	})
}

func (r *RetryingStore) Each(ctx context.Context, collection string, fn func(doc bson.M) error) error {
	// Each re-issues the full query per attempt, so a retry restarts the scan.
	return r.retry(ctx, func() error {
		return r.inner.Each(ctx, collection, fn)
	})
}

func (r *RetryingStore) Count(ctx context.Context, collection string) (int64, error) {
	var n int64
	err := r.retry(ctx, func() error {
		var opErr error
		n, opErr = r.inner.Count(ctx, collection)
		return opErr
	})
	return n, err
}
