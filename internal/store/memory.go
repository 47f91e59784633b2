package store

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// MemoryStore is an in-process Store used by tests and local runs without a
// database. Documents are deep-copied through BSON on the way in and out so
// callers cannot alias stored state.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]bson.M
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]bson.M)}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (bson.M, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDoc(doc)
}

func (s *MemoryStore) Put(ctx context.Context, collection, id string, doc interface{}) error {
	normalized, err := toDocument(id, doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]bson.M)
	}
	s.collections[collection][id] = normalized
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryStore) Each(ctx context.Context, collection string, fn func(doc bson.M) error) error {
	// Snapshot ids first so fn may write to the same collection mid-scan.
	s.mu.RLock()
	ids := make([]string, 0, len(s.collections[collection]))
	for id := range s.collections[collection] {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)

	for _, id := range ids {
		doc, err := s.Get(ctx, collection, id)
		if err != nil {
			if err == ErrNotFound {
				continue // deleted since the snapshot
			}
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) Count(ctx context.Context, collection string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.collections[collection])), nil
}

func copyDoc(doc bson.M) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
