// Package lru bounds the evidence cache with an LRU eviction policy so a
// long admin session browsing many records does not grow without limit.
package lru

import (
	"context"
	"errors"
	"sync"

	"github.com/bluele/gcache"

	"smartkyc/internal/domain"
	"smartkyc/internal/evidence"
)

type Store struct {
	cache gcache.Cache

	// gcache cannot enumerate keys by owner, so an index of live keys per
	// owner is kept alongside. The index may reference evicted keys; a
	// removal of an already-evicted key is a no-op.
	mu    sync.Mutex
	index map[string]map[evidence.Key]struct{}
}

func New(size int) *Store {
	return &Store{
		cache: gcache.New(size).LRU().Build(),
		index: make(map[string]map[evidence.Key]struct{}),
	}
}

func (s *Store) Get(_ context.Context, key evidence.Key) ([]domain.Reference, bool, error) {
	value, err := s.cache.Get(key)
	if err != nil {
		if errors.Is(err, gcache.KeyNotFoundError) {
			return nil, false, nil
		}
		return nil, false, err
	}
	refs := value.([]domain.Reference)
	out := make([]domain.Reference, len(refs))
	copy(out, refs)
	return out, true, nil
}

func (s *Store) Set(_ context.Context, key evidence.Key, refs []domain.Reference) error {
	stored := make([]domain.Reference, len(refs))
	copy(stored, refs)
	if err := s.cache.Set(key, stored); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, ok := s.index[key.OwnerID]
	if !ok {
		keys = make(map[evidence.Key]struct{})
		s.index[key.OwnerID] = keys
	}
	keys[key] = struct{}{}
	return nil
}

func (s *Store) DeleteOwner(_ context.Context, ownerID string) error {
	s.mu.Lock()
	keys := s.index[ownerID]
	delete(s.index, ownerID)
	s.mu.Unlock()

	for key := range keys {
		s.cache.Remove(key)
	}
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.cache.Purge()
	s.mu.Lock()
	s.index = make(map[string]map[evidence.Key]struct{})
	s.mu.Unlock()
	return nil
}
