// Package memory holds evidence cache entries in a process-local map. It
// intentionally favors clarity over performance.
package memory

import (
	"context"
	"sync"

	"smartkyc/internal/domain"
	"smartkyc/internal/evidence"
)

type Store struct {
	mu      sync.RWMutex
	entries map[evidence.Key][]domain.Reference
}

func New() *Store {
	return &Store{entries: make(map[evidence.Key][]domain.Reference)}
}

func (s *Store) Get(_ context.Context, key evidence.Key) ([]domain.Reference, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]domain.Reference, len(refs))
	copy(out, refs)
	return out, true, nil
}

func (s *Store) Set(_ context.Context, key evidence.Key, refs []domain.Reference) error {
	stored := make([]domain.Reference, len(refs))
	copy(stored, refs)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = stored
	return nil
}

func (s *Store) DeleteOwner(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if key.OwnerID == ownerID {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[evidence.Key][]domain.Reference)
	return nil
}
