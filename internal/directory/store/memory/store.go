// Package memory implements the record store boundary in process memory,
// with the same full-snapshot change notification contract the postgres
// store provides. Used in tests and dev mode.
package memory

import (
	"context"
	"sync"
	"time"

	"smartkyc/internal/domain"
	"smartkyc/pkg/platform/sentinel"
)

type Store struct {
	mu         sync.RWMutex
	records    map[string]map[string]any
	registries map[string]map[string]map[string]any
	subs       map[uint64]func([]domain.RawRecord)
	nextSub    uint64

	// emitMu serializes snapshot deliveries so subscribers observe
	// changes in mutation order.
	emitMu sync.Mutex

	now func() time.Time
}

func New() *Store {
	return &Store{
		records:    make(map[string]map[string]any),
		registries: make(map[string]map[string]map[string]any),
		subs:       make(map[uint64]func([]domain.RawRecord)),
		now:        time.Now,
	}
}

func (s *Store) Subscribe(_ context.Context, fn func(records []domain.RawRecord)) (domain.CancelFunc, error) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	// Initial delivery so a new subscriber starts from the current state.
	s.emitTo(fn, snapshot)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
	return cancel, nil
}

// Put creates or replaces a record wholesale. It exists for the intake side
// of tests and dev seeding; administrators go through Update.
func (s *Store) Put(_ context.Context, ownerID string, fields map[string]any) error {
	s.mu.Lock()
	doc := cloneFields(fields)
	if _, exists := s.records[ownerID]; !exists {
		doc[domain.FieldCreatedAt] = s.now()
	} else if created, ok := s.records[ownerID][domain.FieldCreatedAt]; ok {
		doc[domain.FieldCreatedAt] = created
	}
	doc[domain.FieldUpdatedAt] = s.now()
	s.records[ownerID] = doc
	s.mu.Unlock()

	s.broadcast()
	return nil
}

func (s *Store) Update(_ context.Context, ownerID string, fields map[string]any) error {
	s.mu.Lock()
	doc, ok := s.records[ownerID]
	if !ok {
		s.mu.Unlock()
		return sentinel.ErrNotFound
	}
	for key, value := range fields {
		doc[key] = value
	}
	doc[domain.FieldUpdatedAt] = s.now()
	s.mu.Unlock()

	s.broadcast()
	return nil
}

func (s *Store) Delete(_ context.Context, ownerID string) error {
	s.mu.Lock()
	if _, ok := s.records[ownerID]; !ok {
		s.mu.Unlock()
		return sentinel.ErrNotFound
	}
	delete(s.records, ownerID)
	s.mu.Unlock()

	s.broadcast()
	return nil
}

func (s *Store) GetRegistryEntry(_ context.Context, registry, id string) (map[string]any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.registries[registry]
	if !ok {
		return nil, false, nil
	}
	entry, ok := entries[id]
	if !ok {
		return nil, false, nil
	}
	return cloneFields(entry), true, nil
}

func (s *Store) SetRegistryEntry(_ context.Context, registry, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.registries[registry]
	if !ok {
		entries = make(map[string]map[string]any)
		s.registries[registry] = entries
	}
	entries[id] = cloneFields(fields)
	return nil
}

func (s *Store) broadcast() {
	s.mu.RLock()
	snapshot := s.snapshotLocked()
	fns := make([]func([]domain.RawRecord), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		s.emitTo(fn, snapshot)
	}
}

func (s *Store) emitTo(fn func([]domain.RawRecord), snapshot []domain.RawRecord) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	fn(snapshot)
}

func (s *Store) snapshotLocked() []domain.RawRecord {
	out := make([]domain.RawRecord, 0, len(s.records))
	for ownerID, doc := range s.records {
		out = append(out, domain.RawRecord{OwnerID: ownerID, Fields: cloneFields(doc)})
	}
	return out
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
