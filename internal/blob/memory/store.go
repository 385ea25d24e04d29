// Package memory implements the blob store boundary in process memory for
// tests and dev mode. Access URLs are pseudo-signed with a random token to
// mimic the time-limited URLs a real blob store issues.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartkyc/internal/domain"
	"smartkyc/pkg/platform/sentinel"
)

type Store struct {
	mu      sync.RWMutex
	objects map[string]struct{}

	// FailDelete, when set, simulates a per-object deletion failure for
	// paths containing the substring. Exercises the best-effort cascade.
	FailDelete string

	urlTTL time.Duration
}

func New() *Store {
	return &Store{objects: make(map[string]struct{}), urlTTL: 15 * time.Minute}
}

// Put registers an object, as the intake flow's upload would.
func (s *Store) Put(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = struct{}{}
	return nil
}

func (s *Store) List(_ context.Context, prefix string) ([]domain.ObjectHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ObjectHandle
	for path := range s.objects {
		if strings.HasPrefix(path, prefix+"/") {
			name := path[strings.LastIndex(path, "/")+1:]
			out = append(out, domain.ObjectHandle{Path: path, Name: name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *Store) AccessURL(_ context.Context, handle domain.ObjectHandle) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[handle.Path]; !ok {
		return "", sentinel.ErrNotFound
	}
	expires := time.Now().Add(s.urlTTL).Unix()
	return fmt.Sprintf("https://blobs.local/%s?token=%s&expires=%d",
		handle.Path, uuid.NewString(), expires), nil
}

func (s *Store) DeleteObject(_ context.Context, handle domain.ObjectHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete != "" && strings.Contains(handle.Path, s.FailDelete) {
		return sentinel.ErrUnavailable
	}
	if _, ok := s.objects[handle.Path]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.objects, handle.Path)
	return nil
}

// Len reports how many objects remain. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
