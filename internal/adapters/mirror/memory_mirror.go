package mirror

import (
	"context"
	"sync"
)

// In-process WorkflowMirror. State is lost when the process exits, which
// matches the lifetime of a browser tab's session storage.
type MemoryMirror struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{m: make(map[string]string)}
}

func (s *MemoryMirror) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *MemoryMirror) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *MemoryMirror) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.m, k)
	}
	return nil
}

// Len reports the number of stored keys.
func (s *MemoryMirror) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
