package objectstore

import (
	"context"
	"fmt"
	"io"
	"sync"
)

type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (s *Memory) Put(_ context.Context, r io.Reader, originalName string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read object: %w", err)
	}
	ref := newRef(originalName)
	s.mu.Lock()
	s.objects[ref] = data
	s.mu.Unlock()
	return ref, nil
}

func (s *Memory) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	delete(s.objects, ref)
	s.mu.Unlock()
	return nil
}

// Get returns the stored bytes, if any.
func (s *Memory) Get(ref string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[ref]
	return data, ok
}

func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
