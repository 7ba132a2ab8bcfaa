package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/erp/revrec/internal/application/export"
	"github.com/erp/revrec/internal/domain/shared"
)

var _ export.FileStore = (*MemoryFileStore)(nil)

// MemoryFileStore keeps files in process memory.
// Use it for development and tests when no S3 endpoint is configured.
type MemoryFileStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemoryFileStore creates an empty MemoryFileStore
func NewMemoryFileStore() *MemoryFileStore {
	return &MemoryFileStore{files: make(map[string][]byte)}
}

// Put stores a copy of data under key
func (s *MemoryFileStore) Put(_ context.Context, key string, data []byte, _ string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = append([]byte(nil), data...)
	return nil
}

// Get returns a copy of the file under key or shared.ErrNotFound
func (s *MemoryFileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// List returns the keys under prefix in key order
func (s *MemoryFileStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.files {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
