package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type MemoryProvider struct {
	mu      sync.RWMutex
	records map[string]string
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{records: map[string]string{}}
}

func (p *MemoryProvider) Session(id uuid.UUID) Store {
	return memoryStore{provider: p, prefix: id.String() + ":"}
}

func (p *MemoryProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.records)
}

type memoryStore struct {
	provider *MemoryProvider
	prefix   string
}

func (s memoryStore) Get(c context.Context, key string) (string, error) {
	s.provider.mu.RLock()
	defer s.provider.mu.RUnlock()
	value, ok := s.provider.records[s.prefix+key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s memoryStore) Set(c context.Context, key string, value string) error {
	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()
	s.provider.records[s.prefix+key] = value
	return nil
}

func (s memoryStore) Remove(c context.Context, key string) error {
	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()
	delete(s.provider.records, s.prefix+key)
	return nil
}
